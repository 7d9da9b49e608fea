package record

import (
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/AdamDotNet/recflow/internal/testutil"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

type demoRow struct {
	Column1 int
	Column2 string
}

type tagged struct {
	ID       uint64 `csv:"id"`
	Secret   string `csv:"-"`
	internal int
	Price    float64 `csv:"price,omitempty"`
	Active   bool
	Seen     time.Time
	Addr     netip.Addr
	Raw      []byte
	Optional *int
}

type base struct {
	Tenant string
}

type withEmbedded struct {
	base
	*Audit
	Name string
}

// Audit is embedded through a pointer in withEmbedded.
type Audit struct {
	Author string
}

func TestSchemaOf(t *testing.T) {
	s, err := SchemaOf[demoRow]()
	testutil.AssertNoError(t, err)

	if got, want := s.Names(), []string{"Column1", "Column2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	testutil.AssertEqual(t, s.Fields()[0].Kind, Int)
	testutil.AssertEqual(t, s.Fields()[1].Kind, String)
	testutil.AssertEqual(t, s.Type(), reflect.TypeOf(demoRow{}))
}

func TestSchemaFor_Tags(t *testing.T) {
	s, err := SchemaFor(reflect.TypeOf(&tagged{}))
	testutil.AssertNoError(t, err)

	want := []string{"id", "price", "Active", "Seen", "Addr", "Raw", "Optional"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	kinds := []Kind{Uint, Float, Bool, Time, Text, Bytes, Int}
	for i, f := range s.Fields() {
		if f.Kind != kinds[i] {
			t.Errorf("field %s kind = %v, want %v", f.Name, f.Kind, kinds[i])
		}
	}
}

func TestSchemaFor_Embedded(t *testing.T) {
	s, err := SchemaOf[withEmbedded]()
	testutil.AssertNoError(t, err)

	// base is unexported so only the pointer-embedded Audit is flattened.
	if got, want := s.Names(), []string{"Author", "Name"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	values, err := s.Values(nil, withEmbedded{Name: "x"})
	testutil.AssertNoError(t, err)
	if want := []string{"", "x"}; !reflect.DeepEqual(values, want) {
		t.Fatalf("Values() = %q, want %q", values, want)
	}
}

func TestSchemaFor_Invalid(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"nil type", nil},
		{"not a struct", reflect.TypeOf(42)},
		{"time is not a record", reflect.TypeOf(time.Time{})},
		{"no exported fields", reflect.TypeOf(struct{ a int }{})},
		{"unsupported field", reflect.TypeOf(struct{ M map[string]int }{})},
		{"duplicate names", reflect.TypeOf(struct {
			A int `csv:"x"`
			B int `csv:"x"`
		}{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SchemaFor(tt.typ)
			if !rferrors.IsValidationError(err) {
				t.Fatalf("SchemaFor() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestValues_Struct(t *testing.T) {
	s, err := SchemaOf[tagged]()
	testutil.AssertNoError(t, err)

	seven := 7
	rec := tagged{
		ID:       42,
		Secret:   "hidden",
		Price:    1.5,
		Active:   true,
		Seen:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Addr:     netip.MustParseAddr("10.0.0.1"),
		Raw:      []byte("hi"),
		Optional: &seven,
	}

	got, err := s.Values(nil, rec)
	testutil.AssertNoError(t, err)

	want := []string{"42", "1.5", "true", "2024-01-02T03:04:05Z", "10.0.0.1", "aGk=", "7"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %q, want %q", got, want)
	}

	// Pointers to the record type are accepted too; nil optionals are empty.
	rec.Optional = nil
	got, err = s.Values(got, &rec)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got[6], "")
}

func TestValues_StructMismatch(t *testing.T) {
	s, err := SchemaOf[demoRow]()
	testutil.AssertNoError(t, err)

	tests := []struct {
		name string
		rec  any
	}{
		{"other struct", tagged{}},
		{"nil", nil},
		{"nil pointer", (*demoRow)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Values(nil, tt.rec)
			if !rferrors.IsSchemaMismatch(err) {
				t.Fatalf("Values() error = %v, want SchemaMismatchError", err)
			}
		})
	}
}

func TestNewSchema(t *testing.T) {
	s, err := NewSchema(Field{Name: "Column1", Kind: Int}, Field{Name: "Column2", Kind: String})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, s.Len(), 2)
	testutil.AssertEqual(t, s.Type() == nil, true)

	got, err := s.Values(nil, Row{int32(1), "one"})
	testutil.AssertNoError(t, err)
	if want := []string{"1", "one"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %q, want %q", got, want)
	}

	got, err = s.Values(got, Row{nil, "two"})
	testutil.AssertNoError(t, err)
	if want := []string{"", "two"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %q, want %q", got, want)
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
	}{
		{"no fields", nil},
		{"empty name", []Field{{Name: "", Kind: Int}}},
		{"unknown kind", []Field{{Name: "a", Kind: Invalid}}},
		{"duplicate", []Field{{Name: "a", Kind: Int}, {Name: "a", Kind: String}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema(tt.fields...)
			if !rferrors.IsValidationError(err) {
				t.Fatalf("NewSchema() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestValues_RowMismatch(t *testing.T) {
	s, err := NewSchema(Field{Name: "Column1", Kind: Int}, Field{Name: "Column2", Kind: String})
	testutil.AssertNoError(t, err)

	tests := []struct {
		name      string
		row       Row
		wantIndex int
	}{
		{"too few", Row{1}, -1},
		{"too many", Row{1, "one", true}, -1},
		{"wrong type", Row{"1", "one"}, 0},
		{"wrong second type", Row{1, 2.5}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Values(nil, tt.row)
			var mismatch *rferrors.SchemaMismatchError
			if !asMismatch(err, &mismatch) {
				t.Fatalf("Values() error = %v, want SchemaMismatchError", err)
			}
			testutil.AssertEqual(t, mismatch.Index, tt.wantIndex)
		})
	}
}

func asMismatch(err error, target **rferrors.SchemaMismatchError) bool {
	m, ok := err.(*rferrors.SchemaMismatchError)
	if ok {
		*target = m
	}
	return ok
}

func TestKindString(t *testing.T) {
	testutil.AssertEqual(t, Int.String(), "int")
	testutil.AssertEqual(t, Text.String(), "text")
	testutil.AssertEqual(t, Kind(99).String(), "Kind(99)")
}
