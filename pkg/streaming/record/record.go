package record

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

// Kind classifies how a field value is formatted.
type Kind int

const (
	Invalid Kind = iota
	Bool
	Int
	Uint
	Float
	String
	Bytes
	Time
	Text // fmt.Stringer or encoding.TextMarshaler
)

var kindNames = [...]string{
	Invalid: "invalid",
	Bool:    "bool",
	Int:     "int",
	Uint:    "uint",
	Float:   "float",
	String:  "string",
	Bytes:   "bytes",
	Time:    "time",
	Text:    "text",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Row is an untyped record matched positionally against an explicit Schema.
// A nil element is written as an empty field.
type Row []any

// Field describes a single column.
type Field struct {
	Name string
	Kind Kind

	index []int
}

// Schema is the ordered field list every record of a stream must match.
// It is immutable once constructed.
type Schema struct {
	fields []Field
	names  []string
	typ    reflect.Type
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// NewSchema builds an explicit schema for Row records.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, rferrors.NewValidationError("record", "fields", 0, "schema needs at least one field")
	}

	seen := make(map[string]struct{}, len(fields))
	s := &Schema{
		fields: make([]Field, len(fields)),
		names:  make([]string, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, rferrors.NewValidationError("record", "fields["+strconv.Itoa(i)+"].name", f.Name, "cannot be empty")
		}
		if f.Kind <= Invalid || f.Kind > Text {
			return nil, rferrors.NewValidationError("record", f.Name, f.Kind, "unknown field kind")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, rferrors.NewValidationError("record", f.Name, f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
		s.fields[i] = Field{Name: f.Name, Kind: f.Kind}
		s.names[i] = f.Name
	}
	return s, nil
}

// SchemaOf derives the schema of struct type T.
func SchemaOf[T any]() (*Schema, error) {
	return SchemaFor(reflect.TypeOf((*T)(nil)).Elem())
}

// SchemaFor derives a schema from a struct type (or pointer to one).
//
// Exported fields are used in declaration order. A `csv:"name"` tag renames a
// column and `csv:"-"` skips it. Embedded structs are flattened.
func SchemaFor(t reflect.Type) (*Schema, error) {
	if t == nil {
		return nil, rferrors.NewValidationError("record", "type", nil, "cannot be nil")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || t == timeType {
		return nil, rferrors.NewValidationError("record", "type", t.String(), "must be a struct").
			WithHint("use NewSchema with Row records for untyped data")
	}

	s := &Schema{typ: t}
	if err := s.collect(t, nil); err != nil {
		return nil, err
	}
	if len(s.fields) == 0 {
		return nil, rferrors.NewValidationError("record", "type", t.String(), "has no exported fields")
	}
	return s, nil
}

func (s *Schema) collect(t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("csv")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")

		index := append(append([]int(nil), parent...), i)
		kind := kindFor(sf.Type)

		if kind == Invalid && sf.Anonymous && derefType(sf.Type).Kind() == reflect.Struct && name == "" {
			if err := s.collect(derefType(sf.Type), index); err != nil {
				return err
			}
			continue
		}
		if kind == Invalid {
			return rferrors.NewValidationError("record", sf.Name, sf.Type.String(), "unsupported field type")
		}

		if name == "" {
			name = sf.Name
		}
		for _, existing := range s.names {
			if existing == name {
				return rferrors.NewValidationError("record", name, t.String(), "duplicate field name")
			}
		}
		s.fields = append(s.fields, Field{Name: name, Kind: kind, index: index})
		s.names = append(s.names, name)
	}
	return nil
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Names returns the column names in order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Fields returns a copy of the field list.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Type returns the struct type the schema was derived from, or nil for an
// explicit schema.
func (s *Schema) Type() reflect.Type { return s.typ }

// Values validates rec against the schema and formats each field into dst,
// which is returned resliced to the schema length.
func (s *Schema) Values(dst []string, rec any) ([]string, error) {
	if row, ok := rec.(Row); ok {
		return s.rowValues(dst, row)
	}

	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, &rferrors.SchemaMismatchError{Index: -1, Want: s.want(), Got: "nil " + v.Type().String()}
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, &rferrors.SchemaMismatchError{Index: -1, Want: s.want(), Got: "nil"}
	}
	if s.typ == nil || v.Type() != s.typ {
		return nil, &rferrors.SchemaMismatchError{Index: -1, Want: s.want(), Got: v.Type().String()}
	}
	v = addressable(v)

	dst = dst[:0]
	for _, f := range s.fields {
		fv, ok := fieldByIndex(v, f.index)
		if !ok {
			dst = append(dst, "")
			continue
		}
		dst = append(dst, format(f.Kind, fv))
	}
	return dst, nil
}

func (s *Schema) rowValues(dst []string, row Row) ([]string, error) {
	if len(row) != len(s.fields) {
		return nil, &rferrors.SchemaMismatchError{
			Index: -1,
			Want:  strconv.Itoa(len(s.fields)) + " fields",
			Got:   strconv.Itoa(len(row)) + " fields",
		}
	}

	dst = dst[:0]
	for i, f := range s.fields {
		if row[i] == nil {
			dst = append(dst, "")
			continue
		}
		v := reflect.ValueOf(row[i])
		if got := kindFor(v.Type()); got != f.Kind {
			return nil, &rferrors.SchemaMismatchError{Index: i, Field: f.Name, Want: f.Kind.String(), Got: v.Type().String()}
		}
		v, ok := deref(v)
		if !ok {
			dst = append(dst, "")
			continue
		}
		dst = append(dst, format(f.Kind, addressable(v)))
	}
	return dst, nil
}

func (s *Schema) want() string {
	if s.typ != nil {
		return s.typ.String()
	}
	return "record.Row"
}

func kindFor(t reflect.Type) Kind {
	t = derefType(t)
	switch {
	case t == timeType:
		return Time
	case t.Implements(textMarshalerType), reflect.PointerTo(t).Implements(textMarshalerType):
		return Text
	case t.Implements(stringerType), reflect.PointerTo(t).Implements(stringerType):
		return Text
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.String:
		return String
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return Bytes
		}
	}
	return Invalid
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	return v, true
}

// addressable copies v so pointer-receiver methods can be called on it.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	nv := reflect.New(v.Type()).Elem()
	nv.Set(v)
	return nv
}

// fieldByIndex walks embedded pointers without panicking on nil.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		var ok bool
		if v, ok = deref(v); !ok {
			return v, false
		}
		v = v.Field(i)
	}
	return deref(v)
}

func format(k Kind, v reflect.Value) string {
	switch k {
	case Bool:
		return strconv.FormatBool(v.Bool())
	case Int:
		return strconv.FormatInt(v.Int(), 10)
	case Uint:
		return strconv.FormatUint(v.Uint(), 10)
	case Float:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits())
	case String:
		return v.String()
	case Bytes:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	case Time:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case Text:
		return formatText(v)
	}
	return ""
}

func formatText(v reflect.Value) string {
	iface := v.Interface()
	if !v.Type().Implements(textMarshalerType) && !v.Type().Implements(stringerType) && v.CanAddr() {
		iface = v.Addr().Interface()
	}
	switch x := iface.(type) {
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return ""
		}
		return string(b)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(iface)
}
