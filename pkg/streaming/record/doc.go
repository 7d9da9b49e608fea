/*
Package record describes the shape of the records a stream carries.

A Schema is an ordered list of named, typed fields. It is derived once from a
struct type:

	type Order struct {
		ID     int64   `csv:"id"`
		Amount float64 `csv:"amount"`
		Note   string  `csv:"-"`
	}

	schema, err := record.SchemaOf[Order]()

or built explicitly for untyped rows:

	schema, err := record.NewSchema(
		record.Field{Name: "id", Kind: record.Int},
		record.Field{Name: "amount", Kind: record.Float},
	)
	values, err := schema.Values(nil, record.Row{int64(1), 9.99})

Values returns a *errors.SchemaMismatchError when a record has the wrong type,
the wrong number of fields or a field of the wrong kind.
*/
package record
