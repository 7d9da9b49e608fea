// Package demo provides the sample record sets served by recflow.
package demo

import (
	"iter"
	"strconv"
)

// DefaultCount is the size of the large record set.
const DefaultCount = 1000

// Record is the two-column row used by every demo export.
type Record struct {
	Column1 int
	Column2 string
}

// Small returns the three-record set.
func Small() []Record {
	return []Record{
		{Column1: 1, Column2: "one"},
		{Column1: 2, Column2: "two"},
		{Column1: 3, Column2: "three"},
	}
}

// Many returns n records numbered from 0, with Column2 set to "Foo_<i>".
func Many(n int) []Record {
	recs := make([]Record, 0, max(n, 0))
	for rec := range Seq(n) {
		recs = append(recs, rec)
	}
	return recs
}

// Seq lazily yields the same records as Many.
func Seq(n int) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for i := 0; i < n; i++ {
			if !yield(Record{Column1: i, Column2: "Foo_" + strconv.Itoa(i)}) {
				return
			}
		}
	}
}
