// Package mutate turns decoded log records into the column mutations the
// backend write call carries. Everything here is pure: no I/O, no shared
// state, same output for the same input.
package mutate

import (
	"errors"
	"fmt"

	"github.com/coffersTech/logbridge/internal/model"
)

// ErrInvalidRecord reports a record the translator refuses to store.
// Today that is only a field with an empty name, which would produce an
// unaddressable column qualifier.
var ErrInvalidRecord = errors.New("invalid log record")

// Mutation is one column write: fixed family, qualifier taken from the
// field name, value the field's raw serialized bytes.
type Mutation struct {
	Family    string
	Qualifier string
	Value     []byte
}

// RowBatch is the set of mutations derived from one record. One RowBatch
// becomes exactly one storage row.
type RowBatch struct {
	Mutations []Mutation
}

// WriteBatch is the full payload of one backend write call, one entry
// per input record, in input order.
type WriteBatch struct {
	Rows []RowBatch
}

// Translate maps one record to its row's mutations. Field order is kept.
// A field with an empty name yields ErrInvalidRecord; values are passed
// through uninterpreted, whatever JSON they hold.
func Translate(rec model.LogRecord, family string) (RowBatch, error) {
	rb := RowBatch{Mutations: make([]Mutation, 0, len(rec.Fields))}
	for _, f := range rec.Fields {
		if f.Name == "" {
			return RowBatch{}, fmt.Errorf("%w: empty field name", ErrInvalidRecord)
		}
		rb.Mutations = append(rb.Mutations, Mutation{
			Family:    family,
			Qualifier: f.Name,
			Value:     f.Value,
		})
	}
	return rb, nil
}

// Build groups translated rows into a single write batch. Rows are never
// merged or deduplicated: two identical records stay two distinct row
// writes. An empty input is legal and yields an empty batch, which the
// caller still submits.
func Build(rows []RowBatch) WriteBatch {
	return WriteBatch{Rows: rows}
}
