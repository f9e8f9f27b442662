package model

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// Field is one named value of a log record. Value holds the field's raw
// serialized JSON; it is carried to storage uninterpreted, so nested
// objects, arrays, numbers and null all pass through unchanged.
type Field struct {
	Name  string
	Value []byte
}

// LogRecord is one structured log entry: its fields in document order.
type LogRecord struct {
	Fields []Field
}

// LogBatch is the decoded form of one ingest request body: a JSON array
// of objects, one LogRecord per element, in array order.
type LogBatch []LogRecord

// ParseBatch decodes body into a LogBatch using the supplied parser.
// The body must be a JSON array whose elements are all objects; any
// other shape is a decode error and belongs to the client. Field order
// within each record is preserved. A duplicated field name keeps its
// first position and the last value wins, so a record never carries the
// same name twice.
func ParseBatch(p *fastjson.Parser, body []byte) (LogBatch, error) {
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("expected a JSON array of log records: %w", err)
	}

	batch := make(LogBatch, 0, len(arr))
	for i, item := range arr {
		obj, err := item.Object()
		if err != nil {
			return nil, fmt.Errorf("record %d is not an object: %w", i, err)
		}
		rec := LogRecord{Fields: make([]Field, 0, obj.Len())}
		seen := make(map[string]int, obj.Len())
		obj.Visit(func(key []byte, val *fastjson.Value) {
			name := string(key)
			if at, ok := seen[name]; ok {
				rec.Fields[at].Value = val.MarshalTo(nil)
				return
			}
			seen[name] = len(rec.Fields)
			rec.Fields = append(rec.Fields, Field{
				Name:  name,
				Value: val.MarshalTo(nil),
			})
		})
		batch = append(batch, rec)
	}
	return batch, nil
}
