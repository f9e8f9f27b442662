package mutate

import (
	"errors"
	"testing"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/logbridge/internal/model"
)

func parseBatch(t *testing.T, body string) model.LogBatch {
	t.Helper()
	var p fastjson.Parser
	batch, err := model.ParseBatch(&p, []byte(body))
	if err != nil {
		t.Fatalf("ParseBatch(%q): %v", body, err)
	}
	return batch
}

func TestTranslate_ReferenceRecord(t *testing.T) {
	batch := parseBatch(t, `[{"level": "info", "msg": "hello"}]`)

	rb, err := Translate(batch[0], "data")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}

	want := []Mutation{
		{Family: "data", Qualifier: "level", Value: []byte(`"info"`)},
		{Family: "data", Qualifier: "msg", Value: []byte(`"hello"`)},
	}
	if len(rb.Mutations) != len(want) {
		t.Fatalf("expected %d mutations, got %d", len(want), len(rb.Mutations))
	}
	for i, w := range want {
		got := rb.Mutations[i]
		if got.Family != w.Family || got.Qualifier != w.Qualifier || string(got.Value) != string(w.Value) {
			t.Errorf("mutation %d: expected %+v, got %+v", i, w, got)
		}
	}
}

func TestTranslate_OpaqueValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested object", `[{"ctx":{"a":1,"b":[true,null]}}]`, `{"a":1,"b":[true,null]}`},
		{"number", `[{"ctx":42.5}]`, `42.5`},
		{"null", `[{"ctx":null}]`, `null`},
		{"array", `[{"ctx":[1,"two"]}]`, `[1,"two"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := parseBatch(t, tt.body)
			rb, err := Translate(batch[0], "data")
			if err != nil {
				t.Fatalf("Translate: %v", err)
			}
			if got := string(rb.Mutations[0].Value); got != tt.want {
				t.Errorf("expected raw value %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTranslate_EmptyFieldName(t *testing.T) {
	rec := model.LogRecord{Fields: []model.Field{
		{Name: "ok", Value: []byte(`1`)},
		{Name: "", Value: []byte(`2`)},
	}}
	if _, err := Translate(rec, "data"); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestBuild_OneRowPerRecordInOrder(t *testing.T) {
	batch := parseBatch(t, `[{"a":1},{"b":2},{"c":3}]`)

	rows := make([]RowBatch, 0, len(batch))
	for _, rec := range batch {
		rb, err := Translate(rec, "cf")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		rows = append(rows, rb)
	}
	wb := Build(rows)

	if len(wb.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(wb.Rows))
	}
	for i, q := range []string{"a", "b", "c"} {
		if got := wb.Rows[i].Mutations[0].Qualifier; got != q {
			t.Errorf("row %d: expected qualifier %q, got %q", i, q, got)
		}
		if got := wb.Rows[i].Mutations[0].Family; got != "cf" {
			t.Errorf("row %d: expected family cf, got %q", i, got)
		}
	}
}

func TestBuild_NoDeduplication(t *testing.T) {
	batch := parseBatch(t, `[{"msg":"same"},{"msg":"same"}]`)

	rows := make([]RowBatch, 0, len(batch))
	for _, rec := range batch {
		rb, err := Translate(rec, "data")
		if err != nil {
			t.Fatalf("Translate: %v", err)
		}
		rows = append(rows, rb)
	}
	wb := Build(rows)

	// Identical records stay distinct row writes.
	if len(wb.Rows) != 2 {
		t.Fatalf("expected 2 rows for 2 identical records, got %d", len(wb.Rows))
	}
}

func TestBuild_EmptyBatch(t *testing.T) {
	wb := Build(nil)
	if len(wb.Rows) != 0 {
		t.Fatalf("expected empty write batch, got %d rows", len(wb.Rows))
	}
}
