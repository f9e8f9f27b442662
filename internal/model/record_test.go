package model

import (
	"testing"

	"github.com/valyala/fastjson"
)

func TestParseBatch_OrderPreserved(t *testing.T) {
	var p fastjson.Parser
	batch, err := ParseBatch(&p, []byte(`[{"z":1,"a":2,"m":3}]`))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected 1 record, got %d", len(batch))
	}
	want := []string{"z", "a", "m"}
	for i, f := range batch[0].Fields {
		if f.Name != want[i] {
			t.Errorf("field %d: expected %q, got %q", i, want[i], f.Name)
		}
	}
}

func TestParseBatch_EmptyArray(t *testing.T) {
	var p fastjson.Parser
	batch, err := ParseBatch(&p, []byte(`[]`))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty batch, got %d records", len(batch))
	}
}

func TestParseBatch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"object not array", `{"a":1}`},
		{"scalar element", `[1,2]`},
		{"string body", `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p fastjson.Parser
			if _, err := ParseBatch(&p, []byte(tt.body)); err == nil {
				t.Errorf("expected error for %q", tt.body)
			}
		})
	}
}

func TestParseBatch_DuplicateKeysLastWins(t *testing.T) {
	var p fastjson.Parser
	batch, err := ParseBatch(&p, []byte(`[{"a":1,"b":2,"a":3}]`))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	fields := batch[0].Fields
	if len(fields) != 2 {
		t.Fatalf("expected duplicate names collapsed to 2 fields, got %d", len(fields))
	}
	if fields[0].Name != "a" || string(fields[0].Value) != "3" {
		t.Errorf("expected a=3 in first position, got %s=%s", fields[0].Name, fields[0].Value)
	}
	if fields[1].Name != "b" || string(fields[1].Value) != "2" {
		t.Errorf("expected b=2, got %s=%s", fields[1].Name, fields[1].Value)
	}
}

func TestParseBatch_RawValuesSurviveReparse(t *testing.T) {
	var p fastjson.Parser
	batch, err := ParseBatch(&p, []byte(`[{"payload": {"n": 1, "s": "x"}}]`))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	raw := batch[0].Fields[0].Value

	// The stored bytes must still be valid JSON with the same content.
	var check fastjson.Parser
	v, err := check.ParseBytes(raw)
	if err != nil {
		t.Fatalf("stored value is not valid JSON: %v", err)
	}
	if got := v.GetInt("n"); got != 1 {
		t.Errorf("expected n=1 in stored value, got %d", got)
	}
	if got := string(v.GetStringBytes("s")); got != "x" {
		t.Errorf("expected s=x in stored value, got %q", got)
	}
}
