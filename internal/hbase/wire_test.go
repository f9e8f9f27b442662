package hbase

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/coffersTech/logbridge/internal/mutate"
)

func newProto(t *testing.T) (*thrift.TMemoryBuffer, thrift.TProtocol) {
	t.Helper()
	buf := thrift.NewTMemoryBuffer()
	return buf, thrift.NewTBinaryProtocolConf(buf, &thrift.TConfiguration{})
}

func TestMutateRowsArgs_Wire(t *testing.T) {
	in := mutateRowsArgs{
		Table: "logs",
		Rows: []mutate.RowBatch{
			{Mutations: []mutate.Mutation{
				{Family: "data", Qualifier: "level", Value: []byte(`"info"`)},
				{Family: "data", Qualifier: "ctx", Value: []byte(`{"a":1}`)},
			}},
			{Mutations: nil},
		},
	}

	buf, p := newProto(t)
	ctx := context.Background()
	if err := in.Write(ctx, p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("nothing written to the wire")
	}

	var out mutateRowsArgs
	if err := out.Read(ctx, p); err != nil {
		t.Fatalf("Read: %v", err)
	}

	if out.Table != "logs" {
		t.Errorf("expected table logs, got %q", out.Table)
	}
	if len(out.Rows) != 2 {
		t.Fatalf("expected 2 row batches, got %d", len(out.Rows))
	}
	muts := out.Rows[0].Mutations
	if len(muts) != 2 {
		t.Fatalf("expected 2 mutations in row 0, got %d", len(muts))
	}
	if muts[0].Family != "data" || muts[0].Qualifier != "level" || string(muts[0].Value) != `"info"` {
		t.Errorf("mutation 0 corrupted on the wire: %+v", muts[0])
	}
	if muts[1].Qualifier != "ctx" || string(muts[1].Value) != `{"a":1}` {
		t.Errorf("mutation 1 corrupted on the wire: %+v", muts[1])
	}
	if len(out.Rows[1].Mutations) != 0 {
		t.Errorf("expected empty second row, got %d mutations", len(out.Rows[1].Mutations))
	}
}

func TestMutateRowsResult_DeclaredExceptions(t *testing.T) {
	tests := []struct {
		name    string
		result  mutateRowsResult
		wantErr string
	}{
		{"clean", mutateRowsResult{}, ""},
		{"io error", mutateRowsResult{IO: &backendError{Kind: "hbase IOError", Message: "region unavailable"}}, "region unavailable"},
		{"illegal argument", mutateRowsResult{IA: &backendError{Kind: "hbase IllegalArgument", Message: "bad family"}}, "bad family"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, p := newProto(t)
			ctx := context.Background()
			if err := tt.result.Write(ctx, p); err != nil {
				t.Fatalf("Write: %v", err)
			}

			var out mutateRowsResult
			if err := out.Read(ctx, p); err != nil {
				t.Fatalf("Read: %v", err)
			}
			err := out.Err()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no declared exception, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
