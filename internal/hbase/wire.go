package hbase

import (
	"context"
	"strings"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/coffersTech/logbridge/internal/mutate"
)

// Hand-rolled Thrift structs for the one HBase call this system makes:
//
//	void mutateRows(1:Text tableName, 2:list<BatchMutation> rowBatches,
//	                3:map<Text,Text> attributes)
//	    throws (1:IOError io, 2:IllegalArgument ia)
//
// On the wire a Mutation's column is "family:qualifier". Attributes are
// never sent; the backend treats a missing map as empty. Rows carry an
// empty row key: the backend derives placement, the bridge never assigns
// one.

type mutateRowsArgs struct {
	Table string
	Rows  []mutate.RowBatch
}

func (a *mutateRowsArgs) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "mutateRows_args"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "tableName", thrift.STRING, 1); err != nil {
		return err
	}
	if err := p.WriteString(ctx, a.Table); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "rowBatches", thrift.LIST, 2); err != nil {
		return err
	}
	if err := p.WriteListBegin(ctx, thrift.STRUCT, len(a.Rows)); err != nil {
		return err
	}
	for _, row := range a.Rows {
		if err := writeBatchMutation(ctx, p, row); err != nil {
			return err
		}
	}
	if err := p.WriteListEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (a *mutateRowsArgs) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if typeID == thrift.STOP {
			break
		}
		switch {
		case id == 1 && typeID == thrift.STRING:
			if a.Table, err = p.ReadString(ctx); err != nil {
				return err
			}
		case id == 2 && typeID == thrift.LIST:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return err
			}
			rows := make([]mutate.RowBatch, 0, size)
			for i := 0; i < size; i++ {
				rb, err := readBatchMutation(ctx, p)
				if err != nil {
					return err
				}
				rows = append(rows, rb)
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return err
			}
			a.Rows = rows
		default:
			if err := thrift.SkipDefaultDepth(ctx, p, typeID); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func writeBatchMutation(ctx context.Context, p thrift.TProtocol, row mutate.RowBatch) error {
	if err := p.WriteStructBegin(ctx, "BatchMutation"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "row", thrift.STRING, 1); err != nil {
		return err
	}
	if err := p.WriteString(ctx, ""); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "mutations", thrift.LIST, 2); err != nil {
		return err
	}
	if err := p.WriteListBegin(ctx, thrift.STRUCT, len(row.Mutations)); err != nil {
		return err
	}
	for _, m := range row.Mutations {
		if err := writeMutation(ctx, p, m); err != nil {
			return err
		}
	}
	if err := p.WriteListEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// writeMutation sends column and value only; isDelete (field 1) and
// writeToWAL (field 4) are left to their server-side defaults.
func writeMutation(ctx context.Context, p thrift.TProtocol, m mutate.Mutation) error {
	if err := p.WriteStructBegin(ctx, "Mutation"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "column", thrift.STRING, 2); err != nil {
		return err
	}
	if err := p.WriteString(ctx, m.Family+":"+m.Qualifier); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "value", thrift.STRING, 3); err != nil {
		return err
	}
	if err := p.WriteBinary(ctx, m.Value); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func readBatchMutation(ctx context.Context, p thrift.TProtocol) (mutate.RowBatch, error) {
	var rb mutate.RowBatch
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return rb, err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return rb, err
		}
		if typeID == thrift.STOP {
			break
		}
		switch {
		case id == 2 && typeID == thrift.LIST:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return rb, err
			}
			muts := make([]mutate.Mutation, 0, size)
			for i := 0; i < size; i++ {
				m, err := readMutation(ctx, p)
				if err != nil {
					return rb, err
				}
				muts = append(muts, m)
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return rb, err
			}
			rb.Mutations = muts
		default:
			if err := thrift.SkipDefaultDepth(ctx, p, typeID); err != nil {
				return rb, err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return rb, err
		}
	}
	return rb, p.ReadStructEnd(ctx)
}

func readMutation(ctx context.Context, p thrift.TProtocol) (mutate.Mutation, error) {
	var m mutate.Mutation
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return m, err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return m, err
		}
		if typeID == thrift.STOP {
			break
		}
		switch {
		case id == 2 && typeID == thrift.STRING:
			col, err := p.ReadString(ctx)
			if err != nil {
				return m, err
			}
			m.Family, m.Qualifier, _ = strings.Cut(col, ":")
		case id == 3 && typeID == thrift.STRING:
			if m.Value, err = p.ReadBinary(ctx); err != nil {
				return m, err
			}
		default:
			if err := thrift.SkipDefaultDepth(ctx, p, typeID); err != nil {
				return m, err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return m, err
		}
	}
	return m, p.ReadStructEnd(ctx)
}

// backendError is a declared exception returned by the mutateRows call.
type backendError struct {
	Kind    string
	Message string
}

func (e *backendError) Error() string {
	return e.Kind + ": " + e.Message
}

type mutateRowsResult struct {
	IO *backendError // 1: IOError
	IA *backendError // 2: IllegalArgument
}

// Err returns the declared exception carried by the result, if any.
func (r *mutateRowsResult) Err() error {
	if r.IO != nil {
		return r.IO
	}
	if r.IA != nil {
		return r.IA
	}
	return nil
}

func (r *mutateRowsResult) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if typeID == thrift.STOP {
			break
		}
		switch {
		case id == 1 && typeID == thrift.STRUCT:
			msg, err := readExceptionMessage(ctx, p)
			if err != nil {
				return err
			}
			r.IO = &backendError{Kind: "hbase IOError", Message: msg}
		case id == 2 && typeID == thrift.STRUCT:
			msg, err := readExceptionMessage(ctx, p)
			if err != nil {
				return err
			}
			r.IA = &backendError{Kind: "hbase IllegalArgument", Message: msg}
		default:
			if err := thrift.SkipDefaultDepth(ctx, p, typeID); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func (r *mutateRowsResult) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "mutateRows_result"); err != nil {
		return err
	}
	if r.IO != nil {
		if err := writeException(ctx, p, "io", 1, r.IO.Message); err != nil {
			return err
		}
	}
	if r.IA != nil {
		if err := writeException(ctx, p, "ia", 2, r.IA.Message); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Both declared exceptions share the same shape: 1:string message.
func readExceptionMessage(ctx context.Context, p thrift.TProtocol) (string, error) {
	var msg string
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return "", err
	}
	for {
		_, typeID, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return "", err
		}
		if typeID == thrift.STOP {
			break
		}
		if id == 1 && typeID == thrift.STRING {
			if msg, err = p.ReadString(ctx); err != nil {
				return "", err
			}
		} else if err := thrift.SkipDefaultDepth(ctx, p, typeID); err != nil {
			return "", err
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return "", err
		}
	}
	return msg, p.ReadStructEnd(ctx)
}

func writeException(ctx context.Context, p thrift.TProtocol, name string, id int16, msg string) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.STRUCT, id); err != nil {
		return err
	}
	if err := p.WriteStructBegin(ctx, name); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "message", thrift.STRING, 1); err != nil {
		return err
	}
	if err := p.WriteString(ctx, msg); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	if err := p.WriteStructEnd(ctx); err != nil {
		return err
	}
	return p.WriteFieldEnd(ctx)
}
