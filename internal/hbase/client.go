// Package hbase speaks to the wide-column store over its Thrift
// endpoint. Only the write path the bridge needs is implemented.
package hbase

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/coffersTech/logbridge/internal/mutate"
)

// Conn is one live session to the store. Implementations are not safe
// for concurrent use; the pool hands each out to a single request at a
// time.
type Conn interface {
	// Put writes the batch to table as a single mutateRows call. The
	// context bounds the call; an error means the connection may be in
	// an unknown protocol state and should be discarded.
	Put(ctx context.Context, table string, batch mutate.WriteBatch) error
	Close() error
}

// DialConfig bounds the socket. SocketTimeout caps each blocking read
// or write, which is what keeps a backend write call from hanging
// forever.
type DialConfig struct {
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration
}

const bufferSize = 8192

type thriftConn struct {
	addr   string
	trans  thrift.TTransport
	client *thrift.TStandardClient
}

// Dial opens a buffered binary-protocol Thrift connection to addr.
func Dial(addr string, cfg DialConfig) (Conn, error) {
	conf := &thrift.TConfiguration{
		ConnectTimeout: cfg.ConnectTimeout,
		SocketTimeout:  cfg.SocketTimeout,
	}
	sock := thrift.NewTSocketConf(addr, conf)
	trans := thrift.NewTBufferedTransport(sock, bufferSize)
	if err := trans.Open(); err != nil {
		return nil, fmt.Errorf("dial hbase at %s: %w", addr, err)
	}
	proto := thrift.NewTBinaryProtocolConf(trans, conf)
	return &thriftConn{
		addr:   addr,
		trans:  trans,
		client: thrift.NewTStandardClient(proto, proto),
	}, nil
}

func (c *thriftConn) Put(ctx context.Context, table string, batch mutate.WriteBatch) error {
	args := mutateRowsArgs{Table: table, Rows: batch.Rows}
	var result mutateRowsResult
	if _, err := c.client.Call(ctx, "mutateRows", &args, &result); err != nil {
		return fmt.Errorf("mutateRows on %s: %w", c.addr, err)
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("mutateRows on %s: %w", c.addr, err)
	}
	return nil
}

func (c *thriftConn) Close() error {
	return c.trans.Close()
}
