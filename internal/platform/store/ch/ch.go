// Package ch provides a thin clickhouse client over clickhouse-go batches
package ch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures clickhouse client
type Config struct {
	URL        string
	ClientInfo clickhouse.ClientInfo
}

// Rows is the clickhouse result set
type Rows = driver.Rows

// batch is the part of driver.Batch Insert relies on
type batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// CH is a clickhouse client for columnar appends and ad hoc reads
type CH struct {
	conn    driver.Conn
	prepare func(ctx context.Context, query string) (batch, error)
}

var openConn = clickhouse.Open

// Open parses the dsn, opens a native connection and pings it once
func Open(ctx context.Context, cfg Config) (*CH, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("ch: empty url")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ch: parse dsn: %w", err)
	}
	if len(cfg.ClientInfo.Products) > 0 {
		opts.ClientInfo = cfg.ClientInfo
	}
	conn, err := openConn(opts)
	if err != nil {
		return nil, fmt.Errorf("ch: open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch: ping: %w", err)
	}
	return newCH(conn), nil
}

func newCH(conn driver.Conn) *CH {
	return &CH{
		conn: conn,
		prepare: func(ctx context.Context, query string) (batch, error) {
			return conn.PrepareBatch(ctx, query)
		},
	}
}

// Insert appends rows to table in one batch, column order follows the table definition
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if !validIdent(table) {
		return fmt.Errorf("ch: invalid table name %q", table)
	}
	if len(rows) == 0 {
		return nil
	}
	b, err := c.prepare(ctx, "INSERT INTO "+table)
	if err != nil {
		return fmt.Errorf("ch: prepare %s: %w", table, err)
	}
	for i, r := range rows {
		if err := b.Append(r...); err != nil {
			_ = b.Abort()
			return fmt.Errorf("ch: append %s row %d: %w", table, i, err)
		}
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("ch: send %s: %w", table, err)
	}
	return nil
}

// Query runs a read and returns driver rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if c.conn == nil {
		return nil, errors.New("ch: not connected")
	}
	return c.conn.Query(ctx, sql, args...)
}

// Exec runs a statement that returns no rows, ddl included
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	if c.conn == nil {
		return errors.New("ch: not connected")
	}
	return c.conn.Exec(ctx, sql, args...)
}

// Ping checks the server answers
func (c *CH) Ping(ctx context.Context) error {
	if c.conn == nil {
		return errors.New("ch: not connected")
	}
	return c.conn.Ping(ctx)
}

// Close closes the connection
func (c *CH) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// validIdent accepts db.table style names made of letters, digits and underscores
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
			if !ok {
				return false
			}
		}
	}
	return true
}
