// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package export copies gateway result sets into PostgreSQL tables.
//
// Column types are inferred from the JSON values the gateway returned:
// integers become bigint, other numbers double precision, booleans boolean,
// and everything else text. Rows are bulk-loaded with COPY.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/gateway"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the part of a pgx connection or pool the sink needs.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Column is an inferred destination column.
type Column struct {
	Name string
	Type string
}

// PostgreSQL type names used for inferred columns.
const (
	TypeBigint = "bigint"
	TypeDouble = "double precision"
	TypeBool   = "boolean"
	TypeText   = "text"
)

// PostgresSink writes result sets into one PostgreSQL database.
type PostgresSink struct {
	conn Conn
}

// NewPostgresSink wraps an open connection or pool.
func NewPostgresSink(conn Conn) *PostgresSink {
	return &PostgresSink{conn: conn}
}

// Connect opens a pool for dsn and verifies it with a ping. The returned
// func closes the pool.
func Connect(ctx context.Context, dsn string) (*PostgresSink, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, clierrors.Wrap(clierrors.ExportFailed, "open pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, clierrors.Wrap(clierrors.ExportFailed, "connect", err)
	}
	return NewPostgresSink(pool), pool.Close, nil
}

// Copy loads rs into table, optionally creating it first. It returns the
// number of rows copied. An empty result set copies nothing and still
// creates the table when asked, provided it has columns.
func (s *PostgresSink) Copy(ctx context.Context, table string, rs *gateway.ResultSet, create bool) (int64, error) {
	ident, err := ParseIdentifier(table)
	if err != nil {
		return 0, err
	}
	cols := InferColumns(rs)
	if len(cols) == 0 {
		if create {
			return 0, clierrors.New(clierrors.ExportFailed, "result set has no columns to create a table from")
		}
		return 0, nil
	}

	if create {
		if _, err := s.conn.Exec(ctx, CreateTableSQL(ident, cols)); err != nil {
			return 0, clierrors.Wrap(clierrors.ExportFailed, "create table "+ident.Sanitize(), err)
		}
	}
	if rs.Len() == 0 {
		return 0, nil
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	src := pgx.CopyFromSlice(rs.Len(), func(i int) ([]any, error) {
		return rowValues(rs.Row(i), cols)
	})
	n, err := s.conn.CopyFrom(ctx, ident, names, src)
	if err != nil {
		return n, clierrors.Wrap(clierrors.ExportFailed, "copy into "+ident.Sanitize(), err)
	}
	return n, nil
}

// ParseIdentifier splits "schema.table" into a pgx identifier.
func ParseIdentifier(table string) (pgx.Identifier, error) {
	parts := strings.Split(strings.TrimSpace(table), ".")
	if len(parts) > 2 {
		return nil, clierrors.New(clierrors.ExportFailed, fmt.Sprintf("table %q has too many parts", table))
	}
	for _, p := range parts {
		if p == "" {
			return nil, clierrors.New(clierrors.ExportFailed, fmt.Sprintf("invalid table name %q", table))
		}
	}
	return pgx.Identifier(parts), nil
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for cols.
func CreateTableSQL(table pgx.Identifier, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), strings.Join(defs, ", "))
}

// InferColumns picks a PostgreSQL type for every column of rs, in column order.
func InferColumns(rs *gateway.ResultSet) []Column {
	names := rs.Columns()
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Type: inferType(rs, name)}
	}
	return cols
}

func inferType(rs *gateway.ResultSet, name string) string {
	var seen, allBool, allInt, allNum = false, true, true, true
	for _, row := range rs.All() {
		v, ok := row.Get(name)
		if !ok || v == nil {
			continue
		}
		seen = true
		switch x := v.(type) {
		case bool:
			allInt, allNum = false, false
		case json.Number:
			allBool = false
			if _, err := strconv.ParseInt(x.String(), 10, 64); err != nil {
				allInt = false
			}
		default:
			return TypeText
		}
	}
	switch {
	case !seen:
		return TypeText
	case allBool:
		return TypeBool
	case allInt:
		return TypeBigint
	case allNum:
		return TypeDouble
	}
	return TypeText
}

func rowValues(row gateway.Row, cols []Column) ([]any, error) {
	out := make([]any, len(cols))
	for i, c := range cols {
		v, ok := row.Get(c.Name)
		if !ok || v == nil {
			continue
		}
		switch c.Type {
		case TypeBigint:
			n, err := row.Int64(c.Name)
			if err != nil {
				return nil, err
			}
			out[i] = n
		case TypeDouble:
			f, err := row.Float64(c.Name)
			if err != nil {
				return nil, err
			}
			out[i] = f
		case TypeBool:
			b, err := row.Bool(c.Name)
			if err != nil {
				return nil, err
			}
			out[i] = b
		default:
			s, err := row.String(c.Name)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
	}
	return out, nil
}
