// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
)

// Result is the typed outcome of one gateway operation. OK=false is a
// logical failure reported by the gateway; Message carries its cause.
type Result struct {
	OK        bool
	Message   string
	TxnHandle string     // set only by a successful begin
	Rows      *ResultSet // set only when an execute returned a resultset
}

// Err converts a logical failure into a *LogicalFailure for callers that
// prefer error flow. It returns nil when OK is true.
func (r Result) Err(op Op, dbPath string) error {
	if r.OK {
		return nil
	}
	return &LogicalFailure{Op: op, DBPath: dbPath, Message: r.Message}
}

// ResultSet is a fully materialized query result. It is read-only and can be
// iterated any number of times.
type ResultSet struct {
	rows    []Row
	columns []string
	seen    map[string]struct{}
}

func newResultSet() *ResultSet {
	return &ResultSet{seen: make(map[string]struct{})}
}

func (rs *ResultSet) append(row Row) {
	for _, c := range row.columns {
		if _, ok := rs.seen[c]; !ok {
			rs.seen[c] = struct{}{}
			rs.columns = append(rs.columns, c)
		}
	}
	rs.rows = append(rs.rows, row)
}

// Len returns the number of rows. A nil ResultSet has none.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rows)
}

// Columns returns the column names in first-seen order across all rows.
func (rs *ResultSet) Columns() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.columns))
	copy(out, rs.columns)
	return out
}

// Row returns the i-th row.
func (rs *ResultSet) Row(i int) Row { return rs.rows[i] }

// All yields rows in gateway order.
func (rs *ResultSet) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		if rs == nil {
			return
		}
		for i, row := range rs.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

// Maps returns every row as a column-name to value map.
func (rs *ResultSet) Maps() []map[string]any {
	out := make([]map[string]any, 0, rs.Len())
	for _, row := range rs.All() {
		out = append(out, row.Map())
	}
	return out
}

// MarshalJSON encodes the set back into the gateway's array-of-objects form,
// keeping column order.
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	if rs == nil {
		return []byte("null"), nil
	}
	buf := []byte{'['}
	for i, row := range rs.rows {
		if i > 0 {
			buf = append(buf, ',')
		}
		b, err := row.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return append(buf, ']'), nil
}

// Row is one record of a ResultSet. Column lookup is exact and
// case-sensitive. Values are string, json.Number, bool or nil.
type Row struct {
	columns []string
	values  []any
	index   map[string]int
}

// Columns returns the row's column names in gateway order.
func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Values returns the row's values in column order.
func (r Row) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Get returns the raw value of column name.
func (r Row) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// IsNull reports whether column name is present and null.
func (r Row) IsNull(name string) bool {
	v, ok := r.Get(name)
	return ok && v == nil
}

// String returns the column as text. Numbers and booleans are formatted.
func (r Row) String(name string) (string, error) {
	v, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	case nil:
		return "", fmt.Errorf("column %q is null", name)
	}
	return "", fmt.Errorf("column %q has unexpected type %T", name, v)
}

// Int64 returns the column as an integer.
func (r Row) Int64(name string) (int64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("column %q is %s, not a number", name, kindOf(v))
	}
	return n.Int64()
}

// Float64 returns the column as a float.
func (r Row) Float64(name string) (float64, error) {
	v, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("column %q is %s, not a number", name, kindOf(v))
	}
	return n.Float64()
}

// Bool returns the column as a boolean.
func (r Row) Bool(name string) (bool, error) {
	v, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("column %q is %s, not a boolean", name, kindOf(v))
	}
	return b, nil
}

// Map returns the row as a map. Ordering is lost.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the row as an object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, c := range r.columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func (r Row) lookup(name string) (any, error) {
	v, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	return v, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
