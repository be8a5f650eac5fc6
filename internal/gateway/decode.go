// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reply field names.
const (
	fieldResult    = "result"
	fieldMessage   = "message"
	fieldTxnHandle = "txn-handle"
	fieldResultSet = "resultset"
)

// Decode projects a gateway reply onto a Result for op. result and message
// are mandatory for every operation; a successful begin must also carry a
// txn-handle. A result=false reply is returned as a normal Result.
func Decode(op Op, env Envelope) (Result, error) {
	var res Result

	rawResult, ok := env[fieldResult]
	if !ok {
		return Result{}, &ProtocolError{Op: op, Field: fieldResult, Reason: "missing"}
	}
	if err := json.Unmarshal(rawResult, &res.OK); err != nil || isNull(rawResult) {
		return Result{}, &ProtocolError{Op: op, Field: fieldResult, Reason: "not a boolean"}
	}

	rawMessage, ok := env[fieldMessage]
	if !ok {
		return Result{}, &ProtocolError{Op: op, Field: fieldMessage, Reason: "missing"}
	}
	if err := json.Unmarshal(rawMessage, &res.Message); err != nil || isNull(rawMessage) {
		return Result{}, &ProtocolError{Op: op, Field: fieldMessage, Reason: "not a string"}
	}

	switch op {
	case OpBegin:
		if !res.OK {
			// A failed begin opens nothing, whatever else the reply carries.
			return res, nil
		}
		rawHandle, ok := env[fieldTxnHandle]
		if !ok {
			return Result{}, &ProtocolError{Op: op, Field: fieldTxnHandle, Reason: "missing on successful begin"}
		}
		if err := json.Unmarshal(rawHandle, &res.TxnHandle); err != nil || isNull(rawHandle) {
			return Result{}, &ProtocolError{Op: op, Field: fieldTxnHandle, Reason: "not a string"}
		}
		if res.TxnHandle == "" {
			return Result{}, &ProtocolError{Op: op, Field: fieldTxnHandle, Reason: "empty on successful begin"}
		}
	case OpExecute:
		rawRows, ok := env[fieldResultSet]
		if !ok || isNull(rawRows) {
			return res, nil
		}
		rows, err := decodeResultSet(rawRows)
		if err != nil {
			return Result{}, &ProtocolError{Op: op, Field: fieldResultSet, Reason: err.Error()}
		}
		res.Rows = rows
	}
	return res, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeResultSet walks the array token by token so column order and number
// representation survive.
func decodeResultSet(raw json.RawMessage) (*ResultSet, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("not an array")
	}

	rs := newResultSet()
	for i := 0; dec.More(); i++ {
		row, err := decodeRow(dec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rs.append(row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rs, nil
}

func decodeRow(dec *json.Decoder) (Row, error) {
	tok, err := dec.Token()
	if err != nil {
		return Row{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Row{}, fmt.Errorf("not an object")
	}

	row := Row{index: make(map[string]int)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return Row{}, fmt.Errorf("unexpected key token %v", keyTok)
		}
		if _, dup := row.index[name]; dup {
			return Row{}, fmt.Errorf("duplicate column %q", name)
		}

		valTok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		if _, nested := valTok.(json.Delim); nested {
			return Row{}, fmt.Errorf("column %q is not a scalar", name)
		}

		row.index[name] = len(row.columns)
		row.columns = append(row.columns, name)
		row.values = append(row.values, valTok)
	}
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	return row, nil
}
