// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"encoding/json"
	"math/big"
	"strings"
)

// ArgumentBatch holds one row of bind parameters per record. Every row must
// have the same width, matching the placeholders of the statement.
type ArgumentBatch [][]any

// Request is one logical operation ready to be encoded as a gateway envelope.
// Build it with the New* constructor for the operation and optional
// RequestOption steps; optional fields that are not set never reach the wire.
type Request struct {
	op           Op
	dbPath       string
	sql          string
	dbType       DatabaseType
	dbName       string
	loggerConfig string
	txnHandle    string
	arguments    ArgumentBatch

	// misuse records options applied to an operation that does not carry
	// the field; reported by Validate.
	misuse []string
}

// RequestOption applies one optional envelope field.
type RequestOption func(*Request)

// WithLoggerConfig sets synclite-logger-config on an initialize request.
// An empty path leaves the field out.
func WithLoggerConfig(path string) RequestOption {
	return func(r *Request) {
		if path == "" {
			return
		}
		if r.op != OpInitialize {
			r.misuse = append(r.misuse, "synclite-logger-config")
			return
		}
		r.loggerConfig = path
	}
}

// WithTxnHandle makes an execute, commit or rollback participate in the
// transaction identified by handle. An empty handle leaves the field out.
func WithTxnHandle(handle string) RequestOption {
	return func(r *Request) {
		if handle == "" {
			return
		}
		switch r.op {
		case OpExecute, OpCommit, OpRollback:
			r.txnHandle = handle
		default:
			r.misuse = append(r.misuse, "txn-handle")
		}
	}
}

// WithArguments attaches a batch of bind parameters to an execute request.
// A nil or empty batch leaves the arguments field out.
func WithArguments(batch ArgumentBatch) RequestOption {
	return func(r *Request) {
		if len(batch) == 0 {
			return
		}
		if r.op != OpExecute {
			r.misuse = append(r.misuse, "arguments")
			return
		}
		r.arguments = batch
	}
}

func newRequest(op Op, dbPath, sql string, opts []RequestOption) *Request {
	r := &Request{op: op, dbPath: dbPath, sql: sql}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// NewInitialize builds an initialize request. db-type and db-name are always
// sent for this operation.
func NewInitialize(dbPath string, dbType DatabaseType, dbName string, opts ...RequestOption) *Request {
	r := newRequest(OpInitialize, dbPath, KeywordInitialize, opts)
	r.dbType = dbType
	r.dbName = dbName
	return r
}

// NewBegin builds a begin request.
func NewBegin(dbPath string) *Request {
	return newRequest(OpBegin, dbPath, KeywordBegin, nil)
}

// NewExecute builds a request that runs sql on dbPath.
func NewExecute(dbPath, sql string, opts ...RequestOption) *Request {
	return newRequest(OpExecute, dbPath, sql, opts)
}

// NewCommit builds a commit request for handle.
func NewCommit(dbPath, handle string) *Request {
	return newRequest(OpCommit, dbPath, KeywordCommit, []RequestOption{WithTxnHandle(handle)})
}

// NewRollback builds a rollback request for handle.
func NewRollback(dbPath, handle string) *Request {
	return newRequest(OpRollback, dbPath, KeywordRollback, []RequestOption{WithTxnHandle(handle)})
}

// NewClose builds a close request.
func NewClose(dbPath string) *Request {
	return newRequest(OpClose, dbPath, KeywordClose, nil)
}

// Op returns the operation kind.
func (r *Request) Op() Op { return r.op }

// DBPath returns the addressed database path.
func (r *Request) DBPath() string { return r.dbPath }

// SQL returns the sql field as sent: a control keyword or statement text.
func (r *Request) SQL() string { return r.sql }

// TxnHandle returns the handle carried by the request, if any.
func (r *Request) TxnHandle() string { return r.txnHandle }

// Arguments returns the attached batch, nil when none.
func (r *Request) Arguments() ArgumentBatch { return r.arguments }

// Validate checks the request against the envelope rules without touching
// the network.
func (r *Request) Validate() error {
	if r == nil {
		return invalidf("nil request")
	}
	if len(r.misuse) > 0 {
		return invalidf("%s not allowed on %s", strings.Join(r.misuse, ", "), r.op)
	}
	if strings.TrimSpace(r.dbPath) == "" {
		return invalidf("db-path is required")
	}
	switch r.op {
	case OpInitialize:
		if !r.dbType.Valid() {
			return invalidf("unknown db-type %q", r.dbType)
		}
	case OpExecute:
		if strings.TrimSpace(r.sql) == "" {
			return invalidf("sql is required for execute")
		}
		return validateBatch(r.arguments)
	case OpBegin, OpCommit, OpRollback, OpClose:
	default:
		return invalidf("unknown operation %s", r.op)
	}
	return nil
}

func validateBatch(batch ArgumentBatch) error {
	if len(batch) == 0 {
		return nil
	}
	width := len(batch[0])
	for i, row := range batch {
		if len(row) != width {
			return invalidf("arguments row %d has %d values, want %d", i, len(row), width)
		}
		for j, v := range row {
			if !isScalar(v) {
				return invalidf("arguments[%d][%d] is %T, want a JSON scalar", i, j, v)
			}
		}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, *big.Int, *big.Float:
		return true
	}
	return false
}

// wireRequest is the on-the-wire envelope. Pointer fields distinguish "not
// sent" from an empty value for the initialize-only keys.
type wireRequest struct {
	DBPath       string        `json:"db-path"`
	DBType       *DatabaseType `json:"db-type,omitempty"`
	DBName       *string       `json:"db-name,omitempty"`
	SQL          string        `json:"sql"`
	LoggerConfig string        `json:"synclite-logger-config,omitempty"`
	TxnHandle    string        `json:"txn-handle,omitempty"`
	Arguments    ArgumentBatch `json:"arguments,omitempty"`
}

// MarshalJSON encodes the envelope after validating it.
func (r *Request) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w := wireRequest{
		DBPath:       r.dbPath,
		SQL:          r.sql,
		LoggerConfig: r.loggerConfig,
		TxnHandle:    r.txnHandle,
		Arguments:    r.arguments,
	}
	if r.op == OpInitialize {
		dbType, dbName := r.dbType, r.dbName
		w.DBType = &dbType
		w.DBName = &dbName
	}
	return json.Marshal(w)
}
