// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"context"
	"sync"
)

// TxnState is the caller-side view of a transaction.
type TxnState int

const (
	TxnNone TxnState = iota
	TxnOpen
	TxnClosed
)

func (s TxnState) String() string {
	switch s {
	case TxnOpen:
		return "open"
	case TxnClosed:
		return "closed"
	default:
		return "none"
	}
}

// Txn pairs a transaction handle with the database path that issued it. It
// is a value the caller holds; the Client never remembers it. Transitions
// happen only on a successful commit or rollback; failures of any kind leave
// the state as it was.
type Txn struct {
	api    API
	dbPath string
	handle string

	mu    sync.Mutex
	state TxnState
}

// BeginTxn begins a transaction on dbPath. When the gateway refuses, the
// returned Txn is nil and Result carries the reason.
func BeginTxn(ctx context.Context, api API, dbPath string) (*Txn, Result, error) {
	res, err := api.Begin(ctx, dbPath)
	if err != nil || !res.OK {
		return nil, res, err
	}
	return &Txn{api: api, dbPath: dbPath, handle: res.TxnHandle, state: TxnOpen}, res, nil
}

// ResumeTxn rebuilds a Txn from a handle the caller stored earlier.
func ResumeTxn(api API, dbPath, handle string) *Txn {
	return &Txn{api: api, dbPath: dbPath, handle: handle, state: TxnOpen}
}

// BeginTxn is a convenience for BeginTxn(ctx, c, dbPath).
func (c *Client) BeginTxn(ctx context.Context, dbPath string) (*Txn, Result, error) {
	return BeginTxn(ctx, c, dbPath)
}

// DBPath returns the path the transaction belongs to.
func (t *Txn) DBPath() string { return t.dbPath }

// Handle returns the gateway handle.
func (t *Txn) Handle() string { return t.handle }

// State returns the current state.
func (t *Txn) State() TxnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Execute runs sql inside the transaction.
func (t *Txn) Execute(ctx context.Context, sql string, args ArgumentBatch) (Result, error) {
	if t.State() != TxnOpen {
		return Result{}, ErrTxnClosed
	}
	return t.api.Execute(ctx, t.dbPath, sql, WithTxnHandle(t.handle), WithArguments(args))
}

// Commit commits the transaction. The Txn is closed only when the gateway
// reports success.
func (t *Txn) Commit(ctx context.Context) (Result, error) {
	return t.finish(ctx, t.api.Commit)
}

// Rollback rolls the transaction back. The Txn is closed only when the
// gateway reports success.
func (t *Txn) Rollback(ctx context.Context) (Result, error) {
	return t.finish(ctx, t.api.Rollback)
}

func (t *Txn) finish(ctx context.Context, call func(context.Context, string, string) (Result, error)) (Result, error) {
	if t.State() != TxnOpen {
		return Result{}, ErrTxnClosed
	}
	res, err := call(ctx, t.dbPath, t.handle)
	if err != nil || !res.OK {
		return res, err
	}
	t.mu.Lock()
	t.state = TxnClosed
	t.mu.Unlock()
	return res, nil
}
