// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// API is the set of gateway operations callers depend on. Implementations
// may talk to a real gateway or fake it in tests.
type API interface {
	Initialize(ctx context.Context, dbPath string, dbType DatabaseType, dbName string, opts ...RequestOption) (Result, error)
	Begin(ctx context.Context, dbPath string) (Result, error)
	Execute(ctx context.Context, dbPath, sql string, opts ...RequestOption) (Result, error)
	Commit(ctx context.Context, dbPath, txnHandle string) (Result, error)
	Rollback(ctx context.Context, dbPath, txnHandle string) (Result, error)
	Close(ctx context.Context, dbPath string) (Result, error)
}

// Config holds the only state a Client has. It is read-only after New.
type Config struct {
	// Address is the gateway URL; empty uses DefaultAddress.
	Address string
	// Timeout bounds each exchange; zero uses DefaultTimeout.
	Timeout time.Duration
	// Poster overrides the HTTP transport, mainly for tests.
	Poster Poster
	// Logger receives debug traces of each exchange.
	Logger *slog.Logger
}

// Client drives one gateway. Each method is a single synchronous exchange;
// the client keeps no transaction state between calls.
type Client struct {
	transport *Transport
}

var _ API = (*Client)(nil)

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		addr = DefaultAddress
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway address %q: %w", addr, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid gateway address %q: scheme must be http or https", addr)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid gateway address %q: missing host", addr)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid gateway timeout %s", cfg.Timeout)
	}
	return &Client{transport: NewTransport(addr, cfg.Timeout, cfg.Poster, cfg.Logger)}, nil
}

// Address returns the configured gateway URL.
func (c *Client) Address() string { return c.transport.Address() }

// Timeout returns the per-exchange timeout.
func (c *Client) Timeout() time.Duration { return c.transport.Timeout() }

// Do sends req and decodes the reply.
func (c *Client) Do(ctx context.Context, req *Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	env, err := c.transport.Send(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return Decode(req.Op(), env)
}

// Initialize creates or opens dbPath on the gateway with the given engine.
func (c *Client) Initialize(ctx context.Context, dbPath string, dbType DatabaseType, dbName string, opts ...RequestOption) (Result, error) {
	return c.Do(ctx, NewInitialize(dbPath, dbType, dbName, opts...))
}

// Begin opens a transaction. On success Result.TxnHandle is non-empty and the
// caller owns it until commit or rollback.
func (c *Client) Begin(ctx context.Context, dbPath string) (Result, error) {
	return c.Do(ctx, NewBegin(dbPath))
}

// Execute runs sql. Without WithTxnHandle it runs outside any transaction.
func (c *Client) Execute(ctx context.Context, dbPath, sql string, opts ...RequestOption) (Result, error) {
	return c.Do(ctx, NewExecute(dbPath, sql, opts...))
}

// Commit commits the transaction identified by txnHandle.
func (c *Client) Commit(ctx context.Context, dbPath, txnHandle string) (Result, error) {
	return c.Do(ctx, NewCommit(dbPath, txnHandle))
}

// Rollback rolls back the transaction identified by txnHandle.
func (c *Client) Rollback(ctx context.Context, dbPath, txnHandle string) (Result, error) {
	return c.Do(ctx, NewRollback(dbPath, txnHandle))
}

// Close closes dbPath on the gateway. Closing twice is passed through; the
// gateway's reply decides the outcome.
func (c *Client) Close(ctx context.Context, dbPath string) (Result, error) {
	return c.Do(ctx, NewClose(dbPath))
}
