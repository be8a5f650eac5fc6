// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session persists the caller-side view of gateway databases between
// CLI invocations: which paths were initialized and which transaction handle,
// if any, is open on each.
//
// The gateway client itself never caches handles. Each CLI command is a
// separate process, so the CLI stores the handle returned by a successful
// begin here and clears it only after a successful commit or rollback.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/keychain"
	"synclite/cli/internal/logging"
)

// Entry is the stored state of one db-path.
type Entry struct {
	DBPath      string    `json:"db_path"`
	DBType      string    `json:"db_type,omitempty"`
	DBName      string    `json:"db_name,omitempty"`
	Initialized bool      `json:"initialized"`
	TxnHandle   string    `json:"txn_handle,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InTxn reports whether a transaction handle is held for the path.
func (e Entry) InTxn() bool { return e.TxnHandle != "" }

// ErrNotFound is returned by Get for an unknown path.
var ErrNotFound = errors.New("no session for database")

// Store persists entries keyed by db-path.
type Store interface {
	Get(dbPath string) (Entry, error)
	Put(e Entry) error
	Delete(dbPath string) error
	List() ([]Entry, error)
	// Backend names the storage, for display.
	Backend() string
}

// Backend names accepted by Open.
const (
	BackendAuto     = "auto"
	BackendFile     = "file"
	BackendKeychain = "keychain"
)

var now = time.Now

// Open returns the store for backend. "auto" prefers the OS keychain and
// falls back to the file store when no keychain is available.
func Open(backend string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendFile:
		return NewFileStore("")
	case BackendKeychain:
		km, err := keychain.GetManager()
		if err != nil {
			return nil, clierrors.Wrap(clierrors.SessionStore, "open keychain", err)
		}
		return NewKeychainStore(km), nil
	case BackendAuto, "":
		km, err := keychain.GetManager()
		if err == nil {
			return NewKeychainStore(km), nil
		}
		logging.Op().Debug("keychain unavailable, using file session store", "error", err)
		return NewFileStore("")
	}
	return nil, clierrors.New(clierrors.SessionStore, fmt.Sprintf("unknown session backend %q", backend))
}

// Lookup returns the entry for dbPath, or a zero Entry for that path when
// none is stored.
func Lookup(s Store, dbPath string) (Entry, error) {
	e, err := s.Get(dbPath)
	if errors.Is(err, ErrNotFound) {
		return Entry{DBPath: dbPath}, nil
	}
	return e, err
}

// MarkInitialized records a successful initialize. An open handle, if any,
// is kept: initializing again does not end a transaction on the gateway.
func MarkInitialized(s Store, dbPath, dbType, dbName string) error {
	e, err := Lookup(s, dbPath)
	if err != nil {
		return err
	}
	e.DBType, e.DBName, e.Initialized = dbType, dbName, true
	e.UpdatedAt = now()
	return s.Put(e)
}

// MarkClosed records a successful close. The path is forgotten together
// with any handle it held.
func MarkClosed(s Store, dbPath string) error {
	return s.Delete(dbPath)
}

// OpenTxn stores handle after a successful begin.
func OpenTxn(s Store, dbPath, handle string) error {
	if handle == "" {
		return clierrors.New(clierrors.SessionStore, "refusing to store an empty transaction handle")
	}
	e, err := Lookup(s, dbPath)
	if err != nil {
		return err
	}
	e.TxnHandle = handle
	e.UpdatedAt = now()
	return s.Put(e)
}

// CloseTxn clears the handle after a successful commit or rollback.
func CloseTxn(s Store, dbPath string) error {
	e, err := s.Get(dbPath)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	e.TxnHandle = ""
	e.UpdatedAt = now()
	return s.Put(e)
}
