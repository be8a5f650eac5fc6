// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/keychain"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "state", "sessions.json"))
	require.NoError(t, err)
	return map[string]Store{
		"file":     fs,
		"keychain": NewKeychainStore(keychain.NewManager(keyring.NewArrayKeyring(nil))),
	}
}

func fixedClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
	return at
}

func TestTransitions(t *testing.T) {
	at := fixedClock(t)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			const db = "/tmp/t.db"

			_, err := s.Get(db)
			require.ErrorIs(t, err, ErrNotFound)

			e, err := Lookup(s, db)
			require.NoError(t, err)
			assert.Equal(t, Entry{DBPath: db}, e)

			require.NoError(t, MarkInitialized(s, db, "SQLITE", "test"))
			require.NoError(t, OpenTxn(s, db, "h-1"))

			e, err = s.Get(db)
			require.NoError(t, err)
			assert.True(t, e.Initialized)
			assert.True(t, e.InTxn())
			assert.Equal(t, "h-1", e.TxnHandle)
			assert.Equal(t, "SQLITE", e.DBType)
			assert.True(t, at.Equal(e.UpdatedAt))

			require.NoError(t, MarkInitialized(s, db, "SQLITE", "test"))
			e, err = s.Get(db)
			require.NoError(t, err)
			assert.Equal(t, "h-1", e.TxnHandle, "re-initialize keeps the handle")

			err = OpenTxn(s, db, "")
			assert.Equal(t, clierrors.SessionStore, clierrors.KindOf(err))

			require.NoError(t, CloseTxn(s, db))
			e, err = s.Get(db)
			require.NoError(t, err)
			assert.False(t, e.InTxn())
			assert.True(t, e.Initialized)

			require.NoError(t, CloseTxn(s, "/never/seen.db"))

			require.NoError(t, MarkClosed(s, db))
			_, err = s.Get(db)
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, MarkClosed(s, db))
		})
	}
}

func TestList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, MarkInitialized(s, "/b.db", "H2", "b"))
			require.NoError(t, MarkInitialized(s, "/a.db", "SQLITE", "a"))
			require.NoError(t, OpenTxn(s, "/c.db", "h-c"))

			list, err := s.List()
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "/a.db", list[0].DBPath)
			assert.Equal(t, "/b.db", list[1].DBPath)
			assert.Equal(t, "/c.db", list[2].DBPath)
			assert.False(t, list[2].Initialized)
			assert.Equal(t, "h-c", list[2].TxnHandle)
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sessions.json")
	first, err := NewFileStore(p)
	require.NoError(t, err)
	require.NoError(t, OpenTxn(first, "/tmp/t.db", "h-42"))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := NewFileStore(p)
	require.NoError(t, err)
	e, err := second.Get("/tmp/t.db")
	require.NoError(t, err)
	assert.Equal(t, "h-42", e.TxnHandle)
}

func TestFileStoreCorruptFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	fs, err := NewFileStore(p)
	require.NoError(t, err)
	_, err = fs.List()
	assert.Equal(t, clierrors.SessionStore, clierrors.KindOf(err))
}

func TestOpenFileBackend(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	s, err := Open("file")
	require.NoError(t, err)
	fs, ok := s.(*FileStore)
	require.True(t, ok)
	assert.Equal(t, "sessions.json", filepath.Base(fs.Path()))

	_, err = Open("redis")
	assert.Error(t, err)
}
