// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/xdg"
)

// FileStore keeps all entries in one JSON file (0600). Writes go through a
// temporary file and a rename so a crash never leaves a torn file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path, or by sessions.json in the
// XDG state dir when path is empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := xdg.StateDir()
		if err != nil {
			return nil, clierrors.Wrap(clierrors.SessionStore, "resolve state dir", err)
		}
		path = filepath.Join(dir, "sessions.json")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Backend() string { return "file " + f.path }

func (f *FileStore) load() (map[string]Entry, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Entry{}, nil
	}
	if err != nil {
		return nil, clierrors.Wrap(clierrors.SessionStore, "read "+f.path, err)
	}
	entries := map[string]Entry{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, clierrors.Wrap(clierrors.SessionStore, "parse "+f.path, err)
	}
	return entries, nil
}

func (f *FileStore) save(entries map[string]Entry) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "create state dir", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sessions-*.json")
	if err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "write sessions", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return clierrors.Wrap(clierrors.SessionStore, "write sessions", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return clierrors.Wrap(clierrors.SessionStore, "write sessions", err)
	}
	if err := tmp.Close(); err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "write sessions", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "write sessions", err)
	}
	return nil
}

func (f *FileStore) Get(dbPath string) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := entries[dbPath]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (f *FileStore) Put(e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	entries[e.DBPath] = e
	return f.save(entries)
}

func (f *FileStore) Delete(dbPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[dbPath]; !ok {
		return nil
	}
	delete(entries, dbPath)
	return f.save(entries)
}

// List returns entries sorted by db-path.
func (f *FileStore) List() ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DBPath < out[j].DBPath })
	return out, nil
}
