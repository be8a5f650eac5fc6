// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dbpath maps the short database names users type on the command line
// onto the paths the gateway expects in db-path.
package dbpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	clierrors "synclite/cli/internal/errors"
)

// Resolver turns a database name into a db-path.
type Resolver interface {
	Resolve(name string) (string, error)
}

// DirResolver joins relative names onto Dir. Absolute paths pass through
// unchanged.
type DirResolver struct {
	Dir string
}

var _ Resolver = DirResolver{}

// Resolve returns the db-path for name. Relative names are placed under Dir,
// which is created (0755) on first use. A name may not climb out of Dir.
func (r DirResolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", clierrors.New(clierrors.PathInvalid, "database name is empty")
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name), nil
	}
	if r.Dir == "" {
		return "", clierrors.New(clierrors.PathInvalid, "no database directory configured")
	}

	p := filepath.Join(r.Dir, name)
	rel, err := filepath.Rel(r.Dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", clierrors.New(clierrors.PathInvalid, fmt.Sprintf("%q escapes %s", name, r.Dir))
	}
	if rel == "." {
		return "", clierrors.New(clierrors.PathInvalid, fmt.Sprintf("%q names the database directory itself", name))
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", clierrors.Wrap(clierrors.PathInvalid, "create database directory", err)
	}
	return p, nil
}
