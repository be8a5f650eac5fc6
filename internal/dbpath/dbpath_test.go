// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dbpath

import (
	"os"
	"path/filepath"
	"testing"

	clierrors "synclite/cli/internal/errors"
)

func TestDirResolver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "synclite", "job1", "db")
	r := DirResolver{Dir: dir}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "relative name", in: "t.db", want: filepath.Join(dir, "t.db")},
		{name: "nested name", in: "apps/orders.db", want: filepath.Join(dir, "apps", "orders.db")},
		{name: "absolute passes through", in: "/tmp/x/../t.db", want: "/tmp/t.db"},
		{name: "trimmed", in: "  t.db ", want: filepath.Join(dir, "t.db")},
		{name: "empty", in: " ", wantErr: true},
		{name: "escape", in: "../outside.db", wantErr: true},
		{name: "directory itself", in: ".", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.in)
			if tt.wantErr {
				if clierrors.KindOf(err) != clierrors.PathInvalid {
					t.Fatalf("expected path_invalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "apps")); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestDirResolverWithoutDir(t *testing.T) {
	if _, err := (DirResolver{}).Resolve("t.db"); err == nil {
		t.Fatal("expected error without a directory")
	}
}
