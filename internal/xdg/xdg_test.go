package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirsHonourEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
	}{
		{"config", "XDG_CONFIG_HOME", ConfigDir},
		{"state", "XDG_STATE_HOME", StateDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			t.Setenv(tt.env, base)

			dir, err := tt.fn()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want := filepath.Join(base, AppName); dir != want {
				t.Errorf("dir = %q, want %q", dir, want)
			}
			info, err := os.Stat(dir)
			if err != nil {
				t.Fatalf("dir not created: %v", err)
			}
			if !info.IsDir() {
				t.Error("expected a directory")
			}
		})
	}
}
