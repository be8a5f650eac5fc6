// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"errors"
	"reflect"
	"testing"

	"github.com/99designs/keyring"
)

func TestManagerOperations(t *testing.T) {
	m := NewManager(keyring.NewArrayKeyring(nil))

	if _, err := m.Get("session:a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty ring = %v, want ErrNotFound", err)
	}

	for _, k := range []string{"session:b", "session:a", "other"} {
		if err := m.Set(k, []byte("v-"+k)); err != nil {
			t.Fatalf("Set(%q): %v", k, err)
		}
	}
	if err := m.Set("session:a", []byte("replaced")); err != nil {
		t.Fatal(err)
	}

	got, err := m.Get("session:a")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "replaced" {
		t.Errorf("Get = %q", got)
	}

	keys, err := m.Keys("session:")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"session:a", "session:b"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}

	if err := m.Delete("session:a"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete("session:a"); err != nil {
		t.Errorf("second Delete should be a no-op, got %v", err)
	}
	if _, err := m.Get("session:a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}
}
