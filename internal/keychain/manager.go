// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for synclitedb.
// This module manages all interactions with the OS keychain/credential store and is
// used as one of the session store backends, keeping open transaction handles out of
// plain files.
//
// Only native platform backends are used: macOS Keychain, Windows Credential Manager,
// and Secret Service or pass on Linux. There is no encrypted-file fallback; callers
// that need one use the file session store instead.
package keychain

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "synclitedb"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found in keychain")

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// Manager provides thread-safe operations on one keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// NewManager wraps an already opened keyring.
func NewManager(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance, opening the OS
// keyring on first call. If opening fails it is retried on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	globalManager = NewManager(ring)
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
func openRing() (keyring.Keyring, error) {
	var allowedBackends []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowedBackends = []keyring.BackendType{keyring.SecretServiceBackend, keyring.PassBackend}
	default:
		return nil, fmt.Errorf("secure storage not supported on %s", runtime.GOOS)
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		// Items written by this CLI are readable by it without a prompt per item.
		KeychainTrustApplication: true,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("OS keychain unavailable: %w", err)
	}
	return ring, nil
}

// Set stores data under key, replacing any previous value.
// This method is thread-safe.
func (m *Manager) Set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ring.Set(keyring.Item{
		Key:         key,
		Data:        data,
		Label:       ServiceName + " " + key,
		Description: "synclitedb session",
	})
}

// Get returns the data stored under key, or ErrNotFound.
// This method is thread-safe.
func (m *Manager) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return it.Data, nil
}

// Delete removes key. Deleting a missing key is not an error.
// This method is thread-safe.
func (m *Manager) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// Keys lists stored keys that start with prefix, sorted.
// This method is thread-safe.
func (m *Manager) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all, err := m.ring.Keys()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}
