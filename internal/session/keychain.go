// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"encoding/json"
	"errors"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/keychain"
)

const keyPrefix = "session:"

// KeychainStore keeps one keychain item per db-path.
type KeychainStore struct {
	km *keychain.Manager
}

var _ Store = (*KeychainStore)(nil)

// NewKeychainStore returns a store on top of km.
func NewKeychainStore(km *keychain.Manager) *KeychainStore {
	return &KeychainStore{km: km}
}

func (k *KeychainStore) Backend() string { return "keychain " + keychain.ServiceName }

func (k *KeychainStore) Get(dbPath string) (Entry, error) {
	data, err := k.km.Get(keyPrefix + dbPath)
	if errors.Is(err, keychain.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, clierrors.Wrap(clierrors.SessionStore, "keychain get", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, clierrors.Wrap(clierrors.SessionStore, "decode keychain item", err)
	}
	return e, nil
}

func (k *KeychainStore) Put(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := k.km.Set(keyPrefix+e.DBPath, b); err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "keychain set", err)
	}
	return nil
}

func (k *KeychainStore) Delete(dbPath string) error {
	if err := k.km.Delete(keyPrefix + dbPath); err != nil {
		return clierrors.Wrap(clierrors.SessionStore, "keychain delete", err)
	}
	return nil
}

// List returns entries sorted by db-path.
func (k *KeychainStore) List() ([]Entry, error) {
	keys, err := k.km.Keys(keyPrefix)
	if err != nil {
		return nil, clierrors.Wrap(clierrors.SessionStore, "keychain list", err)
	}
	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		e, err := k.Get(key[len(keyPrefix):])
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
