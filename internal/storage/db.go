// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package storage provides key-value storage and typed wallet state on top of it.
package storage

import "errors"

// ErrNotFound defines that key is absent.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	// Get returns value of the key, ErrNotFound if key is absent.
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}
