// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package blob provides the key/value store that the repository persists
// packages in to.
package blob

import (
	"context"
	"io/fs"
	"strings"
)

// A Key names a value in a Storage.  Keys are slash-separated paths; a key is
// "under" another key the way a file is under a directory.
type Key string

// NewKey joins path segments in to a Key.
func NewKey(parts ...string) Key {
	return Key(strings.Join(parts, "/"))
}

// Child returns the key for a path segment under k.
func (k Key) Child(part string) Key {
	if k == "" {
		return Key(part)
	}
	return Key(string(k) + "/" + part)
}

// IsUnder reports whether k is prefix itself or lives under it.
func (k Key) IsUnder(prefix Key) bool {
	if prefix == "" {
		return true
	}
	return k == prefix || strings.HasPrefix(string(k), string(prefix)+"/")
}

func (k Key) String() string {
	return string(k)
}

// ErrNotExist is returned by Storage.Value for keys that have no value.  It
// wraps fs.ErrNotExist so that callers may use errors.Is with either.
var ErrNotExist = fs.ErrNotExist

// Storage is a blob store.  All calls are blocking and honor cancellation of
// the Context where the backing medium allows it.
type Storage interface {
	// Exists reports whether a value is stored at the exact key.
	Exists(ctx context.Context, key Key) (bool, error)

	// Value returns the value stored at key, or an error wrapping
	// ErrNotExist if there is none.
	Value(ctx context.Context, key Key) ([]byte, error)

	// Save stores a value at key, replacing any previous value.
	Save(ctx context.Context, key Key, data []byte) error

	// Delete removes the value at key.  Deleting an absent key is an
	// error wrapping ErrNotExist.
	Delete(ctx context.Context, key Key) error

	// List returns the keys of all stored values under prefix, in
	// unspecified order.
	List(ctx context.Context, prefix Key) ([]Key, error)

	// Move atomically renames the value at src to dst.
	Move(ctx context.Context, src, dst Key) error

	// Exclusively runs fn with writes to the store serialized relative to
	// every other Exclusively call that uses the same key.  Calls with
	// distinct keys do not block each other.  Readers are not blocked.
	Exclusively(ctx context.Context, key Key, fn func(ctx context.Context, target Storage) error) error
}
