// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Storage, used by "nugetd serve" without a storage
// directory and by tests.
type Memory struct {
	mu    sync.RWMutex
	data  map[Key][]byte
	locks keyedLocks
}

var _ Storage = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[Key][]byte),
	}
}

func (m *Memory) Exists(ctx context.Context, key Key) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *Memory) Value(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("value %q: %w", key, ErrNotExist)
	}
	ret := make([]byte, len(data))
	copy(ret, data)
	return ret, nil
}

func (m *Memory) Save(ctx context.Context, key Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stored
	return nil
}

func (m *Memory) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return fmt.Errorf("delete %q: %w", key, ErrNotExist)
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) List(ctx context.Context, prefix Key) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []Key
	for key := range m.data {
		if key.IsUnder(prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *Memory) Move(ctx context.Context, src, dst Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[src]
	if !ok {
		return fmt.Errorf("move %q: %w", src, ErrNotExist)
	}
	m.data[dst] = data
	delete(m.data, src)
	return nil
}

func (m *Memory) Exclusively(ctx context.Context, key Key, fn func(ctx context.Context, target Storage) error) error {
	unlock, err := m.locks.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx, m)
}
