// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"
	"sync"
)

// keyedLocks hands out one mutual-exclusion token per key.  Acquisition is
// cancelable, which a plain sync.Mutex is not; each key gets a 1-buffered
// channel used as a semaphore.
type keyedLocks struct {
	mu    sync.Mutex
	chans map[Key]chan struct{}
}

func (l *keyedLocks) sem(key Key) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.chans == nil {
		l.chans = make(map[Key]chan struct{})
	}
	ch, ok := l.chans[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.chans[key] = ch
	}
	return ch
}

// lock acquires the token for key, returning the function that releases it.
func (l *keyedLocks) lock(ctx context.Context, key Key) (unlock func(), err error) {
	ch := l.sem(key)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
