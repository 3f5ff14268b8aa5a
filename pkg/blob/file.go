// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStorage is a Storage backed by a directory tree; each key is a file
// under the root directory.
//
// The Exclusively locks are in-process only, so a given root directory must
// not be written by more than one process at a time.
type FileStorage struct {
	root  string
	locks keyedLocks
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage returns a store rooted at the given directory, creating it
// if needed.
func NewFileStorage(root string) (*FileStorage, error) {
	if err := os.MkdirAll(root, 0o777); err != nil {
		return nil, fmt.Errorf("blob.NewFileStorage: %w", err)
	}
	return &FileStorage{root: root}, nil
}

func (s *FileStorage) path(key Key) string {
	return filepath.Join(s.root, filepath.FromSlash(string(key)))
}

func (s *FileStorage) Exists(ctx context.Context, key Key) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(s.path(key))
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

func (s *FileStorage) Value(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		// os.ReadFile errors already wrap fs.ErrNotExist when the
		// file is absent, which is what Storage.Value promises.
		return nil, err
	}
	return data, nil
}

func (s *FileStorage) Save(ctx context.Context, key Key, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filename := s.path(key)
	if err := os.MkdirAll(filepath.Dir(filename), 0o777); err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o666)
}

func (s *FileStorage) Delete(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.Remove(s.path(key))
}

func (s *FileStorage) List(ctx context.Context, prefix Key) ([]Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []Key
	err := filepath.WalkDir(s.path(prefix), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				// An absent prefix just means there is nothing
				// under it.
				return fs.SkipDir
			}
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, Key(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *FileStorage) Move(ctx context.Context, src, dst Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dstPath := s.path(dst)
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o777); err != nil {
		return err
	}
	return os.Rename(s.path(src), dstPath)
}

func (s *FileStorage) Exclusively(ctx context.Context, key Key, fn func(ctx context.Context, target Storage) error) error {
	unlock, err := s.locks.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(ctx, s)
}
