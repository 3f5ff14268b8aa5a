// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/datawire/dlib/derror"
	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/tobyv/nugetd/pkg/blob"
)

// A Repository stores packages in a blob.Storage and maintains the
// per-package version index.
type Repository struct {
	storage blob.Storage
}

// NewRepository returns a Repository over the given store.
func NewRepository(storage blob.Storage) *Repository {
	return &Repository{storage: storage}
}

// stageKey returns a fresh random key for staging a push.  The key is
// UUID-shaped, so it cannot collide with committed artifacts (which all live
// under a package id) and an orphaned stage is recognizable at the root.
func stageKey() (blob.Key, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return blob.Key(fmt.Sprintf("%x-%x-%x-%x-%x",
		buf[0:4], buf[4:6], buf[6:8], buf[8:10], buf[10:16])), nil
}

// Add ingests a pushed package archive.  On success the store gains the
// .nupkg, .nuspec, and .nupkg.sha512 artifacts plus an updated version
// index, and the committed identity is returned.  Failure modes:
// ErrInvalidPackage for payloads that do not parse, ErrVersionExists when
// the identity already has artifacts, and the underlying storage error
// otherwise.
func (r *Repository) Add(ctx context.Context, content []byte) (PackageIdentity, error) {
	stage, err := stageKey()
	if err != nil {
		return PackageIdentity{}, err
	}
	if err := r.storage.Save(ctx, stage, content); err != nil {
		return PackageIdentity{}, err
	}
	identity, err := r.commit(ctx, stage)
	if err != nil {
		// Best-effort: the stage was consumed by Move on the success
		// path, but on failure it may still be sitting at the root.
		if exists, existsErr := r.storage.Exists(ctx, stage); existsErr == nil && exists {
			if delErr := r.storage.Delete(ctx, stage); delErr != nil {
				dlog.Errorf(ctx, "leaking staged blob %q: %v", stage, delErr)
			}
		}
		return PackageIdentity{}, err
	}
	return identity, nil
}

func (r *Repository) commit(ctx context.Context, stage blob.Key) (PackageIdentity, error) {
	// Read the staged bytes back rather than trusting the caller's copy;
	// the store is the source of truth for what is being committed.
	content, err := r.storage.Value(ctx, stage)
	if err != nil {
		return PackageIdentity{}, err
	}
	nupkg := NewNupkg(content)
	nuspec, err := nupkg.Nuspec()
	if err != nil {
		return PackageIdentity{}, err
	}
	identity, err := nuspec.Identity()
	if err != nil {
		return PackageIdentity{}, err
	}

	// Cheap uniqueness pre-check; the authoritative check is re-done
	// under the exclusive scope below.
	existing, err := r.storage.List(ctx, identity.RootKey())
	if err != nil {
		return PackageIdentity{}, err
	}
	if len(existing) > 0 {
		return PackageIdentity{}, fmt.Errorf("%w: %v", ErrVersionExists, identity)
	}

	err = r.storage.Exclusively(ctx, identity.ID.RootKey(), func(ctx context.Context, target blob.Storage) error {
		existing, err := target.List(ctx, identity.RootKey())
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: %v", ErrVersionExists, identity)
		}

		versions, err := r.loadVersions(ctx, target, identity.ID)
		if err != nil {
			return err
		}

		grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
		grp.Go("nupkg", func(ctx context.Context) error {
			return target.Move(ctx, stage, identity.NupkgKey())
		})
		grp.Go("hash", func(ctx context.Context) error {
			return nupkg.Hash().Save(ctx, target, identity)
		})
		grp.Go("nuspec", func(ctx context.Context) error {
			return nuspec.Save(ctx, target, identity)
		})
		if err := grp.Wait(); err != nil {
			r.scrub(ctx, target, identity)
			return err
		}

		// The index is written last: a reader that sees a version
		// listed is guaranteed to find the artifacts.
		return versions.Add(identity.Version).Save(ctx, target, identity.ID.VersionsKey())
	})
	if err != nil {
		return PackageIdentity{}, err
	}
	dlog.Infof(ctx, "stored package %v", identity)
	return identity, nil
}

// scrub best-effort deletes whatever partial artifacts a failed commit left
// under the identity's directory.
func (r *Repository) scrub(ctx context.Context, target blob.Storage, identity PackageIdentity) {
	keys, err := target.List(ctx, identity.RootKey())
	if err != nil {
		dlog.Errorf(ctx, "cannot scrub %v: %v", identity, err)
		return
	}
	var errs derror.MultiError
	for _, key := range keys {
		if err := target.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		dlog.Errorf(ctx, "cannot scrub %v: %v", identity, error(errs))
	}
}

func (r *Repository) loadVersions(ctx context.Context, storage blob.Storage, id PackageID) (*Versions, error) {
	key := id.VersionsKey()
	exists, err := storage.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return NewVersions(), nil
	}
	data, err := storage.Value(ctx, key)
	if err != nil {
		return nil, err
	}
	return ParseVersions(data)
}

// Versions returns the package's version index, empty when the package has
// never been stored.
func (r *Repository) Versions(ctx context.Context, id PackageID) (*Versions, error) {
	return r.loadVersions(ctx, r.storage, id)
}

// Nuspec returns the stored manifest for an identity, or ErrNotFound.
func (r *Repository) Nuspec(ctx context.Context, identity PackageIdentity) (*Nuspec, error) {
	data, err := r.storage.Value(ctx, identity.NuspecKey())
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, identity)
		}
		return nil, err
	}
	return NewNuspec(data), nil
}

// Content returns the raw bytes at an arbitrary storage key, or ErrNotFound.
// It backs the package-content (flat container) endpoints.
func (r *Repository) Content(ctx context.Context, key blob.Key) ([]byte, error) {
	data, err := r.storage.Value(ctx, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, key)
		}
		return nil, err
	}
	return data, nil
}
