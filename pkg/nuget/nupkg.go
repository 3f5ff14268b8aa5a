// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/tobyv/nugetd/pkg/blob"
)

// A Nupkg is a package archive: a ZIP file containing a single top-level
// .nuspec manifest plus payload files.
type Nupkg struct {
	content []byte
}

// NewNupkg wraps raw .nupkg bytes.
func NewNupkg(content []byte) *Nupkg {
	return &Nupkg{content: content}
}

// Nuspec locates and extracts the manifest.  The archive must contain
// exactly one top-level "*.nuspec" entry.
func (p *Nupkg) Nuspec() (*Nuspec, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(p.content), int64(len(p.content)))
	if err != nil {
		return nil, fmt.Errorf("%w: bad archive: %v", ErrInvalidPackage, err)
	}
	var found *zip.File
	for _, file := range zipReader.File {
		if strings.Contains(file.Name, "/") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(file.Name), ".nuspec") {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: multiple .nuspec entries", ErrInvalidPackage)
		}
		found = file
	}
	if found == nil {
		return nil, fmt.Errorf("%w: no .nuspec entry", ErrInvalidPackage)
	}
	entry, err := found.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPackage, found.Name, err)
	}
	defer entry.Close()
	content, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPackage, found.Name, err)
	}
	return NewNuspec(content), nil
}

// Hash returns the SHA-512 of the full archive bytes.
func (p *Nupkg) Hash() Hash {
	sum := sha512.Sum512(p.content)
	return Hash(sum[:])
}

// A Hash is a raw SHA-512 digest.
type Hash []byte

// Save writes the digest at the identity's hash key, encoded as standard
// base64 of the raw digest bytes (not hex).
func (h Hash) Save(ctx context.Context, storage blob.Storage, identity PackageIdentity) error {
	encoded := base64.StdEncoding.EncodeToString(h)
	return storage.Save(ctx, identity.HashKey(), []byte(encoded))
}
