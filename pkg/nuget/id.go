// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package nuget implements the server side of a NuGet package repository: it
// ingests pushed .nupkg files in to a blob.Storage and reads back the
// metadata that the NuGet v3 protocol serves.
package nuget

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tobyv/nugetd/pkg/blob"
)

// Package ids are the ASCII alphabet, digits, '.', '-', and '_'.
var rePackageID = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)

// A PackageID is a case-insensitive package identifier.  The original casing
// is kept for display; comparisons and storage keys use the lower-case
// normalized form.
type PackageID struct {
	raw string
}

// NewPackageID validates a package identifier.
func NewPackageID(raw string) (PackageID, error) {
	if !rePackageID.MatchString(raw) {
		return PackageID{}, fmt.Errorf("%w: bad package id: %q", ErrInvalidPackage, raw)
	}
	return PackageID{raw: raw}, nil
}

// String returns the id with its original casing.
func (id PackageID) String() string {
	return id.raw
}

// Normalized returns the lower-case form used for keys and equality.
func (id PackageID) Normalized() string {
	return strings.ToLower(id.raw)
}

// RootKey is the key that all of the package's artifacts live under.
func (id PackageID) RootKey() blob.Key {
	return blob.NewKey(id.Normalized())
}

// VersionsKey is the key of the package's version index document.
func (id PackageID) VersionsKey() blob.Key {
	return id.RootKey().Child("index.json")
}
