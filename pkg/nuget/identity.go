// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"fmt"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget/semver"
)

// A PackageIdentity is an (id, version) pair; it uniquely identifies one
// stored package.
type PackageIdentity struct {
	ID      PackageID
	Version *semver.Version
}

func (identity PackageIdentity) String() string {
	return fmt.Sprintf("%s:%s", identity.ID.Normalized(), identity.Version.Normalized())
}

// RootKey is the per-version directory, <id>/<version>; its emptiness is the
// uniqueness check for pushes.
func (identity PackageIdentity) RootKey() blob.Key {
	return identity.ID.RootKey().Child(identity.Version.Normalized())
}

func (identity PackageIdentity) filename(ext string) string {
	return fmt.Sprintf("%s.%s%s", identity.ID.Normalized(), identity.Version.Normalized(), ext)
}

// NupkgKey is the key of the package archive itself.
func (identity PackageIdentity) NupkgKey() blob.Key {
	return identity.RootKey().Child(identity.filename(".nupkg"))
}

// NuspecKey is the key of the extracted manifest.
func (identity PackageIdentity) NuspecKey() blob.Key {
	return identity.RootKey().Child(identity.filename(".nuspec"))
}

// HashKey is the key of the base64-encoded SHA-512 of the archive.
func (identity PackageIdentity) HashKey() blob.Key {
	return identity.RootKey().Child(identity.filename(".nupkg.sha512"))
}
