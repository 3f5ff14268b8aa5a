// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"errors"
)

var (
	// ErrInvalidPackage reports a push whose payload is not a valid
	// package: unreadable archive, missing or duplicated nuspec, bad
	// manifest XML, or an invalid version string.
	ErrInvalidPackage = errors.New("invalid package")

	// ErrVersionExists reports a push for an identity that already has
	// artifacts stored.
	ErrVersionExists = errors.New("package version already exists")

	// ErrNotFound reports a read for an identity with nothing stored.
	ErrNotFound = errors.New("package not found")
)
