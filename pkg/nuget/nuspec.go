// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget/semver"
)

// A Nuspec is the XML manifest embedded in a package archive.
type Nuspec struct {
	content []byte
}

// NewNuspec wraps raw .nuspec bytes.  The bytes are not validated until one
// of the accessors is called.
func NewNuspec(content []byte) *Nuspec {
	return &Nuspec{content: content}
}

// Bytes returns the raw manifest.
func (n *Nuspec) Bytes() []byte {
	return n.content
}

// PackageID reads the /package/metadata/id element.
func (n *Nuspec) PackageID() (PackageID, error) {
	raw, err := n.single("package", "metadata", "id")
	if err != nil {
		return PackageID{}, err
	}
	return NewPackageID(strings.TrimSpace(raw))
}

// Version reads and parses the /package/metadata/version element.
func (n *Nuspec) Version() (*semver.Version, error) {
	raw, err := n.single("package", "metadata", "version")
	if err != nil {
		return nil, err
	}
	ver, err := semver.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	return ver, nil
}

// Identity combines PackageID and Version.
func (n *Nuspec) Identity() (PackageIdentity, error) {
	id, err := n.PackageID()
	if err != nil {
		return PackageIdentity{}, err
	}
	ver, err := n.Version()
	if err != nil {
		return PackageIdentity{}, err
	}
	return PackageIdentity{ID: id, Version: ver}, nil
}

// Save writes the raw manifest at the identity's nuspec key.
func (n *Nuspec) Save(ctx context.Context, storage blob.Storage, identity PackageIdentity) error {
	return storage.Save(ctx, identity.NuspecKey(), n.content)
}

// single returns the text of the one element at the given path of local
// element names.  Nuspec schemas vary in their namespace, so namespaces are
// ignored.  Zero or multiple matching elements is an ErrInvalidPackage.
func (n *Nuspec) single(path ...string) (string, error) {
	values, err := elementTexts(n.content, path)
	if err != nil {
		return "", fmt.Errorf("%w: bad nuspec: %v", ErrInvalidPackage, err)
	}
	pathStr := "/" + strings.Join(path, "/")
	switch len(values) {
	case 0:
		return "", fmt.Errorf("%w: no values found at %q", ErrInvalidPackage, pathStr)
	case 1:
		return values[0], nil
	default:
		return "", fmt.Errorf("%w: multiple values found at %q", ErrInvalidPackage, pathStr)
	}
}

// elementTexts walks the XML token stream and collects the character data of
// every element whose local-name path from the document root equals path.
func elementTexts(doc []byte, path []string) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(doc))
	var stack []string
	var values []string
	var text *strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			stack = append(stack, tok.Name.Local)
			if pathEqual(stack, path) {
				text = new(strings.Builder)
			}
		case xml.EndElement:
			if pathEqual(stack, path) {
				values = append(values, text.String())
				text = nil
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if text != nil {
				text.Write(tok)
			}
		}
	}
	return values, nil
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
