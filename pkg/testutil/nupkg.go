// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"
)

// BuildZip assembles an in-memory ZIP archive.
func BuildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := zipWriter.Create(name)
		if err != nil {
			t.Fatalf("zip create %q: %v", name, err)
		}
		if _, err := entry.Write(content); err != nil {
			t.Fatalf("zip write %q: %v", name, err)
		}
	}
	if err := zipWriter.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// NuspecXML renders a minimal manifest in the usual namespaced schema.
func NuspecXML(id, version string) []byte {
	return []byte(fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd">
  <metadata>
    <id>%s</id>
    <version>%s</version>
    <authors>tests</authors>
    <description>test package</description>
  </metadata>
</package>`, id, version))
}

// BuildNupkg assembles a well-formed package archive for the given identity.
func BuildNupkg(t *testing.T, id, version string) []byte {
	t.Helper()
	return BuildZip(t, map[string][]byte{
		id + ".nuspec":            NuspecXML(id, version),
		"lib/net45/" + id + ".dll": []byte("not really a dll"),
	})
}
