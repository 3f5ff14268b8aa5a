// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package webapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/datawire/dlib/dlog"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget"
)

// flatContainer is the NuGet v3 "package content" resource: committed
// artifacts served directly by storage key, plus the per-package version
// enumeration.  It is also the ContentLocation that registration documents
// point in to.
type flatContainer struct {
	repo    *nuget.Repository
	baseURL string
}

var _ ContentLocation = (*flatContainer)(nil)

func (c *flatContainer) PackageContentURL(identity nuget.PackageIdentity) string {
	return fmt.Sprintf("%s/content/%s", c.baseURL, identity.NupkgKey())
}

func (c *flatContainer) serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch {
	case reContentIndex.MatchString(r.URL.Path):
		c.serveIndex(w, r, reContentIndex.FindStringSubmatch(r.URL.Path)[1])
	default:
		match := reContentFile.FindStringSubmatch(r.URL.Path)
		// The protocol addresses content by normalized (lower-case)
		// id and version, but be forgiving about casing in the URL;
		// storage keys are all lower-case.
		key := blob.NewKey(
			strings.ToLower(match[1]),
			strings.ToLower(match[2]),
			strings.ToLower(match[3]),
		)
		data, err := c.repo.Content(ctx, key)
		switch {
		case err == nil:
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(data)
		case errors.Is(err, nuget.ErrNotFound):
			http.NotFound(w, r)
		default:
			dlog.Errorf(ctx, "content %q: %v", key, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// serveIndex handles GET /content/{id}/index.json: the flat-container
// version enumeration, 404 for packages never stored.
func (c *flatContainer) serveIndex(w http.ResponseWriter, r *http.Request, idStr string) {
	ctx := r.Context()
	id, err := nuget.NewPackageID(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	versions, err := c.repo.Versions(ctx, id)
	if err != nil {
		dlog.Errorf(ctx, "content index %q: %v", id.Normalized(), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if versions.Empty() {
		http.NotFound(w, r)
		return
	}
	doc := struct {
		Versions []string `json:"versions"`
	}{
		Versions: []string{},
	}
	for _, ver := range versions.All() {
		doc.Versions = append(doc.Versions, ver.Normalized())
	}
	writeJSON(w, doc)
}
