// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package webapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/datawire/dlib/dlog"

	"github.com/tobyv/nugetd/pkg/nuget"
)

// ContentLocation tells the registration document where package content is
// downloadable from.
type ContentLocation interface {
	PackageContentURL(identity nuget.PackageIdentity) string
}

// The registration index document.  Minimal, but nothing a client requires
// may be omitted: real NuGet clients tolerate unknown fields yet insist on
// the leaf structure below.
type registrationIndex struct {
	Count int                `json:"count"`
	Items []registrationPage `json:"items"`
}

type registrationPage struct {
	ID    string             `json:"@id"`
	Count int                `json:"count"`
	Lower string             `json:"lower"`
	Upper string             `json:"upper"`
	Items []registrationLeaf `json:"items"`
}

type registrationLeaf struct {
	ID             string       `json:"@id"`
	CatalogEntry   catalogEntry `json:"catalogEntry"`
	Listed         bool         `json:"listed"`
	PackageContent string       `json:"packageContent"`
}

type catalogEntry struct {
	ID        string `json:"@id"`
	PackageID string `json:"id"`
	Version   string `json:"version"`
}

// registration handles GET /registrations/{id}/index.json.
func (h *Handler) registration(w http.ResponseWriter, r *http.Request, idStr string) {
	ctx := r.Context()
	id, err := nuget.NewPackageID(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	index, err := h.registrationIndex(r, id)
	if err != nil {
		dlog.Errorf(ctx, "registration %q: %v", id.Normalized(), err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, index)
}

func (h *Handler) registrationIndex(r *http.Request, id nuget.PackageID) (*registrationIndex, error) {
	ctx := r.Context()
	versions, err := h.repo.Versions(ctx, id)
	if err != nil {
		return nil, err
	}
	index := &registrationIndex{
		Items: []registrationPage{},
	}
	if versions.Empty() {
		return index, nil
	}

	all := versions.All()
	page := registrationPage{
		ID:    fmt.Sprintf("%s/registrations/%s/index.json", h.content.baseURL, id.Normalized()),
		Count: len(all),
		Lower: all[0].Normalized(),
		Upper: all[len(all)-1].Normalized(),
	}
	for _, ver := range all {
		identity := nuget.PackageIdentity{ID: id, Version: ver}
		// The index invariant guarantees every listed version has a
		// stored nuspec; read it back for the display casing of the
		// id.
		nuspec, err := h.repo.Nuspec(ctx, identity)
		if err != nil {
			return nil, err
		}
		displayID, err := nuspec.PackageID()
		if err != nil {
			return nil, err
		}
		leafURL := fmt.Sprintf("%s/registrations/%s/%s.json",
			h.content.baseURL, id.Normalized(), ver.Normalized())
		catalogURL := fmt.Sprintf("%s/catalog/%s/%s.json",
			h.content.baseURL, id.Normalized(), ver.Normalized())
		page.Items = append(page.Items, registrationLeaf{
			ID: leafURL,
			CatalogEntry: catalogEntry{
				ID:        catalogURL,
				PackageID: displayID.String(),
				Version:   ver.Normalized(),
			},
			Listed:         true,
			PackageContent: h.content.PackageContentURL(identity),
		})
	}
	index.Count = 1
	index.Items = append(index.Items, page)
	return index, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
