// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package webapi serves the NuGet v3 endpoints of a nuget.Repository: package
// publish, registration metadata, and flat-container package content.
package webapi

import (
	"errors"
	"io"
	"net/http"
	"regexp"

	"github.com/datawire/dlib/dlog"

	"github.com/tobyv/nugetd/pkg/nuget"
)

var (
	reRegistration = regexp.MustCompile(`^/registrations/([^/]+)/index\.json$`)
	reContentIndex = regexp.MustCompile(`^/content/([^/]+)/index\.json$`)
	reContentFile  = regexp.MustCompile(`^/content/([^/]+)/([^/]+)/([^/]+)$`)
)

// Handler is the http.Handler for the repository's base path.
type Handler struct {
	repo    *nuget.Repository
	content *flatContainer
}

var _ http.Handler = (*Handler)(nil)

// NewHandler serves repo.  baseURL is the absolute external URL that clients
// reach this handler at (no trailing slash); it is what the URLs inside
// registration documents are derived from.
func NewHandler(repo *nuget.Repository, baseURL string) *Handler {
	return &Handler{
		repo: repo,
		content: &flatContainer{
			repo:    repo,
			baseURL: baseURL,
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/package":
		if r.Method != http.MethodPut {
			w.Header().Set("Allow", http.MethodPut)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.publish(w, r)
	case reRegistration.MatchString(path):
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.registration(w, r, reRegistration.FindStringSubmatch(path)[1])
	case reContentIndex.MatchString(path) || reContentFile.MatchString(path):
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.content.serve(w, r)
	default:
		http.NotFound(w, r)
	}
}

// publish handles PUT /package: the pushed .nupkg is the first part of a
// multipart body.
func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	content, err := firstPart(r)
	if err != nil {
		dlog.Infof(ctx, "rejecting push: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	identity, err := h.repo.Add(ctx, content)
	switch {
	case err == nil:
		dlog.Infof(ctx, "pushed %v", identity)
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, nuget.ErrInvalidPackage):
		dlog.Infof(ctx, "rejecting push: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, nuget.ErrVersionExists):
		dlog.Infof(ctx, "rejecting push: %v", err)
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		dlog.Errorf(ctx, "push failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// firstPart extracts the bytes of the first part of a multipart request
// body.
func firstPart(r *http.Request) ([]byte, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	part, err := reader.NextPart()
	if err == io.EOF {
		return nil, errors.New("empty multipart body")
	}
	if err != nil {
		return nil, err
	}
	defer part.Close()
	return io.ReadAll(part)
}
