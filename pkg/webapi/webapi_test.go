// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package webapi_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget"
	"github.com/tobyv/nugetd/pkg/testutil"
	"github.com/tobyv/nugetd/pkg/webapi"
)

const baseURL = "https://repo.example"

func newHandler() *webapi.Handler {
	return webapi.NewHandler(nuget.NewRepository(blob.NewMemory()), baseURL)
}

func do(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = req.WithContext(dlog.NewTestContext(t, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func pushRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("package", "package.nupkg")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/package", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func push(t *testing.T, handler http.Handler, id, version string) {
	t.Helper()
	rec := do(t, handler, pushRequest(t, testutil.BuildNupkg(t, id, version)))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestPublish(t *testing.T) {
	t.Parallel()
	handler := newHandler()

	rec := do(t, handler, pushRequest(t, testutil.BuildNupkg(t, "Foo", "1.0.0")))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Same identity again.
	rec = do(t, handler, pushRequest(t, testutil.BuildNupkg(t, "Foo", "1.0.0")))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Garbage payload.
	rec = do(t, handler, pushRequest(t, []byte("not a package")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not multipart at all.
	req := httptest.NewRequest(http.MethodPut, "/package", bytes.NewReader([]byte("raw")))
	rec = do(t, handler, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	push(t, handler, "foo", "1.0.0")

	paths := map[string]string{
		"/package":                           http.MethodPut,
		"/registrations/foo/index.json":      http.MethodGet,
		"/content/foo/index.json":            http.MethodGet,
		"/content/foo/1.0.0/foo.1.0.0.nupkg": http.MethodGet,
	}
	for path, allow := range paths {
		rec := do(t, handler, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "POST %s", path)
		assert.Equal(t, allow, rec.Header().Get("Allow"), "POST %s", path)
	}
}

func TestNotFoundPaths(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	for _, path := range []string{
		"/",
		"/registrations",
		"/registrations/foo",
		"/registrations/foo/1.0.0.json",
		"/registrations/foo%20bar/index.json",
		"/content/foo",
	} {
		rec := do(t, handler, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, "GET %s", path)
	}
}

func TestRegistrationIndex(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	push(t, handler, "Newtonsoft.Json", "12.0.3")

	rec := do(t, handler, httptest.NewRequest(http.MethodGet, "/registrations/newtonsoft.json/index.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// Casing of the id in the URL does not matter; the document (and the
	// URLs inside it) always uses the normalized id.
	mixedRec := do(t, handler, httptest.NewRequest(http.MethodGet, "/registrations/Newtonsoft.Json/index.json", nil))
	require.Equal(t, http.StatusOK, mixedRec.Code)
	assert.Equal(t, rec.Body.String(), mixedRec.Body.String())

	testutil.AssertEqualJSON(t, []byte(`{
		"count": 1,
		"items": [{
			"@id": "https://repo.example/registrations/newtonsoft.json/index.json",
			"count": 1,
			"lower": "12.0.3",
			"upper": "12.0.3",
			"items": [{
				"@id": "https://repo.example/registrations/newtonsoft.json/12.0.3.json",
				"catalogEntry": {
					"@id": "https://repo.example/catalog/newtonsoft.json/12.0.3.json",
					"id": "Newtonsoft.Json",
					"version": "12.0.3"
				},
				"listed": true,
				"packageContent": "https://repo.example/content/newtonsoft.json/12.0.3/newtonsoft.json.12.0.3.nupkg"
			}]
		}]
	}`), rec.Body.Bytes())
}

func TestRegistrationIndexMultipleVersions(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	push(t, handler, "foo", "1.1.0")
	push(t, handler, "foo", "1.0.0")
	push(t, handler, "foo", "1.2.0-alpha")

	rec := do(t, handler, httptest.NewRequest(http.MethodGet, "/registrations/foo/index.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var index struct {
		Count int `json:"count"`
		Items []struct {
			Count int    `json:"count"`
			Lower string `json:"lower"`
			Upper string `json:"upper"`
			Items []struct {
				CatalogEntry struct {
					Version string `json:"version"`
				} `json:"catalogEntry"`
			} `json:"items"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	require.Equal(t, 1, index.Count)
	require.Len(t, index.Items, 1)
	page := index.Items[0]
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, "1.0.0", page.Lower)
	assert.Equal(t, "1.2.0-alpha", page.Upper)
	got := make([]string, 0, len(page.Items))
	for _, leaf := range page.Items {
		got = append(got, leaf.CatalogEntry.Version)
	}
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.2.0-alpha"}, got)
}

func TestRegistrationIndexEmpty(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	rec := do(t, handler, httptest.NewRequest(http.MethodGet, "/registrations/never-pushed/index.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.AssertEqualJSON(t, []byte(`{"count":0,"items":[]}`), rec.Body.Bytes())
}

func TestContentIndex(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	push(t, handler, "Foo", "1.1.0")
	push(t, handler, "Foo", "1.0.0")

	rec := do(t, handler, httptest.NewRequest(http.MethodGet, "/content/foo/index.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	testutil.AssertEqualJSON(t, []byte(`{"versions":["1.0.0","1.1.0"]}`), rec.Body.Bytes())

	rec = do(t, handler, httptest.NewRequest(http.MethodGet, "/content/absent/index.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContentFile(t *testing.T) {
	t.Parallel()
	handler := newHandler()
	content := testutil.BuildNupkg(t, "Foo", "1.0.0")
	rec := do(t, handler, pushRequest(t, content))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, handler, httptest.NewRequest(http.MethodGet, "/content/foo/1.0.0/foo.1.0.0.nupkg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, content, rec.Body.Bytes())

	// Casing in the URL is forgiven.
	rec = do(t, handler, httptest.NewRequest(http.MethodGet, "/content/Foo/1.0.0/Foo.1.0.0.nupkg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, httptest.NewRequest(http.MethodGet, "/content/foo/1.0.0/foo.1.0.0.nuspec", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, handler, httptest.NewRequest(http.MethodGet, "/content/foo/9.9.9/foo.9.9.9.nupkg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
