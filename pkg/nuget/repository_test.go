// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/datawire/dlib/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget"
	"github.com/tobyv/nugetd/pkg/testutil"
)

func allKeys(t *testing.T, storage blob.Storage) []string {
	t.Helper()
	keys, err := storage.List(context.Background(), blob.Key(""))
	require.NoError(t, err)
	ret := make([]string, 0, len(keys))
	for _, key := range keys {
		ret = append(ret, key.String())
	}
	sort.Strings(ret)
	return ret
}

func TestRepositoryAdd(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	storage := blob.NewMemory()
	repo := nuget.NewRepository(storage)

	identity, err := repo.Add(ctx, testutil.BuildNupkg(t, "Foo", "1.0.0"))
	require.NoError(t, err)
	assert.Equal(t, "foo:1.0.0", identity.String())

	assert.Equal(t, []string{
		"foo/1.0.0/foo.1.0.0.nupkg",
		"foo/1.0.0/foo.1.0.0.nupkg.sha512",
		"foo/1.0.0/foo.1.0.0.nuspec",
		"foo/index.json",
	}, allKeys(t, storage))

	index, err := storage.Value(ctx, blob.Key("foo/index.json"))
	require.NoError(t, err)
	testutil.AssertEqualJSON(t, []byte(`{"versions":["1.0.0"]}`), index)
}

func TestRepositoryAddDuplicate(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	storage := blob.NewMemory()
	repo := nuget.NewRepository(storage)

	content := testutil.BuildNupkg(t, "Foo", "1.0.0")
	_, err := repo.Add(ctx, content)
	require.NoError(t, err)
	before := allKeys(t, storage)

	_, err = repo.Add(ctx, content)
	assert.True(t, errors.Is(err, nuget.ErrVersionExists))
	assert.Equal(t, before, allKeys(t, storage))

	// Equivalent version spellings collide too.
	_, err = repo.Add(ctx, testutil.BuildNupkg(t, "Foo", "1.0.0.0"))
	assert.True(t, errors.Is(err, nuget.ErrVersionExists))
	assert.Equal(t, before, allKeys(t, storage))
}

func TestRepositoryAddSecondVersion(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	storage := blob.NewMemory()
	repo := nuget.NewRepository(storage)

	_, err := repo.Add(ctx, testutil.BuildNupkg(t, "Foo", "1.1.0"))
	require.NoError(t, err)
	_, err = repo.Add(ctx, testutil.BuildNupkg(t, "Foo", "1.0.0"))
	require.NoError(t, err)

	index, err := storage.Value(ctx, blob.Key("foo/index.json"))
	require.NoError(t, err)
	testutil.AssertEqualJSON(t, []byte(`{"versions":["1.0.0","1.1.0"]}`), index)
}

func TestRepositoryAddInvalid(t *testing.T) {
	t.Parallel()
	testcases := map[string]func(t *testing.T) []byte{
		"not-a-zip": func(t *testing.T) []byte {
			return []byte("not a package")
		},
		"no-nuspec": func(t *testing.T) []byte {
			return testutil.BuildZip(t, map[string][]byte{
				"readme.txt": []byte("hi"),
			})
		},
		"bad-version": func(t *testing.T) []byte {
			return testutil.BuildZip(t, map[string][]byte{
				"foo.nuspec": testutil.NuspecXML("foo", "1"),
			})
		},
	}
	for name, build := range testcases {
		build := build
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := dlog.NewTestContext(t, false)
			storage := blob.NewMemory()
			repo := nuget.NewRepository(storage)

			_, err := repo.Add(ctx, build(t))
			assert.True(t, errors.Is(err, nuget.ErrInvalidPackage))

			// Nothing committed, and the staged blob is cleaned up.
			assert.Empty(t, allKeys(t, storage))
		})
	}
}

func TestRepositoryAddConcurrent(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	storage := blob.NewMemory()
	repo := nuget.NewRepository(storage)

	const writers = 8
	contents := make([][]byte, writers)
	for i := range contents {
		contents[i] = testutil.BuildNupkg(t, "Foo", fmt.Sprintf("1.%d.0", i))
	}
	var wg sync.WaitGroup
	for _, content := range contents {
		content := content
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Add(ctx, content)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	id, err := nuget.NewPackageID("foo")
	require.NoError(t, err)
	versions, err := repo.Versions(ctx, id)
	require.NoError(t, err)
	expected := make([]string, writers)
	for i := range expected {
		expected[i] = fmt.Sprintf("1.%d.0", i)
	}
	assert.Equal(t, expected, versionStrings(versions))
}

func TestRepositoryNuspec(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	repo := nuget.NewRepository(blob.NewMemory())

	_, err := repo.Add(ctx, testutil.BuildNupkg(t, "Newtonsoft.Json", "12.0.3"))
	require.NoError(t, err)

	nuspec, err := repo.Nuspec(ctx, identity(t, "Newtonsoft.Json", "12.0.3"))
	require.NoError(t, err)
	id, err := nuspec.PackageID()
	require.NoError(t, err)
	// Original casing survives the round trip.
	assert.Equal(t, "Newtonsoft.Json", id.String())

	_, err = repo.Nuspec(ctx, identity(t, "absent", "1.0.0"))
	assert.True(t, errors.Is(err, nuget.ErrNotFound))
}

func TestRepositoryContent(t *testing.T) {
	t.Parallel()
	ctx := dlog.NewTestContext(t, false)
	repo := nuget.NewRepository(blob.NewMemory())

	content := testutil.BuildNupkg(t, "foo", "1.0.0")
	_, err := repo.Add(ctx, content)
	require.NoError(t, err)

	data, err := repo.Content(ctx, blob.Key("foo/1.0.0/foo.1.0.0.nupkg"))
	require.NoError(t, err)
	assert.Equal(t, content, data)

	_, err = repo.Content(ctx, blob.Key("foo/9.9.9/foo.9.9.9.nupkg"))
	assert.True(t, errors.Is(err, nuget.ErrNotFound))
}
