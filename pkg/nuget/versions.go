// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package nuget

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/nuget/semver"
)

// Versions is a package's version index: the list of stored versions, sorted
// ascending and unique by normalized form.  Versions is immutable; Add
// returns a new value.
type Versions struct {
	all []*semver.Version
}

// versionsDoc is the on-disk shape: {"versions":["1.0.0", ...]}.
type versionsDoc struct {
	Versions []string `json:"versions"`
}

// NewVersions returns an empty index.
func NewVersions() *Versions {
	return &Versions{}
}

// ParseVersions loads an index document.  A document that is not valid JSON,
// or that lists an invalid version, is an error; a missing document should be
// mapped to NewVersions by the caller instead of being passed here.
func ParseVersions(data []byte) (*Versions, error) {
	var doc versionsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt version index: %w", err)
	}
	ret := &Versions{}
	for _, str := range doc.Versions {
		ver, err := semver.Parse(str)
		if err != nil {
			return nil, fmt.Errorf("corrupt version index: %w", err)
		}
		ret.all = append(ret.all, ver)
	}
	ret.normalize()
	return ret, nil
}

func (v *Versions) normalize() {
	sort.SliceStable(v.all, func(i, j int) bool {
		return v.all[i].Cmp(v.all[j]) < 0
	})
	deduped := v.all[:0]
	seen := make(map[string]bool, len(v.all))
	for _, ver := range v.all {
		norm := ver.Normalized()
		if seen[norm] {
			continue
		}
		seen[norm] = true
		deduped = append(deduped, ver)
	}
	v.all = deduped
}

// Add returns a new index that also contains ver.
func (v *Versions) Add(ver *semver.Version) *Versions {
	ret := &Versions{
		all: make([]*semver.Version, 0, len(v.all)+1),
	}
	ret.all = append(ret.all, v.all...)
	ret.all = append(ret.all, ver)
	ret.normalize()
	return ret
}

// All returns the versions in ascending order.
func (v *Versions) All() []*semver.Version {
	return v.all
}

// Empty reports whether no versions are stored.
func (v *Versions) Empty() bool {
	return len(v.all) == 0
}

// Save serializes the index and writes it at key.
func (v *Versions) Save(ctx context.Context, storage blob.Storage, key blob.Key) error {
	doc := versionsDoc{
		Versions: make([]string, 0, len(v.all)),
	}
	for _, ver := range v.all {
		doc.Versions = append(doc.Versions, ver.Normalized())
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return storage.Save(ctx, key, data)
}
