// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds assertion helpers shared by the test suites.
package testutil

import (
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
)

//nolint:gochecknoglobals // Would be 'const'.
var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// AssertEqualJSON checks that two JSON documents are semantically equal
// (ignoring key order and whitespace), failing the test with a readable diff
// when they are not.
func AssertEqualJSON(t *testing.T, exp, act []byte) bool {
	t.Helper()

	var expVal, actVal interface{}
	if err := json.Unmarshal(exp, &expVal); err != nil {
		t.Errorf("expected document is not JSON: %v", err)
		return false
	}
	if err := json.Unmarshal(act, &actVal); err != nil {
		t.Errorf("actual document is not JSON: %v\n%s", err, act)
		return false
	}

	expStr := spewConfig.Sdump(expVal)
	actStr := spewConfig.Sdump(actVal)
	if expStr == actStr {
		return true
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expStr),
		B:        difflib.SplitLines(actStr),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  2,
	})
	t.Errorf("JSON diff:\n%s", diff)
	return false
}
