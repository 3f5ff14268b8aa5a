// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

// Package semver implements SemVer 2.0 version strings with the NuGet
// extensions: an optional fourth release component ("revision"), and
// arbitrary-precision release numbers.
//
// https://semver.org/spec/v2.0.0.html
// https://learn.microsoft.com/en-us/nuget/concepts/package-versioning
package semver

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// ErrInvalid is the error reported for strings that do not satisfy the
// version grammar.
var ErrInvalid = errors.New("invalid version")

// A prerelease identifier is alphanumerics and hyphens; purely numeric
// identifiers must not have leading zeros.  Build metadata identifiers allow
// leading zeros.
const reIdent = `(?:0|[1-9][0-9]*|[0-9]*[A-Za-z-][0-9A-Za-z-]*)`

var reVersion = regexp.MustCompile(`^` +
	`(?P<release>[0-9]+(?:\.[0-9]+){1,3})` +
	`(?:-(?P<pre>` + reIdent + `(?:\.` + reIdent + `)*))?` +
	`(?:\+(?P<build>[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
	`$`)

// Version is a parsed version string.  The zero Version is not meaningful;
// use Parse.
type Version struct {
	original string
	release  []*big.Int // 2-4 components; leading zeros already stripped
	pre      []string   // dot-separated prerelease identifiers, verbatim
	build    string     // build metadata, verbatim; ignored for ordering
}

// Parse validates a version string.  Unlike several other version schemes,
// the grammar here is strict: a bare "1" (fewer than two release components)
// is invalid, as are empty, underscored, or leading-zero-numeric prerelease
// identifiers.
func Parse(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalid, str)
	}

	ver := &Version{
		original: str,
		build:    match[reVersion.SubexpIndex("build")],
	}
	for _, segStr := range strings.Split(match[reVersion.SubexpIndex("release")], ".") {
		seg, ok := new(big.Int).SetString(segStr, 10)
		if !ok {
			// Unreachable: the regexp only matches digits.
			return nil, fmt.Errorf("%w: %q", ErrInvalid, str)
		}
		ver.release = append(ver.release, seg)
	}
	if pre := match[reVersion.SubexpIndex("pre")]; pre != "" {
		ver.pre = strings.Split(pre, ".")
	}
	return ver, nil
}

// String returns the original, unnormalized string that was parsed.
func (v *Version) String() string {
	return v.original
}

// Normalized returns the canonical representation: release components without
// leading zeros, a trailing zero fourth component dropped, the prerelease
// kept verbatim, and the build metadata removed.
func (v *Version) Normalized() string {
	var ret strings.Builder
	release := v.release
	if len(release) == 4 && release[3].Sign() == 0 {
		release = release[:3]
	}
	for i, seg := range release {
		if i > 0 {
			ret.WriteByte('.')
		}
		ret.WriteString(seg.String())
	}
	if len(v.pre) > 0 {
		ret.WriteByte('-')
		ret.WriteString(strings.Join(v.pre, "."))
	}
	return ret.String()
}

func (v *Version) releaseSegment(n int) *big.Int {
	if n < len(v.release) {
		return v.release[n]
	}
	return big.NewInt(0)
}

func cmpRelease(a, b *Version) int {
	// Missing trailing components count as 0, so 1.0 == 1.0.0 == 1.0.0.0.
	for i := 0; i < len(a.release) || i < len(b.release); i++ {
		if d := a.releaseSegment(i).Cmp(b.releaseSegment(i)); d != 0 {
			return d
		}
	}
	return 0
}

// isNumericIdent reports whether a prerelease identifier is purely digits.
// big.Int.SetString would also accept a leading sign, but an identifier like
// "-1" is alphanumeric, not numeric.
func isNumericIdent(str string) bool {
	for i := 0; i < len(str); i++ {
		if str[i] < '0' || str[i] > '9' {
			return false
		}
	}
	return len(str) > 0
}

func cmpPreIdent(a, b string) int {
	aNum := isNumericIdent(a)
	bNum := isNumericIdent(b)
	switch {
	case aNum && bNum:
		aInt, _ := new(big.Int).SetString(a, 10)
		bInt, _ := new(big.Int).SetString(b, 10)
		return aInt.Cmp(bInt)
	case aNum:
		// Numeric identifiers sort before alphanumeric ones.
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func cmpPre(a, b *Version) int {
	// A prerelease sorts before the corresponding release.
	switch {
	case len(a.pre) == 0 && len(b.pre) == 0:
		return 0
	case len(a.pre) == 0:
		return 1
	case len(b.pre) == 0:
		return -1
	}
	for i := 0; i < len(a.pre) && i < len(b.pre); i++ {
		if d := cmpPreIdent(a.pre[i], b.pre[i]); d != 0 {
			return d
		}
	}
	// All shared identifiers equal; the shorter list is less.
	return len(a.pre) - len(b.pre)
}

// Cmp returns a number < 0 if version 'a' is less than version 'b', > 0 if
// 'a' is greater than 'b', or 0 if they are equal.  Build metadata does not
// participate: Cmp("1.0.0+a", "1.0.0+b") == 0.
func (a *Version) Cmp(b *Version) int {
	if d := cmpRelease(a, b); d != 0 {
		return d
	}
	return cmpPre(a, b)
}
