// Package version compares application version strings such as
// CFBundleVersion values found in receipts ("42", "2.1", "v1.4.2-beta").
package version

import (
	"strconv"
	"strings"
)

type semver struct {
	major int
	minor int
	patch int
}

// Valid reports whether v parses as a dotted numeric version.
func Valid(v string) bool {
	_, ok := parseSemver(v)
	return ok
}

// Compare returns -1, 0 or 1 as a is older than, equal to or newer than b.
// ok is false if either version does not parse.
func Compare(a, b string) (cmp int, ok bool) {
	va, okA := parseSemver(a)
	vb, okB := parseSemver(b)
	if !okA || !okB {
		return 0, false
	}
	for _, d := range [3]int{va.major - vb.major, va.minor - vb.minor, va.patch - vb.patch} {
		switch {
		case d < 0:
			return -1, true
		case d > 0:
			return 1, true
		}
	}
	return 0, true
}

// IsOutdated reports whether current is older than latest. Unparseable
// versions are never outdated.
func IsOutdated(current, latest string) bool {
	c, ok := Compare(current, latest)
	return ok && c < 0
}

func parseSemver(v string) (semver, bool) {
	s := strings.TrimSpace(v)
	s = strings.TrimPrefix(s, "v")
	s = strings.TrimPrefix(s, "V")
	if s == "" {
		return semver{}, false
	}
	if i := strings.IndexAny(s, "-+ "); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return semver{}, false
	}
	num := [3]int{}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return semver{}, false
		}
		num[i] = n
	}
	return semver{major: num[0], minor: num[1], patch: num[2]}, true
}
