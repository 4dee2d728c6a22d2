// internal/rules/match.go

// Package rules matches metric patterns against report paths and validates
// flat reports against rule sets. Pattern and rule-set syntax lives in
// internal/types; this package holds the matching and validation logic.
package rules

import "github.com/solatis/cpereport/internal/types"

/*
 * Pattern matching.
 *
 * A pattern matches a path iff the segment counts are equal and every
 * pattern segment accepts its path segment: wildcards accept any one
 * segment, literals compare lexically against the path segment's
 * serialized form. Serialized comparison makes the literal "1" match
 * instance index 1 regardless of how the path was built. There are no
 * prefix matches; "Device.WiFi" never matches "Device.WiFi.Radio".
 *
 * Matching is total: any pattern against any path returns a boolean,
 * never an error. Mismatches short-circuit on the first failing segment.
 */

// Match reports whether pattern matches path.
func Match(pattern types.Pattern, path types.Path) bool {
	if len(pattern.Segments) != len(path) {
		return false
	}
	for i, seg := range pattern.Segments {
		if seg.Wildcard {
			continue
		}
		if seg.Literal != path[i].String() {
			return false
		}
	}
	return true
}

// MatchKey parses a serialized key and matches it. Unparseable keys match
// nothing.
func MatchKey(pattern types.Pattern, key string) bool {
	path, err := types.ParsePath(key)
	if err != nil {
		return false
	}
	return Match(pattern, path)
}

// FindMatches returns the report keys the pattern matches, in report
// display order.
func FindMatches(pattern types.Pattern, flat *types.FlatReport) []string {
	var matches []string
	for _, key := range flat.Keys() {
		if MatchKey(pattern, key) {
			matches = append(matches, key)
		}
	}
	return matches
}
