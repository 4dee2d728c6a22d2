// internal/report/detect.go
package report

import (
	"fmt"
	"strings"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Report format detection.
 *
 * The collector fleet emits three shapes:
 *   - flat namevalue: one object, scalar values, dotted keys
 *   - hierarchy: nested objects/arrays
 *   - legacy pair list: [{"Name": "...", "Value": ...}, ...]
 *
 * DetectFormat is a heuristic over the decoded document; every ingest
 * surface lets the caller override it with an explicit format. An object
 * whose values are all scalar counts as flat only when at least one key
 * carries the delimiter; an all-scalar object without dotted keys is a
 * one-level hierarchy. The empty object detects as flat.
 */

// Format identifies a report wire shape. The zero value means "detect".
type Format int

const (
	FormatAuto Format = iota
	FormatFlat
	FormatTree
	FormatPairs
)

// String returns the flag/API spelling of the format.
func (f Format) String() string {
	switch f {
	case FormatFlat:
		return "flat"
	case FormatTree:
		return "tree"
	case FormatPairs:
		return "pairs"
	default:
		return "auto"
	}
}

// ParseFormat converts a flag/API spelling to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "flat":
		return FormatFlat, nil
	case "tree":
		return FormatTree, nil
	case "pairs":
		return FormatPairs, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format %q: want auto, flat, tree, or pairs", s)
	}
}

// DetectFormat classifies a decoded JSON document.
// Non-container top levels fail with *UnsupportedShapeError.
func DetectFormat(v any) (Format, error) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return FormatFlat, nil
		}
		allScalar := true
		hasDotted := false
		for k, val := range t {
			if !types.IsScalar(val) {
				allScalar = false
			}
			if strings.Contains(k, types.Delimiter) {
				hasDotted = true
			}
		}
		if allScalar && hasDotted {
			return FormatFlat, nil
		}
		return FormatTree, nil
	case []any:
		if isPairList(t) {
			return FormatPairs, nil
		}
		return FormatTree, nil
	default:
		return FormatAuto, &types.UnsupportedShapeError{Shape: shapeOfAny(v)}
	}
}

// isPairList reports whether every element is an object carrying a Name
// field. Empty lists are not pair lists.
func isPairList(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := obj["Name"]; !ok {
			return false
		}
	}
	return true
}

// shapeOfAny names a decoded scalar's shape for UnsupportedShapeError.
func shapeOfAny(v any) string {
	val, ok := types.ValueFromAny(v)
	if !ok {
		return fmt.Sprintf("%T", v)
	}
	return shapeOfValue(val)
}
