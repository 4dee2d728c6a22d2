// internal/extract/extract.go

// Package extract generalizes concrete report keys into wildcard metric
// patterns and renders the result as pattern lists, rule-set drafts, and
// annotation tables.
package extract

import (
	"fmt"
	"sort"

	"github.com/solatis/cpereport/internal/types"
)

/*
 * Wildcard pattern extraction.
 *
 * Generalization replaces every instance index in a path with the "*"
 * wildcard, so Device.WiFi.Radio.1.Stats.BytesSent and its Radio.2
 * sibling collapse into one pattern. Extraction runs generalization over
 * a whole flat report, dedupes, and tags each pattern with a category
 * from the TR-181/TR-098 taxonomy. Groups keep their concrete source
 * keys for audit.
 *
 * Generalization is idempotent over serialized forms: "*" parses back as
 * a name segment, never an index, so a second pass changes nothing.
 */

// Generalize replaces every index segment of the path with the "*"
// wildcard. Name segments pass through as literals.
func Generalize(path types.Path) types.Pattern {
	segs := make([]types.PatternSegment, 0, len(path))
	for _, seg := range path {
		if seg.IsIndex {
			segs = append(segs, types.WildcardSegment(types.WildcardStar))
		} else {
			segs = append(segs, types.LiteralSegment(seg.Name))
		}
	}
	return types.Pattern{Segments: segs}
}

// PatternGroup is one generalized pattern with the concrete report keys
// that produced it.
type PatternGroup struct {
	Pattern   string   `json:"pattern"`
	Category  string   `json:"category"`
	Instances int      `json:"instances"`
	Sources   []string `json:"sources"`
}

// Extraction is the deduplicated outcome of generalizing a report.
type Extraction struct {
	Patterns   []PatternGroup `json:"patterns"`
	ReportKeys int            `json:"report_keys"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// Extract generalizes every key of the report, deduplicates the results,
// and groups them under category labels. Patterns and their source lists
// come out lexically sorted, so reports with the same keys extract
// byte-identical results regardless of key order.
func Extract(flat *types.FlatReport) *Extraction {
	ex := &Extraction{ReportKeys: flat.Len()}

	groups := make(map[string]*PatternGroup)
	for _, key := range flat.Keys() {
		path, err := types.ParsePath(key)
		if err != nil {
			ex.Warnings = append(ex.Warnings, fmt.Sprintf("skipped key %q: %v", key, err))
			continue
		}
		generalized := Generalize(path)
		pattern := generalized.String()
		group, ok := groups[pattern]
		if !ok {
			group = &PatternGroup{Pattern: pattern, Category: Categorize(generalized)}
			groups[pattern] = group
		}
		group.Sources = append(group.Sources, key)
	}

	for _, group := range groups {
		sort.Strings(group.Sources)
		group.Instances = len(group.Sources)
		ex.Patterns = append(ex.Patterns, *group)
	}
	sort.Slice(ex.Patterns, func(i, j int) bool {
		return ex.Patterns[i].Pattern < ex.Patterns[j].Pattern
	})
	return ex
}
