// internal/extract/render.go
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solatis/cpereport/internal/types"
	"gopkg.in/yaml.v3"
)

/*
 * Extraction renderers.
 *
 * Three output forms over one Extraction: a plain sorted pattern list, a
 * rule-set draft that feeds straight back into validation, and a markdown
 * annotation table for the metrics dictionary. All three are pure
 * functions of the Extraction value, so repeated renders diff clean.
 */

// RenderList returns the pattern strings one per line, in the
// extraction's sorted order.
func RenderList(ex *Extraction) string {
	var sb strings.Builder
	for _, g := range ex.Patterns {
		sb.WriteString(g.Pattern)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// AsRuleSet converts an extraction into a rule-set draft: one rule per
// category, categories sorted by label, patterns sorted within each.
// The draft validates the report it was extracted from at 100%.
func AsRuleSet(ex *Extraction, name string) *types.RuleSet {
	byCategory, labels := groupByCategory(ex)

	rs := &types.RuleSet{
		Name:        name,
		Description: "Metrics extracted from report data",
		Version:     "1.0",
	}
	for _, label := range labels {
		rs.Rules = append(rs.Rules, types.Rule{
			Name:        label,
			Description: label + " metrics",
			Category:    label,
			Patterns:    byCategory[label],
		})
	}
	return rs
}

// RenderRuleSetYAML marshals a rule-set draft with a comment header.
func RenderRuleSetYAML(rs *types.RuleSet) (string, error) {
	out, err := yaml.Marshal(rs)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", rs.Name)
	sb.WriteString("# Extracted metrics from report data\n\n")
	sb.Write(out)
	return sb.String(), nil
}

// RenderMarkdown returns the metrics dictionary skeleton: one table per
// category with empty annotation columns for engineers to fill in.
func RenderMarkdown(ex *Extraction, title string) string {
	byCategory, labels := groupByCategory(ex)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	sb.WriteString("**Generated from:** report extraction\n")
	fmt.Fprintf(&sb, "**Patterns:** %d\n\n---\n\n", len(ex.Patterns))

	for _, label := range labels {
		fmt.Fprintf(&sb, "### %s\n\n", label)
		sb.WriteString("| Metric | TR-181 DataType | Output Type | DB Output Name | Notes |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, pattern := range byCategory[label] {
			fmt.Fprintf(&sb, "| `%s` |  |  |  |  |\n", pattern)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// groupByCategory splits the extraction's sorted patterns by category
// label. Per-label lists inherit the global sort order.
func groupByCategory(ex *Extraction) (map[string][]string, []string) {
	byCategory := make(map[string][]string)
	for _, g := range ex.Patterns {
		byCategory[g.Category] = append(byCategory[g.Category], g.Pattern)
	}
	labels := make([]string, 0, len(byCategory))
	for label := range byCategory {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return byCategory, labels
}
