// internal/rules/render.go
package rules

import (
	"fmt"
	"strings"
	"time"
)

/*
 * Validation report rendering.
 *
 * The markdown form is what engineers attach to firmware tickets: summary
 * numbers up front, per-rule tables in rule-set order, missing patterns
 * last. Output depends only on the result and the timestamp, so repeated
 * renders diff clean. The JSON form is just the ValidationResult struct.
 */

// RenderValidationMarkdown renders a validation result as a markdown
// document.
func RenderValidationMarkdown(res *ValidationResult, generatedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Metrics Validation Report\n\n")
	sb.WriteString(fmt.Sprintf("**Rule set:** %s", res.RuleSet))
	if res.Version != "" {
		sb.WriteString(fmt.Sprintf(" (version %s)", res.Version))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	sb.WriteString(fmt.Sprintf("**Report keys:** %d\n\n", res.ReportKeys))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Expected | Found | Missing | Instances | Success Rate |\n")
	sb.WriteString("|----------|-------|---------|-----------|--------------|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %.1f%% |\n\n",
		res.Stats.Expected, res.Stats.Found, res.Stats.Missing,
		res.Stats.TotalInstances, res.Stats.SuccessRate))

	for _, rule := range res.Rules {
		sb.WriteString(fmt.Sprintf("## %s", rule.Rule))
		if rule.Category != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", rule.Category))
		}
		sb.WriteString("\n\n")
		sb.WriteString("| Pattern | Found | Instances |\n")
		sb.WriteString("|---------|-------|-----------|\n")
		for _, pr := range rule.Patterns {
			mark := "no"
			if pr.Found {
				mark = "yes"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d |\n", pr.Pattern, mark, pr.Instances))
		}
		sb.WriteString("\n")
	}

	if len(res.Missing) > 0 {
		sb.WriteString("## Missing Metrics\n\n")
		sb.WriteString("| Pattern | Rule |\n")
		sb.WriteString("|---------|------|\n")
		for _, m := range res.Missing {
			sb.WriteString(fmt.Sprintf("| `%s` | %s |\n", m.Pattern, m.Rule))
		}
		sb.WriteString("\n")
	}

	if len(res.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range res.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}

	return sb.String()
}
