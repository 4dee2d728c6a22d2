// internal/rules/validate.go
package rules

import "github.com/solatis/cpereport/internal/types"

/*
 * Report validation against a compiled rule set.
 *
 * Every pattern is checked against every report key. A pattern is "found"
 * when at least one key matches; the instance count records how many did,
 * which differs for wildcard patterns over multi-instance objects (one
 * found pattern, N instances). Results keep the rule set's rule order so
 * category grouping survives into rendered reports.
 *
 * The success rate is the percentage of expected patterns found, 0 when
 * the rule set expects nothing. Validation itself never errors: parse and
 * compile problems were already reported as warnings, and matching is
 * total.
 */

// PatternResult is the outcome for one expected pattern.
type PatternResult struct {
	Pattern   string   `json:"pattern"`
	Found     bool     `json:"found"`
	Instances int      `json:"instances"`
	Matches   []string `json:"matches,omitempty"`
}

// RuleResult groups pattern outcomes under their rule, preserving the
// rule set's order and category labels.
type RuleResult struct {
	Rule     string          `json:"rule"`
	Category string          `json:"category,omitempty"`
	Patterns []PatternResult `json:"patterns"`
}

// MissingPattern names an expected pattern with no instances, with the
// rule it came from.
type MissingPattern struct {
	Pattern  string `json:"pattern"`
	Rule     string `json:"rule"`
	Category string `json:"category,omitempty"`
}

// ValidationStats aggregates a validation run.
type ValidationStats struct {
	Expected       int     `json:"total_expected"`
	Found          int     `json:"total_found"`
	Missing        int     `json:"total_missing"`
	TotalInstances int     `json:"total_instances"`
	SuccessRate    float64 `json:"success_rate"`
}

// ValidationResult is the full outcome of validating one report.
type ValidationResult struct {
	RuleSet    string           `json:"ruleset"`
	Version    string           `json:"version,omitempty"`
	ReportKeys int              `json:"report_keys"`
	Stats      ValidationStats  `json:"stats"`
	Rules      []RuleResult     `json:"rules"`
	Missing    []MissingPattern `json:"missing"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Validate checks a flat report against a compiled rule set.
// Callers thread parse/compile warnings into the result's Warnings field.
func Validate(flat *types.FlatReport, rs *CompiledRuleSet) *ValidationResult {
	result := &ValidationResult{
		RuleSet:    rs.Name,
		Version:    rs.Version,
		ReportKeys: flat.Len(),
		Rules:      make([]RuleResult, 0, len(rs.Rules)),
		Missing:    []MissingPattern{},
	}

	// Parse every key once; patterns only compare against serialized
	// segments, so unparseable keys (impossible past Normalize) just
	// match nothing.
	keys := flat.Keys()
	paths := make([]types.Path, len(keys))
	for i, key := range keys {
		if p, err := types.ParsePath(key); err == nil {
			paths[i] = p
		}
	}

	for _, rule := range rs.Rules {
		rr := RuleResult{
			Rule:     rule.Name,
			Category: rule.Category,
			Patterns: make([]PatternResult, 0, len(rule.Patterns)),
		}
		for _, pattern := range rule.Patterns {
			pr := PatternResult{Pattern: pattern.String()}
			for i, path := range paths {
				if path == nil {
					continue
				}
				if Match(pattern, path) {
					pr.Matches = append(pr.Matches, keys[i])
				}
			}
			pr.Instances = len(pr.Matches)
			pr.Found = pr.Instances > 0

			result.Stats.Expected++
			result.Stats.TotalInstances += pr.Instances
			if pr.Found {
				result.Stats.Found++
			} else {
				result.Stats.Missing++
				result.Missing = append(result.Missing, MissingPattern{
					Pattern:  pr.Pattern,
					Rule:     rule.Name,
					Category: rule.Category,
				})
			}
			rr.Patterns = append(rr.Patterns, pr)
		}
		result.Rules = append(result.Rules, rr)
	}

	if result.Stats.Expected > 0 {
		result.Stats.SuccessRate = float64(result.Stats.Found) / float64(result.Stats.Expected) * 100
	}
	return result
}
