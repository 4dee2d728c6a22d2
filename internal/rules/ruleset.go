// internal/rules/ruleset.go
package rules

import (
	"fmt"

	"github.com/solatis/cpereport/internal/types"
	"gopkg.in/yaml.v3"
)

/*
 * Rule-set parsing and compilation.
 *
 * ParseRuleSet decodes the YAML wire shape; Compile turns the wire shape
 * into pre-parsed patterns ready for validation. Both are tolerant at the
 * item level: a rule without patterns, a non-string pattern entry, or a
 * pattern that fails to parse skips that item and adds a warning, so one
 * bad line in a hand-edited dictionary does not take down the rest.
 * Document-level problems (not YAML, no name, no usable rules) abort.
 *
 * Patterns decode through yaml.Node rather than string so a non-string
 * entry is reported with its line number instead of failing the whole
 * document inside the YAML decoder.
 */

// ruleSetDoc mirrors the on-disk YAML shape during decoding.
type ruleSetDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Version     string    `yaml:"version"`
	Rules       []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Category    string      `yaml:"category"`
	Patterns    []yaml.Node `yaml:"patterns"`
}

// ParseRuleSet decodes a rule-set document, skipping structurally invalid
// rules and pattern entries with warnings. The returned rule set carries
// only the surviving entries.
func ParseRuleSet(src []byte) (*types.RuleSet, []string, error) {
	if len(src) > types.MaxRuleSetBytes {
		return nil, nil, types.ErrRuleSetTooLarge
	}

	var doc ruleSetDoc
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, nil, &types.RuleSetParseError{Reason: fmt.Sprintf("not a rule-set document: %v", err)}
	}
	if doc.Name == "" {
		return nil, nil, &types.RuleSetParseError{Reason: "missing name"}
	}
	if len(doc.Rules) == 0 {
		return nil, nil, &types.RuleSetParseError{RuleSet: doc.Name, Reason: "no rules"}
	}
	if len(doc.Rules) > types.MaxRulesPerSet {
		return nil, nil, fmt.Errorf("rule set %q: %w", doc.Name, types.ErrTooManyRules)
	}

	rs := &types.RuleSet{
		Name:        doc.Name,
		Description: doc.Description,
		Version:     doc.Version,
	}
	var warnings []string

	for i, rd := range doc.Rules {
		ruleName := rd.Name
		if ruleName == "" {
			warnings = append(warnings, skipWarning(doc.Name, fmt.Sprintf("rule %d", i), "missing name"))
			continue
		}
		if len(rd.Patterns) == 0 {
			warnings = append(warnings, skipWarning(doc.Name, ruleName, "no patterns"))
			continue
		}
		if len(rd.Patterns) > types.MaxPatternsPerRule {
			warnings = append(warnings, skipWarning(doc.Name, ruleName, "too many patterns"))
			continue
		}

		rule := types.Rule{
			Name:        ruleName,
			Description: rd.Description,
			Category:    rd.Category,
		}
		for j, node := range rd.Patterns {
			if node.Kind != yaml.ScalarNode || node.Tag != "!!str" {
				warnings = append(warnings, skipWarning(doc.Name, ruleName,
					fmt.Sprintf("pattern %d (line %d) is not a string", j, node.Line)))
				continue
			}
			rule.Patterns = append(rule.Patterns, node.Value)
		}
		if len(rule.Patterns) == 0 {
			warnings = append(warnings, skipWarning(doc.Name, ruleName, "no usable patterns"))
			continue
		}
		rs.Rules = append(rs.Rules, rule)
	}

	if len(rs.Rules) == 0 {
		return nil, warnings, &types.RuleSetParseError{RuleSet: doc.Name, Reason: "no usable rules"}
	}
	return rs, warnings, nil
}

// CompiledRule is a rule with its patterns parsed for matching.
type CompiledRule struct {
	Name        string
	Description string
	Category    string
	Patterns    []types.Pattern
}

// CompiledRuleSet is fully pre-parsed and ready for validation.
type CompiledRuleSet struct {
	Name        string
	Description string
	Version     string
	Rules       []CompiledRule
}

// Compile parses every pattern in the rule set. Patterns that fail the
// codec skip with a warning; a rule losing all its patterns skips too.
func Compile(rs *types.RuleSet) (*CompiledRuleSet, []string, error) {
	compiled := &CompiledRuleSet{
		Name:        rs.Name,
		Description: rs.Description,
		Version:     rs.Version,
		Rules:       make([]CompiledRule, 0, len(rs.Rules)),
	}
	var warnings []string

	for _, rule := range rs.Rules {
		cr := CompiledRule{
			Name:        rule.Name,
			Description: rule.Description,
			Category:    rule.Category,
		}
		for _, raw := range rule.Patterns {
			p, err := types.ParsePattern(raw)
			if err != nil {
				warnings = append(warnings, skipWarning(rs.Name, rule.Name, fmt.Sprintf("pattern %q: %v", raw, err)))
				continue
			}
			cr.Patterns = append(cr.Patterns, p)
		}
		if len(cr.Patterns) == 0 {
			warnings = append(warnings, skipWarning(rs.Name, rule.Name, "no parseable patterns"))
			continue
		}
		compiled.Rules = append(compiled.Rules, cr)
	}

	if len(compiled.Rules) == 0 {
		return nil, warnings, &types.RuleSetParseError{RuleSet: rs.Name, Reason: "no usable rules"}
	}
	return compiled, warnings, nil
}

// ParseAndCompile chains the wire and compile phases, concatenating their
// warnings. The common entry point for catalog sources and request bodies.
func ParseAndCompile(src []byte) (*CompiledRuleSet, []string, error) {
	rs, warnings, err := ParseRuleSet(src)
	if err != nil {
		return nil, warnings, err
	}
	compiled, compileWarnings, err := Compile(rs)
	warnings = append(warnings, compileWarnings...)
	if err != nil {
		return nil, warnings, err
	}
	return compiled, warnings, nil
}

func skipWarning(ruleSet, rule, reason string) string {
	e := &types.RuleSetParseError{RuleSet: ruleSet, Rule: rule, Reason: reason}
	return e.Error()
}
