// internal/types/rules.go
package types

import (
	"strconv"
	"strings"
)

/*
 * Domain types for metric rule sets.
 *
 * Provides RuleSet, Rule, Pattern, and PatternSegment structures used by
 * internal/rules for parsing and validation. RuleSet and Rule mirror the
 * on-disk YAML shape (patterns stay strings there); Pattern is the parsed
 * form produced by ParsePattern.
 *
 * Wildcard vocabulary: "*", "%", and "{i}" each match exactly one path
 * segment of any kind. The three spellings are interchangeable; the source
 * token is kept verbatim so rendering a pattern back out reproduces its
 * input byte for byte.
 */

// Wildcard tokens accepted in pattern segments.
const (
	WildcardStar    = "*"
	WildcardPercent = "%"
	WildcardBrace   = "{i}"
)

// IsWildcardToken reports whether tok is one of the three wildcard
// spellings. Partial forms ("Bytes*") are literals, not wildcards.
func IsWildcardToken(tok string) bool {
	return tok == WildcardStar || tok == WildcardPercent || tok == WildcardBrace
}

// PatternSegment is one component of a Pattern: a literal to compare
// against a serialized path segment, or a single-segment wildcard.
type PatternSegment struct {
	Literal  string // literal text (meaningful when !Wildcard)
	Wildcard bool   // true = matches any one segment
	Token    string // source spelling of the wildcard (meaningful when Wildcard)
}

// LiteralSegment returns a literal pattern segment.
func LiteralSegment(s string) PatternSegment { return PatternSegment{Literal: s} }

// WildcardSegment returns a wildcard pattern segment spelled as token.
func WildcardSegment(token string) PatternSegment {
	return PatternSegment{Wildcard: true, Token: token}
}

// Pattern is a parsed metric pattern: a non-empty ordered segment list.
type Pattern struct {
	Segments []PatternSegment
}

// ParsePattern splits a dotted pattern into segments, recognizing whole
// segments equal to a wildcard token. Returns *MalformedPathError for
// empty input or any empty segment, same as the path codec.
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, &MalformedPathError{Input: s, Reason: "empty pattern"}
	}
	tokens := strings.Split(s, Delimiter)
	segs := make([]PatternSegment, 0, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			return Pattern{}, &MalformedPathError{
				Input:  s,
				Reason: "empty segment at position " + strconv.Itoa(i),
			}
		}
		if IsWildcardToken(tok) {
			segs = append(segs, WildcardSegment(tok))
			continue
		}
		segs = append(segs, LiteralSegment(tok))
	}
	return Pattern{Segments: segs}, nil
}

// String renders the pattern in wire form, wildcards spelled as in the
// source. ParsePattern(p.String()) reproduces p.
func (p Pattern) String() string {
	var sb strings.Builder
	for i, seg := range p.Segments {
		if i > 0 {
			sb.WriteString(Delimiter)
		}
		if seg.Wildcard {
			sb.WriteString(seg.Token)
		} else {
			sb.WriteString(seg.Literal)
		}
	}
	return sb.String()
}

// Depth returns the segment count.
func (p Pattern) Depth() int { return len(p.Segments) }

// RuleSet is a named collection of metric rules, the unit stored in the
// catalog and fed to validation.
type RuleSet struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string `yaml:"version,omitempty" json:"version,omitempty"`
	Rules       []Rule `yaml:"rules" json:"rules"`
}

// Rule groups the expected patterns for one metric category.
type Rule struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string   `yaml:"category,omitempty" json:"category,omitempty"`
	Patterns    []string `yaml:"patterns" json:"patterns"`
}
