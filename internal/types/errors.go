package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for cpereport operations.
var (
	// ErrNotScalar indicates a value expected to be a scalar leaf was a
	// container (object or array).
	ErrNotScalar = errors.New("value is not a scalar")

	// ErrReportTooLarge indicates a report document exceeds MaxReportBytes.
	ErrReportTooLarge = errors.New("report exceeds maximum size")

	// ErrRuleSetTooLarge indicates a rule-set document exceeds MaxRuleSetBytes.
	ErrRuleSetTooLarge = errors.New("rule set exceeds maximum size")

	// ErrTooManyRules indicates a rule set exceeds MaxRulesPerSet.
	ErrTooManyRules = errors.New("rule set has too many rules")

	// ErrIndexTooLarge indicates an instance index exceeds MaxSequenceIndex.
	ErrIndexTooLarge = errors.New("sequence index exceeds maximum")

	// ErrRuleSetNotFound indicates the named rule set is in no catalog source.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrNoStore indicates an operation needs the database store and none
	// is configured.
	ErrNoStore = errors.New("no store configured")
)

// MalformedPathError reports a dotted key or pattern that the codec cannot
// parse. Input carries the offending string verbatim.
type MalformedPathError struct {
	Input  string
	Reason string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed path %q: %s", e.Input, e.Reason)
}

// StructuralConflictError reports two flat keys that demand incompatible
// node kinds at a shared prefix, such as a leaf where a container is
// needed or an object where a sequence is needed. Both offending keys are
// carried so the caller can show the collision.
type StructuralConflictError struct {
	Path     string // the key whose insertion failed
	Conflict string // the previously inserted key it collides with
}

func (e *StructuralConflictError) Error() string {
	return fmt.Sprintf("structural conflict: %q conflicts with %q", e.Path, e.Conflict)
}

// UnsupportedShapeError reports a top-level JSON value that is neither an
// object nor an array.
type UnsupportedShapeError struct {
	Shape string // "string", "number", "boolean", "null"
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported top-level shape %s: want object or array", e.Shape)
}

// RuleSetParseError reports a structural problem in a rule-set document.
// Rule is empty for document-level failures (which abort the parse) and
// names the rule for per-rule failures (which skip that rule and continue).
type RuleSetParseError struct {
	RuleSet string
	Rule    string
	Reason  string
}

func (e *RuleSetParseError) Error() string {
	switch {
	case e.RuleSet == "":
		return fmt.Sprintf("rule set: %s", e.Reason)
	case e.Rule == "":
		return fmt.Sprintf("rule set %q: %s", e.RuleSet, e.Reason)
	default:
		return fmt.Sprintf("rule set %q: rule %q: %s", e.RuleSet, e.Rule, e.Reason)
	}
}

// JSONDecodeError reports undecodable input at the ingest boundary. Core
// conversion and matching functions operate on decoded values and never
// produce it.
type JSONDecodeError struct {
	Offset int64
	Err    error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *JSONDecodeError) Unwrap() error { return e.Err }
