// Package types provides domain models shared across cpereport components.
//
// The dotted-key path codec (path.go), scalar value variant (value.go),
// report containers (report.go), and rule-set shapes (rules.go) live here so
// that internal/report, internal/rules, and internal/extract can share them
// without importing each other. Conversion and matching algorithms stay in
// their own packages; this one holds data and syntax only.
package types

// Resource limits enforced at ingest boundaries to prevent DoS and keep
// memory per request bounded.
const (
	// MaxReportBytes limits a single report document. 8MB covers full
	// TR-181 dumps from multi-radio gateways; larger captures should be
	// split at the collector.
	MaxReportBytes = 8 * 1024 * 1024

	// MaxRuleSetBytes limits a rule-set document. 1MB is two orders of
	// magnitude above the largest dictionary shipped to date.
	MaxRuleSetBytes = 1024 * 1024

	// MaxRulesPerSet bounds rule iteration per validation run.
	MaxRulesPerSet = 512

	// MaxPatternsPerRule bounds pattern iteration within one rule.
	MaxPatternsPerRule = 512

	// MaxSequenceIndex caps the instance number accepted when building
	// sequence nodes. Unflattening allocates up to the highest index, so
	// an unchecked "a.4294967295.b" key would OOM the process. TR-181
	// instance numbers stay far below this.
	MaxSequenceIndex = 65535
)
