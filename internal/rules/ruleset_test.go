package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/solatis/cpereport/internal/types"
)

// Test parsing a well-formed rule-set document
func TestParseRuleSet(t *testing.T) {
	src := []byte(`
name: tr181-core
description: Core TR-181 device metrics
version: "1.2"
rules:
  - name: Device Serial
    description: Serial number must be reported
    category: Device Information
    patterns:
      - Device.DeviceInfo.SerialNumber
  - name: Radio Traffic
    category: WiFi Configuration
    patterns:
      - Device.WiFi.Radio.*.Stats.BytesSent
      - Device.WiFi.Radio.*.Stats.BytesReceived
`)

	rs, warnings, err := ParseRuleSet(src)
	if err != nil {
		t.Fatalf("ParseRuleSet() error = %v, wantErr false", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("ParseRuleSet() warnings = %v, want none", warnings)
	}
	if rs.Name != "tr181-core" || rs.Version != "1.2" {
		t.Errorf("ParseRuleSet() header = %q/%q, want tr181-core/1.2", rs.Name, rs.Version)
	}
	if len(rs.Rules) != 2 {
		t.Fatalf("ParseRuleSet() rules = %d, want 2", len(rs.Rules))
	}
	if rs.Rules[0].Name != "Device Serial" || rs.Rules[1].Name != "Radio Traffic" {
		t.Errorf("rule order = %q, %q", rs.Rules[0].Name, rs.Rules[1].Name)
	}
	if len(rs.Rules[1].Patterns) != 2 {
		t.Errorf("Radio Traffic patterns = %d, want 2", len(rs.Rules[1].Patterns))
	}
	if rs.Rules[1].Category != "WiFi Configuration" {
		t.Errorf("Radio Traffic category = %q", rs.Rules[1].Category)
	}
}

// Test that broken rule entries skip with warnings while the rest survive
func TestParseRuleSet_SkipsBrokenRules(t *testing.T) {
	src := []byte(`
name: mixed
rules:
  - name: Good Rule
    patterns:
      - Device.DeviceInfo.UpTime
  - description: no name on this one
    patterns:
      - Device.DeviceInfo.SoftwareVersion
  - name: Empty Rule
    patterns: []
  - name: Mixed Patterns
    patterns:
      - Device.WiFi.Radio.*.Enable
      - 42
  - name: All Bad
    patterns:
      - [not, a, string]
`)

	rs, warnings, err := ParseRuleSet(src)
	if err != nil {
		t.Fatalf("ParseRuleSet() error = %v, wantErr false", err)
	}

	var names []string
	for _, r := range rs.Rules {
		names = append(names, r.Name)
	}
	want := []string{"Good Rule", "Mixed Patterns"}
	if len(names) != len(want) {
		t.Fatalf("surviving rules = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("surviving rules[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if len(rs.Rules[1].Patterns) != 1 {
		t.Errorf("Mixed Patterns kept %d patterns, want 1", len(rs.Rules[1].Patterns))
	}

	wantWarnings := []string{
		`rule set "mixed": rule "rule 1": missing name`,
		`rule set "mixed": rule "Empty Rule": no patterns`,
		"is not a string",
		"is not a string",
		`rule set "mixed": rule "All Bad": no usable patterns`,
	}
	if len(warnings) != len(wantWarnings) {
		t.Fatalf("warnings = %v, want %d entries", warnings, len(wantWarnings))
	}
	for i, substr := range wantWarnings {
		if !strings.Contains(warnings[i], substr) {
			t.Errorf("warnings[%d] = %q, want containing %q", i, warnings[i], substr)
		}
	}
}

// Test document-level failures
func TestParseRuleSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "not yaml",
			src:     "{\n  not yaml",
			wantErr: "not a rule-set document",
		},
		{
			name:    "scalar document",
			src:     `"just a string"`,
			wantErr: "not a rule-set document",
		},
		{
			name:    "missing name",
			src:     "rules:\n  - name: X\n    patterns: [A.B]\n",
			wantErr: "missing name",
		},
		{
			name:    "no rules",
			src:     "name: empty\n",
			wantErr: "no rules",
		},
		{
			name:    "all rules skipped",
			src:     "name: hollow\nrules:\n  - name: X\n    patterns: []\n",
			wantErr: "no usable rules",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseRuleSet([]byte(tt.src))
			if err == nil {
				t.Fatalf("ParseRuleSet() error = nil, wantErr %q", tt.wantErr)
			}
			var parseErr *types.RuleSetParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("ParseRuleSet() error = %T, want *types.RuleSetParseError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseRuleSet() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// Test the size and count guards
func TestParseRuleSet_Limits(t *testing.T) {
	oversized := make([]byte, types.MaxRuleSetBytes+1)
	if _, _, err := ParseRuleSet(oversized); !errors.Is(err, types.ErrRuleSetTooLarge) {
		t.Errorf("ParseRuleSet(oversized) error = %v, want ErrRuleSetTooLarge", err)
	}

	var b strings.Builder
	b.WriteString("name: huge\nrules:\n")
	for i := 0; i <= types.MaxRulesPerSet; i++ {
		b.WriteString("  - name: r\n    patterns: [A.B]\n")
	}
	if _, _, err := ParseRuleSet([]byte(b.String())); !errors.Is(err, types.ErrTooManyRules) {
		t.Errorf("ParseRuleSet(too many rules) error = %v, want ErrTooManyRules", err)
	}
}

// Test pattern compilation tolerance
func TestCompile(t *testing.T) {
	rs := &types.RuleSet{
		Name: "compiled",
		Rules: []types.Rule{
			{Name: "Fine", Patterns: []string{"Device.WiFi.Radio.*.Enable"}},
			{Name: "Half", Patterns: []string{"Device..Broken", "Device.DeviceInfo.UpTime"}},
			{Name: "Hopeless", Patterns: []string{"Device..Broken", ""}},
		},
	}

	compiled, warnings, err := Compile(rs)
	if err != nil {
		t.Fatalf("Compile() error = %v, wantErr false", err)
	}
	if len(compiled.Rules) != 2 {
		t.Fatalf("Compile() rules = %d, want 2", len(compiled.Rules))
	}
	if compiled.Rules[0].Name != "Fine" || compiled.Rules[1].Name != "Half" {
		t.Errorf("compiled rules = %q, %q", compiled.Rules[0].Name, compiled.Rules[1].Name)
	}
	if len(compiled.Rules[1].Patterns) != 1 {
		t.Errorf("Half kept %d patterns, want 1", len(compiled.Rules[1].Patterns))
	}

	// One warning per bad pattern plus the dropped rule.
	if len(warnings) != 4 {
		t.Errorf("Compile() warnings = %v, want 4 entries", warnings)
	}
}

// Test that a rule set losing every rule at compile time errors out
func TestCompile_NoUsableRules(t *testing.T) {
	rs := &types.RuleSet{
		Name:  "doomed",
		Rules: []types.Rule{{Name: "Only", Patterns: []string{"..", ""}}},
	}
	_, _, err := Compile(rs)
	if err == nil {
		t.Fatal("Compile() error = nil, wantErr true")
	}
	if !strings.Contains(err.Error(), "no usable rules") {
		t.Errorf("Compile() error = %q, want containing %q", err, "no usable rules")
	}
}

// Test the combined entry point concatenates warnings from both phases
func TestParseAndCompile(t *testing.T) {
	src := []byte(`
name: both-phases
rules:
  - name: Keeps
    patterns:
      - Device.DeviceInfo.UpTime
  - name: Structural Skip
    patterns: []
  - name: Syntax Skip
    patterns:
      - Device..Broken
`)

	compiled, warnings, err := ParseAndCompile(src)
	if err != nil {
		t.Fatalf("ParseAndCompile() error = %v, wantErr false", err)
	}
	if len(compiled.Rules) != 1 || compiled.Rules[0].Name != "Keeps" {
		t.Fatalf("ParseAndCompile() rules = %+v, want only Keeps", compiled.Rules)
	}

	// Structural skip from the parse phase, then pattern and rule skips
	// from the compile phase.
	if len(warnings) != 3 {
		t.Fatalf("ParseAndCompile() warnings = %v, want 3 entries", warnings)
	}
	if !strings.Contains(warnings[0], "no patterns") {
		t.Errorf("warnings[0] = %q, want the parse-phase skip first", warnings[0])
	}
}
