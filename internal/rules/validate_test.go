package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/cpereport/internal/types"
)

func compileFixture(t *testing.T, src string) *CompiledRuleSet {
	t.Helper()
	compiled, _, err := ParseAndCompile([]byte(src))
	if err != nil {
		t.Fatalf("ParseAndCompile() error = %v", err)
	}
	return compiled
}

// Test a partial validation run: half the expected patterns present
func TestValidate(t *testing.T) {
	compiled := compileFixture(t, `
name: scenario
version: "2.0"
rules:
  - name: Device Basics
    category: Device Information
    patterns:
      - Device.DeviceInfo.SerialNumber
      - Device.DeviceInfo.UpTime
  - name: WiFi Traffic
    category: WiFi Configuration
    patterns:
      - Device.WiFi.Radio.*.Stats.BytesSent
      - Device.WiFi.Radio.*.Stats.ErrorsSent
`)

	flat := types.NewFlatReport()
	flat.Set("Device.DeviceInfo.SerialNumber", types.StringValue("ABC123"))
	flat.Set("Device.WiFi.Radio.1.Stats.BytesSent", types.NumberValue("1000"))

	res := Validate(flat, compiled)

	if res.RuleSet != "scenario" || res.Version != "2.0" {
		t.Errorf("header = %q/%q, want scenario/2.0", res.RuleSet, res.Version)
	}
	if res.ReportKeys != 2 {
		t.Errorf("ReportKeys = %d, want 2", res.ReportKeys)
	}

	want := ValidationStats{Expected: 4, Found: 2, Missing: 2, TotalInstances: 2, SuccessRate: 50.0}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}

	if len(res.Missing) != 2 {
		t.Fatalf("Missing = %+v, want 2 entries", res.Missing)
	}
	if res.Missing[0].Pattern != "Device.DeviceInfo.UpTime" || res.Missing[0].Rule != "Device Basics" {
		t.Errorf("Missing[0] = %+v", res.Missing[0])
	}
	if res.Missing[1].Pattern != "Device.WiFi.Radio.*.Stats.ErrorsSent" || res.Missing[1].Rule != "WiFi Traffic" {
		t.Errorf("Missing[1] = %+v", res.Missing[1])
	}

	if len(res.Rules) != 2 || res.Rules[0].Rule != "Device Basics" || res.Rules[1].Rule != "WiFi Traffic" {
		t.Errorf("rule order not preserved: %+v", res.Rules)
	}
	if res.Rules[1].Category != "WiFi Configuration" {
		t.Errorf("Rules[1].Category = %q", res.Rules[1].Category)
	}
}

// Test that one wildcard pattern over several instances counts once as
// found but records every instance
func TestValidate_FoundVersusInstances(t *testing.T) {
	compiled := compileFixture(t, `
name: instances
rules:
  - name: Radio Traffic
    patterns:
      - Device.WiFi.Radio.*.Stats.BytesSent
`)

	flat := types.NewFlatReport()
	flat.Set("Device.WiFi.Radio.1.Stats.BytesSent", types.NumberValue("1"))
	flat.Set("Device.WiFi.Radio.2.Stats.BytesSent", types.NumberValue("2"))
	flat.Set("Device.WiFi.SSID.1.Name", types.StringValue("home"))
	flat.Set("Device.WiFi.Radio.3.Stats.BytesSent", types.NumberValue("3"))

	res := Validate(flat, compiled)

	want := ValidationStats{Expected: 1, Found: 1, Missing: 0, TotalInstances: 3, SuccessRate: 100.0}
	if res.Stats != want {
		t.Errorf("Stats = %+v, want %+v", res.Stats, want)
	}

	pr := res.Rules[0].Patterns[0]
	if !pr.Found || pr.Instances != 3 {
		t.Errorf("pattern result = %+v, want found with 3 instances", pr)
	}
	wantMatches := []string{
		"Device.WiFi.Radio.1.Stats.BytesSent",
		"Device.WiFi.Radio.2.Stats.BytesSent",
		"Device.WiFi.Radio.3.Stats.BytesSent",
	}
	if len(pr.Matches) != len(wantMatches) {
		t.Fatalf("Matches = %v, want %v", pr.Matches, wantMatches)
	}
	for i := range wantMatches {
		if pr.Matches[i] != wantMatches[i] {
			t.Errorf("Matches[%d] = %q, want %q", i, pr.Matches[i], wantMatches[i])
		}
	}
}

// Test the empty rule set edge: zero expected, rate zero, missing renders
// as an empty list
func TestValidate_NothingExpected(t *testing.T) {
	flat := types.NewFlatReport()
	flat.Set("Device.DeviceInfo.UpTime", types.NumberValue("7"))

	res := Validate(flat, &CompiledRuleSet{Name: "hollow"})

	if res.Stats.Expected != 0 || res.Stats.SuccessRate != 0 {
		t.Errorf("Stats = %+v, want zero expected and zero rate", res.Stats)
	}

	out, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"missing":[]`) {
		t.Errorf("Marshal() = %s, want missing rendered as []", out)
	}
}

// Property-based test: validation aggregates stay consistent
func TestValidate_PropertyStatsConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("found+missing == expected and rate in [0,100]", prop.ForAll(
		func(reportSize int, patternCount int, seed int) bool {
			flat := types.NewFlatReport()
			for i := 0; i < reportSize; i++ {
				flat.Set(fmt.Sprintf("Device.X%d.Value", i), types.NumberValue("1"))
			}

			rule := types.Rule{Name: "generated"}
			for j := 0; j < patternCount; j++ {
				if (seed+j)%4 == 0 {
					rule.Patterns = append(rule.Patterns, "Device.*.Value")
				} else {
					rule.Patterns = append(rule.Patterns, fmt.Sprintf("Device.X%d.Value", (seed+j)%(reportSize+3)))
				}
			}
			compiled, _, err := Compile(&types.RuleSet{Name: "p", Rules: []types.Rule{rule}})
			if err != nil {
				return false
			}

			res := Validate(flat, compiled)
			s := res.Stats
			if s.Found+s.Missing != s.Expected {
				return false
			}
			if s.SuccessRate < 0 || s.SuccessRate > 100 {
				return false
			}
			if s.TotalInstances < s.Found {
				return false
			}
			return len(res.Missing) == s.Missing
		},
		gen.IntRange(1, 20),
		gen.IntRange(1, 10),
		gen.IntRange(0, 1<<30),
	))

	properties.TestingRun(t)
}

// Test markdown rendering of a validation result
func TestRenderValidationMarkdown(t *testing.T) {
	compiled := compileFixture(t, `
name: scenario
version: "2.0"
rules:
  - name: Device Basics
    category: Device Information
    patterns:
      - Device.DeviceInfo.SerialNumber
      - Device.DeviceInfo.UpTime
`)

	flat := types.NewFlatReport()
	flat.Set("Device.DeviceInfo.SerialNumber", types.StringValue("ABC123"))

	res := Validate(flat, compiled)
	res.Warnings = []string{"rule set \"scenario\": rule \"Dropped\": no patterns"}

	generatedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	got := RenderValidationMarkdown(res, generatedAt)

	wantFragments := []string{
		"# Metrics Validation Report",
		"**Rule set:** scenario (version 2.0)",
		"**Generated:** 2025-03-04 05:06:07 UTC",
		"**Report keys:** 1",
		"| 2 | 1 | 1 | 1 | 50.0% |",
		"## Device Basics (Device Information)",
		"| `Device.DeviceInfo.SerialNumber` | yes | 1 |",
		"| `Device.DeviceInfo.UpTime` | no | 0 |",
		"## Missing Metrics",
		"| `Device.DeviceInfo.UpTime` | Device Basics |",
		"## Warnings",
		"- rule set \"scenario\": rule \"Dropped\": no patterns",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(got, fragment) {
			t.Errorf("RenderValidationMarkdown() missing fragment %q", fragment)
		}
	}

	if again := RenderValidationMarkdown(res, generatedAt); again != got {
		t.Error("RenderValidationMarkdown() not deterministic")
	}
}
