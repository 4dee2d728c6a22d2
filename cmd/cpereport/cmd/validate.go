package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/catalog"
	"github.com/solatis/cpereport/internal/report"
	"github.com/solatis/cpereport/internal/rules"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a report against expected metric patterns",
	Long: `Validate checks which expected metrics a report carries. The rule set
comes from --rules (a YAML file), --ruleset (a catalog name), or the
built-in TR-181 dictionary. Missing metrics are findings, not failures;
the command exits 0 either way.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("input", "i", "", "input report file (- for stdin)")
	validateCmd.Flags().String("ruleset", "", "catalog rule set name (default: built-in dictionary)")
	validateCmd.Flags().String("rules", "", "rule set YAML file")
	validateCmd.Flags().String("format", "auto", "input format: auto, flat, tree, or pairs")
	validateCmd.Flags().String("output", "json", "output format: json or markdown")
}

func runValidate(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	rulesetName, _ := cmd.Flags().GetString("ruleset")
	rulesFile, _ := cmd.Flags().GetString("rules")
	formatName, _ := cmd.Flags().GetString("format")
	outputFormat, _ := cmd.Flags().GetString("output")

	if input == "" {
		return usageErrorf("--input is required")
	}
	if rulesetName != "" && rulesFile != "" {
		return usageErrorf("--ruleset and --rules are mutually exclusive")
	}
	if outputFormat != "json" && outputFormat != "markdown" {
		return usageErrorf(`--output must be "json" or "markdown"`)
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		return usageErrorf("%v", err)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}

	raw, err := readInput(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	norm, err := report.Normalize(raw, format)
	if err != nil {
		return err
	}

	var compiled *rules.CompiledRuleSet
	var warnings []string
	if rulesFile != "" {
		src, err := os.ReadFile(rulesFile)
		if err != nil {
			return fmt.Errorf("failed to read rules file: %w", err)
		}
		compiled, warnings, err = rules.ParseAndCompile(src)
		if err != nil {
			return err
		}
	} else {
		queries, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		cat := newCatalog(queries)
		var loaded *catalog.Loaded
		if rulesetName != "" {
			loaded, err = cat.Load(cmd.Context(), rulesetName)
		} else {
			loaded, err = cat.LoadDefault(cmd.Context())
		}
		if err != nil {
			return err
		}

		var compileWarnings []string
		compiled, compileWarnings, err = rules.Compile(loaded.RuleSet)
		if err != nil {
			return err
		}
		warnings = append(loaded.Warnings, compileWarnings...)
	}

	res := rules.Validate(norm.Flat, compiled)
	res.Warnings = append(norm.Warnings, warnings...)
	for _, warning := range res.Warnings {
		level.Warn(logger).Log("msg", "validation warning", "detail", warning)
	}

	if outputFormat == "markdown" {
		fmt.Print(rules.RenderValidationMarkdown(res, time.Now().UTC()))
		return nil
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
