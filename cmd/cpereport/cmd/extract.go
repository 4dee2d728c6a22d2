package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/extract"
	"github.com/solatis/cpereport/internal/report"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract generalized metric patterns from a report",
	Long: `Extract folds a report's keys into wildcard patterns, turning every
numeric instance index into *. The result can render as a plain list, a
rule set ready for validate --rules, or an annotated markdown worksheet.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("input", "i", "", "input report file (- for stdin)")
	extractCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	extractCmd.Flags().String("format", "auto", "input format: auto, flat, tree, or pairs")
	extractCmd.Flags().String("render", "", "render as list, rules, or markdown (default JSON)")
	extractCmd.Flags().String("name", "Extracted Metrics", "title for rules and markdown renders")
}

func runExtract(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	render, _ := cmd.Flags().GetString("render")
	name, _ := cmd.Flags().GetString("name")

	if input == "" {
		return usageErrorf("--input is required")
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

	ex := extract.Extract(norm.Flat)
	ex.Warnings = append(norm.Warnings, ex.Warnings...)
	for _, warning := range ex.Warnings {
		level.Warn(logger).Log("msg", "extraction warning", "detail", warning)
	}

	var out string
	switch render {
	case "":
		buf, err := json.MarshalIndent(ex, "", "  ")
		if err != nil {
			return err
		}
		out = string(buf) + "\n"
	case "list":
		out = extract.RenderList(ex)
	case "rules":
		out, err = extract.RenderRuleSetYAML(extract.AsRuleSet(ex, name))
		if err != nil {
			return err
		}
	case "markdown":
		out = extract.RenderMarkdown(ex, name)
	default:
		return usageErrorf(`--render must be "list", "rules", or "markdown"`)
	}

	if err := writeOutput(output, []byte(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
