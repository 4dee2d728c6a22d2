package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/report"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a report between flat and tree form",
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("input", "i", "", "input report file (- for stdin)")
	convertCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	convertCmd.Flags().String("to", "", "target form: tree or flat")
	convertCmd.Flags().String("format", "auto", "input format: auto, flat, tree, or pairs")
	convertCmd.Flags().Bool("stats", false, "log conversion statistics")
	convertCmd.Flags().Bool("sample", false, "print a capped tree preview to stderr")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	to, _ := cmd.Flags().GetString("to")
	formatName, _ := cmd.Flags().GetString("format")
	showStats, _ := cmd.Flags().GetBool("stats")
	showSample, _ := cmd.Flags().GetBool("sample")

	if input == "" {
		return usageErrorf("--input is required")
	}
	if to != "tree" && to != "flat" {
		return usageErrorf(`--to must be "tree" or "flat"`)
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
	for _, warning := range norm.Warnings {
		level.Warn(logger).Log("msg", "skipped during normalization", "detail", warning)
	}

	var result interface{}
	stats := norm.Stats
	if to == "flat" {
		result = norm.Flat
	} else {
		node, treeStats, err := report.Unflatten(norm.Flat)
		if err != nil {
			return err
		}
		result = node
		stats = treeStats
		if showSample {
			fmt.Fprintln(os.Stderr, report.Sample(node, 0, 0))
		}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if err := writeOutput(output, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if showStats {
		level.Info(logger).Log(
			"msg", "conversion complete",
			"format", norm.Format.String(),
			"leaves", stats.Leaves,
			"max_depth", stats.MaxDepth,
			"sequence_nodes", stats.SequenceNodes,
		)
	}
	return nil
}
