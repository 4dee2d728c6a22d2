package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show structural statistics for a report",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("input", "i", "", "input report file (- for stdin)")
	inspectCmd.Flags().String("grep", "", "list only keys containing this substring")
	inspectCmd.Flags().Bool("keys", false, "list the flat key set")
}

func runInspect(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	grep, _ := cmd.Flags().GetString("grep")
	listKeys, _ := cmd.Flags().GetBool("keys")

	if input == "" {
		return usageErrorf("--input is required")
	}

	raw, err := readInput(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	decoded, err := report.DecodeValue(raw)
	if err != nil {
		return err
	}

	resp := struct {
		Stats    report.ReportStats `json:"stats"`
		Keys     []string           `json:"keys,omitempty"`
		Warnings []string           `json:"warnings,omitempty"`
	}{Stats: report.Describe(decoded, len(raw))}

	if listKeys || grep != "" {
		norm, err := report.Normalize(raw, report.FormatAuto)
		if err != nil {
			return err
		}
		flat := norm.Flat
		if grep != "" {
			flat = flat.Filter(grep)
		}
		resp.Keys = flat.Keys()
		resp.Warnings = norm.Warnings
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
