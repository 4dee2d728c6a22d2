package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "List the rule sets known to the catalog",
	Long: `List every rule set the catalog can resolve: the embedded TR-181
dictionary, *_rules.yaml files from --rulesets-dir, and rule sets saved
through the API when --db-url points at a database.`,
	RunE: runRulesets,
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
}

func runRulesets(cmd *cobra.Command, args []string) error {
	queries, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	cat := newCatalog(queries)
	entries, err := cat.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tORIGIN\tDESCRIPTION")
	for _, e := range entries {
		desc := e.Description
		if e.LoadError != "" {
			desc = "load error: " + e.LoadError
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Version, e.Origin, desc)
	}
	return w.Flush()
}
