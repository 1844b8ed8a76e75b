package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// reconcileCmd aligns a document file (or stdin) against the schema.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile [document]",
	Short: "Reconcile a JSON or YAML document against the schema",
	Long: `Reconcile aligns a document against the schema and prints the result
as JSON: matched values under the schema's original key spellings, plus
any unmatched or errored keys. Reads stdin when no document path is
given or the path is "-".`,
	Example: `  jsonmend reconcile --schema schema.json reply.json
  cat reply.json | jsonmend reconcile --schema schema.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		raw, err := readInput(cmd, path)
		if err != nil {
			return fmt.Errorf("reading document: %w", err)
		}

		client, err := newClient(cmd, false)
		if err != nil {
			return err
		}

		result, err := client.Reconcile(cmd.Context(), raw)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if !result.Complete() {
			cmd.SilenceUsage = true
			return fmt.Errorf("%d keys left unmatched, %d in error", len(result.Unmatched), len(result.Errors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
