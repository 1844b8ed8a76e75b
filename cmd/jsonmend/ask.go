package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// askCmd queries a generative backend and reconciles its reply.
var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Query a generative backend and reconcile its reply",
	Long: `Ask sends a query to the configured backend (OpenAI or Gemini,
whichever API key is set), requests an answer shaped like the schema's
example document, and reconciles the reply.`,
	Example: `  jsonmend ask --schema person.json "Who founded the company?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd, true)
		if err != nil {
			return err
		}

		result, err := client.Ask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
