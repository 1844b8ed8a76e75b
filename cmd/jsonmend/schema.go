package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// exampleCmd prints the schema's placeholder example document.
var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example document in the schema's shape",
	Long: `Example renders a JSON document with placeholder values showing the
shape the schema expects, under the schema's original key spellings.
Useful for embedding in prompts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd, false)
		if err != nil {
			return err
		}
		example, err := client.ExampleDocument()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), example)
		return nil
	},
}

// instructionsCmd prints the schema's per-field prompt guidance.
var instructionsCmd = &cobra.Command{
	Use:   "instructions",
	Short: "Print the schema's per-field prompt guidance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd, false)
		if err != nil {
			return err
		}
		instructions, err := client.FieldInstructions()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), instructions)
		return nil
	},
}

// validateCmd checks a document against the schema without reconciling.
var validateCmd = &cobra.Command{
	Use:   "validate [document]",
	Short: "Validate a document against the schema's structural rules",
	Args:  cobra.MaximumNArgs(1),
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
		if err := client.ValidateDocument(raw); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "document is valid")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(instructionsCmd)
	rootCmd.AddCommand(validateCmd)
}
