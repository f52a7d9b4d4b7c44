package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/gleaner/export"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <result.json>",
		Short:       "Check a saved JSON result against the result schema",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read result: %w", err)
			}
			if err := export.Validate(data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: result valid\n", args[0])
			return nil
		},
	}
}
