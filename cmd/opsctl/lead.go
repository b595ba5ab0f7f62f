package main

import (
	"github.com/spf13/cobra"
)

var leadCmd = &cobra.Command{
	Use:   "lead <leadID>",
	Short: "Show the per-lead diagnostic report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		client, err := buildClient()
		if err != nil {
			return err
		}

		diag, err := client.FetchLeadDiagnostic(ctx, args[0])
		if err != nil {
			return err
		}

		return printJSON(diag)
	},
}
