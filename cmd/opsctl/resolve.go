package main

import (
	"github.com/spf13/cobra"
)

var resolveNotes string

var resolveCmd = &cobra.Command{
	Use:   "resolve <errorID>",
	Short: "Mark an operational error as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		client, err := buildClient()
		if err != nil {
			return err
		}

		if err := client.ResolveError(ctx, args[0], resolveNotes); err != nil {
			return err
		}

		return printJSON(map[string]any{
			"error_id": args[0],
			"resolved": true,
		})
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveNotes, "notes", "", "resolution notes for the audit trail")
}
