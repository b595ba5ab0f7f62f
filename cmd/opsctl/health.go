package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Fetch the current health snapshot with its bundled critical errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		client, err := buildClient()
		if err != nil {
			return err
		}

		health, critical, err := client.FetchHealth(ctx)
		if err != nil {
			return err
		}

		return printJSON(map[string]any{
			"health":          health,
			"critical_errors": critical,
		})
	},
}
