package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/xela07ax/leadops-console/internal/domain"
)

var (
	errSeverity string
	errType     string
	errResolved bool
	errLimit    int
)

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List operational errors, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		client, err := buildClient()
		if err != nil {
			return err
		}

		filter := domain.FilterSelection{
			Severity:     strings.ToUpper(errSeverity),
			ErrorType:    strings.ToUpper(errType),
			ShowResolved: errResolved,
		}
		list, err := client.FetchErrors(ctx, filter, errLimit)
		if err != nil {
			return err
		}

		return printJSON(map[string]any{"errors": list})
	},
}

func init() {
	errorsCmd.Flags().StringVar(&errSeverity, "severity", domain.FilterAll, "severity filter: ALL, CRITICAL, HIGH, MEDIUM, LOW")
	errorsCmd.Flags().StringVar(&errType, "type", domain.FilterAll, "error type filter, ALL for everything")
	errorsCmd.Flags().BoolVar(&errResolved, "resolved", false, "include resolved errors")
	errorsCmd.Flags().IntVar(&errLimit, "limit", 20, "page size")
}
