package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var actionParams []string

var actionCmd = &cobra.Command{
	Use:   "action <name>",
	Short: "Dispatch a maintenance action to the backend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		params, err := parseParams(actionParams)
		if err != nil {
			return err
		}

		client, err := buildClient()
		if err != nil {
			return err
		}

		result, err := client.ExecuteAction(ctx, args[0], params)
		if err != nil {
			return err
		}

		return printJSON(map[string]any{
			"action": args[0],
			"result": result,
		})
	},
}

func init() {
	actionCmd.Flags().StringArrayVar(&actionParams, "param", nil, "action parameter as key=value, repeatable")
}

// parseParams Разбирает пары key=value. Значения сперва пробуем прочитать
// как JSON, чтобы числа и булевы не уезжали на бэкенд строками.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}
