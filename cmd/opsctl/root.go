package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/backend"
	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

var backendURL string

var rootCmd = &cobra.Command{
	Use:           "opsctl",
	Short:         "One-shot operator console for the lead-processing backend",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides config)")
	rootCmd.AddCommand(healthCmd, errorsCmd, leadCmd, resolveCmd, actionCmd)
}

// commandContext Жизненный цикл одной команды: Ctrl+C отменяет поход в бэкенд.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildClient Собирает клиент бэкенда из конфига и флагов.
// Метрики пишем в локальный реестр, логгер глушим: для одноразовой
// команды важен только вывод результата.
func buildClient() (*backend.Client, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	return backend.NewClient(cfg.Backend, metrics.NewMetrics(nil), zap.NewNop()), nil
}

// printJSON Единый формат вывода: отдаём результат как есть, в JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
