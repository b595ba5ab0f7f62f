package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xela07ax/leadops-console/internal/audit"
	"github.com/xela07ax/leadops-console/internal/backend"
	"github.com/xela07ax/leadops-console/internal/console/handler"
	"github.com/xela07ax/leadops-console/internal/console/server"
	"github.com/xela07ax/leadops-console/internal/console/service"
	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
	"github.com/xela07ax/leadops-console/internal/repository/postgres"
	"github.com/xela07ax/leadops-console/internal/signals"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	mt := metrics.NewMetrics(reg)

	// 3. Необязательный Redis: сигналы + тёплый старт
	var (
		notifier service.Notifier
		hub      *signals.Hub
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		hub = signals.NewHub(rdb, cfg.Redis.SnapshotTTL, logger)
		notifier = hub
	} else {
		logger.Info("redis disabled, running without signals and warm start")
	}

	// 4. Необязательный Postgres: журнал действий оператора
	var (
		auditor audit.Auditor = audit.Discard{}
		auditH  *handler.AuditHandler
	)
	if cfg.Database.URL != "" {
		repo, err := postgres.NewAuditRepo(cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal("failed to open audit storage", zap.Error(err))
		}
		defer repo.Close()

		// Проверяем соединение с таймаутом
		pingCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
		if err := repo.Ping(pingCtx); err != nil {
			cancel()
			logger.Fatal("audit storage unreachable", zap.Error(err))
		}
		if err := repo.EnsureSchema(pingCtx); err != nil {
			cancel()
			logger.Fatal("failed to ensure audit schema", zap.Error(err))
		}
		cancel()

		trail := audit.NewTrail(repo, mt, logger, cfg.Audit)
		trail.Start()
		defer trail.Stop()

		auditor = trail
		auditH = handler.NewAuditHandler(repo)
	} else {
		logger.Info("database disabled, operator audit trail is off")
	}

	// 5. Сборка ядра (Dependency Injection)
	client := backend.NewClient(cfg.Backend, mt, logger)
	store := service.NewDiagnosticsStore(client, notifier, auditor, mt, logger)
	dispatcher := service.NewActionDispatcher(client, store, notifier, auditor, mt, logger)
	poller := service.NewPoller(store, cfg.Poller.HealthInterval, mt, logger)

	// Тёплый старт: прошлый снимок из кэша до первого живого опроса
	if hub != nil {
		if snapshot, ok := hub.LoadSnapshot(appCtx); ok && store.SeedHealth(snapshot) {
			logger.Info("seeded health view from cached snapshot",
				zap.Time("last_updated", snapshot.LastUpdated))
		}
	}

	// 6. HTTP-поверхность
	consoleAPI := server.NewConsoleServer(
		cfg,
		logger,
		reg,
		handler.NewDashboardHandler(store),
		handler.NewErrorsHandler(store),
		handler.NewLeadHandler(store),
		handler.NewActionsHandler(dispatcher),
		handler.NewProxyHandler(client),
		auditH,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      consoleAPI,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. Запуск: поллер + сервер, остановка по сигналу
	poller.Start()

	g, gCtx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("console stopping...")

		// Даем 5 секунд на завершение запросов
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// 8. Упорядоченная остановка: сервер уже молчит, дальше фон.
	// Журнал действий дольёт буфер в деферах.
	poller.Stop()
	store.Close()

	if err != nil {
		logger.Error("console exited with error", zap.Error(err))
		return
	}
	logger.Info("console exited properly")
}
