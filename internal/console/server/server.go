package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/console/handler"
	"github.com/xela07ax/leadops-console/internal/infra"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Реестр метрик консоли (отдаётся на /metrics)
	registry *prometheus.Registry

	// Обработчики
	dashHandler    *handler.DashboardHandler // /api/v1/dashboard, /api/v1/health
	errorsHandler  *handler.ErrorsHandler    // /api/v1/errors
	leadHandler    *handler.LeadHandler      // /api/v1/leads
	actionsHandler *handler.ActionsHandler   // /api/v1/actions
	proxyHandler   *handler.ProxyHandler     // /api/v1/tasks, /api/v1/search
	auditHandler   *handler.AuditHandler     // /api/v1/audit (nil — журнал выключен)
}

// NewConsoleServer инициализирует HTTP-поверхность консоли со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	registry *prometheus.Registry,
	dashH *handler.DashboardHandler,
	errorsH *handler.ErrorsHandler,
	leadH *handler.LeadHandler,
	actionsH *handler.ActionsHandler,
	proxyH *handler.ProxyHandler,
	auditH *handler.AuditHandler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:         chi.NewRouter(),
		logger:         logger.Named("console-api"),
		cfg:            cfg,
		registry:       registry,
		dashHandler:    dashH,
		errorsHandler:  errorsH,
		leadHandler:    leadH,
		actionsHandler: actionsH,
		proxyHandler:   proxyH,
		auditHandler:   auditH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(infra.TracingMiddleware)

	// --- 2. Служебные роуты (мониторинг) ---
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// --- 3. API консоли (периметр закрывается снаружи, токенов нет) ---
	r.Route("/api/v1", func(r chi.Router) {
		// Дашборд «одним взглядом»
		r.Get("/dashboard", s.dashHandler.GetDashboard)
		r.Get("/health", s.dashHandler.GetHealth)

		// Журнал ошибок и фильтры
		r.Route("/errors", func(r chi.Router) {
			r.Get("/", s.errorsHandler.GetErrors)
			r.Put("/filter", s.errorsHandler.UpdateFilter)
			r.Post("/{errorID}/resolve", s.errorsHandler.Resolve)
		})

		// Диагностика лидов
		r.Get("/leads/{leadID}/diagnostics", s.leadHandler.GetDiagnostics)

		// Одноразовые действия
		r.Post("/actions", s.actionsHandler.Execute)

		// Стэйтлесс-прокси в бэкенд
		r.Get("/tasks", s.proxyHandler.GetTasks)
		r.Post("/search/probe", s.proxyHandler.SearchProbe)

		// Журнал действий оператора (Observability)
		if s.auditHandler != nil {
			r.Get("/audit", s.auditHandler.GetTrail)
		}
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
