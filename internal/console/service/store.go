package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/audit"
	"github.com/xela07ax/leadops-console/internal/domain"
	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

// Фиксированный размер страницы журнала ошибок.
const errorFetchLimit = 20

var (
	// ErrBlankLeadID Пустой идентификатор отклоняется до похода в сеть.
	ErrBlankLeadID = errors.New("lead id must not be blank")
	// ErrStoreClosed Стор остановлен, новые операции не принимаются.
	ErrStoreClosed = errors.New("diagnostics store is closed")
)

// BackendGateway описывает, что стору нужно от клиента бэкенда
type BackendGateway interface {
	FetchHealth(ctx context.Context) (*domain.SystemHealth, []domain.SystemError, error)
	FetchErrors(ctx context.Context, filter domain.FilterSelection, limit int) ([]domain.SystemError, error)
	FetchLeadDiagnostic(ctx context.Context, leadID string) (*domain.LeadDiagnostic, error)
	ResolveError(ctx context.Context, errorID, notes string) error
	ExecuteAction(ctx context.Context, name string, params map[string]any) (string, error)
}

// Notifier Транслирует события консоли наружу: Pub/Sub сигналы и кэш
// снимка для тёплого старта.
type Notifier interface {
	PublishStatusTransition(ctx context.Context, from, to string)
	PublishActionOutcome(ctx context.Context, action, outcome string)
	StoreSnapshot(ctx context.Context, health *domain.SystemHealth)
}

// nopNotifier Заглушка для режима без Redis.
type nopNotifier struct{}

func (nopNotifier) PublishStatusTransition(context.Context, string, string) {}
func (nopNotifier) PublishActionOutcome(context.Context, string, string)    {}
func (nopNotifier) StoreSnapshot(context.Context, *domain.SystemHealth)     {}

// DiagnosticsStore Владеет всем изменяемым состоянием консоли: снимком
// здоровья, журналом ошибок, диагностикой лида, флагами загрузки и
// активным выбором фильтров. Никто другой это состояние не мутирует.
//
// Политика гонок: ответы применяются в порядке прихода под мьютексом,
// последний пришедший побеждает. Номера поколений запросов не ведутся,
// поэтому поздний устаревший ответ может перетереть свежий — это
// осознанное ограничение, а не баг.
type DiagnosticsStore struct {
	gw       BackendGateway
	notifier Notifier
	auditor  audit.Auditor
	mt       *metrics.Metrics
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool

	health *domain.SystemHealth // nil — снимка ещё не было
	errs   []domain.SystemError
	lead   *domain.LeadDiagnostic // nil — лид не смотрели либо поиск упал
	filter domain.FilterSelection

	healthLoading bool
	errorsLoading bool
	leadLoading   bool

	// Последнее сообщение об ошибке на каждое вью
	healthErr string
	errorsErr string
	leadErr   string
}

func NewDiagnosticsStore(gw BackendGateway, notifier Notifier, auditor audit.Auditor, mt *metrics.Metrics, logger *zap.Logger) *DiagnosticsStore {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if auditor == nil {
		auditor = audit.Discard{}
	}
	return &DiagnosticsStore{
		gw:       gw,
		notifier: notifier,
		auditor:  auditor,
		mt:       mt,
		logger:   logger.Named("diagnostics-store"),
		errs:     []domain.SystemError{},
		filter:   domain.DefaultFilter(),
	}
}

// RefreshHealth Обновляет снимок здоровья. Успех заменяет снимок целиком
// и перетирает журнал ошибок пачкой критических из того же ответа —
// панель «одним взглядом» всегда согласована с заголовочным баллом.
// Неудача оставляет прежний снимок и записывает сообщение. Флаг загрузки
// снимается ровно один раз на вызов в обоих исходах.
func (s *DiagnosticsStore) RefreshHealth(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.healthLoading = true
	s.healthErr = ""
	s.mu.Unlock()

	started := time.Now()
	health, critical, err := s.gw.FetchHealth(ctx)

	var prevStatus string

	s.mu.Lock()
	if s.closed {
		// Поздний ответ после Close не применяется
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.healthErr = err.Error()
	} else {
		prevStatus = domain.HealthStatusUnknown
		if s.health != nil {
			prevStatus = s.health.Status
		}
		s.health = health
		// Кросс-вью перезапись: даже пустой список критических ошибок
		// заменяет собой отфильтрованный журнал
		s.errs = critical
	}
	s.healthLoading = false
	s.mu.Unlock()

	s.observe("health", started, err)

	if err != nil {
		s.logger.Warn("health refresh failed", zap.Error(err))
		return
	}

	s.notifier.StoreSnapshot(ctx, health)
	if prevStatus != health.Status {
		s.logger.Info("system status changed",
			zap.String("from", prevStatus),
			zap.String("to", health.Status))
		s.notifier.PublishStatusTransition(ctx, prevStatus, health.Status)
	}
}

// RefreshErrors Перечитывает журнал ошибок с выбором фильтров,
// актуальным на момент вызова. Успех заменяет список, неудача оставляет
// прежний. Флаг загрузки снимается ровно один раз.
func (s *DiagnosticsStore) RefreshErrors(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.errorsLoading = true
	s.errorsErr = ""
	filter := s.filter // значение на момент вызова
	s.mu.Unlock()

	started := time.Now()
	list, err := s.gw.FetchErrors(ctx, filter, errorFetchLimit)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.errorsErr = err.Error()
	} else {
		// Порядок прихода, а не порядок отправки: последний ответ побеждает
		s.errs = list
	}
	s.errorsLoading = false
	s.mu.Unlock()

	s.observe("errors", started, err)

	if err != nil {
		s.logger.Warn("errors refresh failed", zap.Error(err))
	}
}

// LookupLead Диагностика одного лида. Пустой после обрезки идентификатор
// отклоняется без похода в сеть и не трогает состояние. Неудачный поиск
// сбрасывает диагностику в nil: устаревший результат не должен
// показываться под чужим идентификатором.
func (s *DiagnosticsStore) LookupLead(ctx context.Context, leadID string) (*domain.LeadDiagnostic, error) {
	leadID = strings.TrimSpace(leadID)
	if leadID == "" {
		return nil, ErrBlankLeadID
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	s.leadLoading = true
	s.leadErr = ""
	s.mu.Unlock()

	started := time.Now()
	diag, err := s.gw.FetchLeadDiagnostic(ctx, leadID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if err != nil {
		s.lead = nil
		s.leadErr = err.Error()
	} else {
		s.lead = diag
	}
	s.leadLoading = false
	s.mu.Unlock()

	s.observe("lead", started, err)

	if err != nil {
		s.logger.Warn("lead lookup failed", zap.String("lead_id", leadID), zap.Error(err))
		return nil, err
	}
	return diag, nil
}

// Resolve Помечает ошибку решённой на бэкенде. Оптимистичных локальных
// правок нет: успех влечёт повторную выборку журнала с фильтром,
// актуальным на этот момент, чтобы список всегда отражал правду сервера.
func (s *DiagnosticsStore) Resolve(ctx context.Context, errorID, notes string) error {
	started := time.Now()
	err := s.gw.ResolveError(ctx, errorID, notes)

	ev := audit.Event{
		ID:         uuid.New().String(),
		TraceID:    infra.TraceIDFromContext(ctx),
		Kind:       audit.KindResolveError,
		Subject:    errorID,
		Params:     map[string]any{"notes": notes},
		DurationMs: time.Since(started).Milliseconds(),
	}

	if err != nil {
		ev.Status = audit.StatusFailed
		ev.Error = err.Error()
		s.auditor.Log(ev)
		s.mt.ActionsTotal.WithLabelValues(audit.KindResolveError, "failure").Inc()
		s.logger.Warn("error resolve failed", zap.String("error_id", errorID), zap.Error(err))
		return err
	}

	ev.Status = audit.StatusSuccess
	s.auditor.Log(ev)
	s.mt.ActionsTotal.WithLabelValues(audit.KindResolveError, "success").Inc()
	s.logger.Info("error resolved", zap.String("error_id", errorID))

	// Авторитетное состояние перечитываем сразу
	s.RefreshErrors(ctx)
	return nil
}

// SetFilter Меняет выбор фильтров. Идентичное значение — не изменение:
// ни инвалидирования списка, ни похода в сеть. Изменение влечёт ровно
// одну повторную выборку журнала.
func (s *DiagnosticsStore) SetFilter(ctx context.Context, sel domain.FilterSelection) {
	s.mu.Lock()
	if s.closed || sel == s.filter {
		s.mu.Unlock()
		return
	}
	s.filter = sel
	s.mu.Unlock()

	s.RefreshErrors(ctx)
}

// Filter Текущий выбор фильтров.
func (s *DiagnosticsStore) Filter() domain.FilterSelection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SeedHealth Тёплый старт: подкладывает кэшированный снимок до первого
// живого опроса. Срабатывает только на пустом сторе — результат живого
// опроса засеянный снимок никогда не перетирает.
func (s *DiagnosticsStore) SeedHealth(snapshot *domain.SystemHealth) bool {
	if snapshot == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.health != nil {
		return false
	}
	s.health = snapshot
	return true
}

// Close Останавливает стор: новые операции не начинаются, а поздние
// ответы уже начатых запросов не применяются.
func (s *DiagnosticsStore) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.logger.Info("diagnostics store closed")
}

func (s *DiagnosticsStore) observe(view string, started time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.mt.RefreshTotal.WithLabelValues(view, outcome).Inc()
	s.mt.RefreshDuration.WithLabelValues(view).Observe(time.Since(started).Seconds())
}
