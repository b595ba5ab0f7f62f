package audit

/*
Файл trail.go реализует журнал действий оператора (Audit Trail) —
движок для сбора и персистентности событий resolve/dispatch.

Ключевые особенности архитектуры:
- Non-blocking Logging: события уходят в неблокирующий канал, поэтому
  задержки записи в БД не влияют на время ответа консоли оператору.
- Batching & Efficiency: накопление событий в памяти и пакетная запись
  (Bulk Insert) в PostgreSQL по таймеру или при достижении лимита пачки.
- Drain Pattern & Graceful Shutdown: при остановке буфер вычитывается
  полностью; sync.WaitGroup и закрытие канала гарантируют Final Flush.
- Load Shedding: при переполнении буфера событие не теряется молча,
  а уходит в структурный лог.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

// StorageInterface определяет, куда физически будут сохраняться события
type StorageInterface interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

type Auditor interface {
	Log(event Event)
}

// Discard Заглушка для режима без БД: события просто отбрасываются.
type Discard struct{}

func (Discard) Log(Event) {}

type Trail struct {
	ch     chan Event       // Буфер для асинхронности
	repo   StorageInterface // Интерфейс для Postgres
	logger *zap.Logger
	mt     *metrics.Metrics
	wg     sync.WaitGroup

	batchSize     int
	flushInterval time.Duration

	// Защита от Log после остановки
	isClosed int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewTrail(repo StorageInterface, mt *metrics.Metrics, logger *zap.Logger, cfg infra.AuditConfig) *Trail {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Trail{
		ch:            make(chan Event, cfg.BufferSize),
		repo:          repo,
		logger:        logger.With(zap.String("mod", "audit_trail")),
		mt:            mt,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждет, пока воркер всё допишет.
func (t *Trail) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&t.isClosed, 1)

	// 2. Даем крошечную паузу, чтобы текущие Log успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Drain Pattern: воркер завершается исключительно через закрытие
	// входного канала — сперва вычитает остатки, потом финальный flush.
	t.logger.Info("stopping audit trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped gracefully")
}

func (t *Trail) Log(event Event) {
	// Таймстемп всегда проставлен
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Атомарно проверяем, не закрыт ли канал
	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("audit event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	// Стратегия Load Shedding (сброс нагрузки)
	select {
	case t.ch <- event:
		t.mt.AuditBufferFill.Set(float64(len(t.ch)))
	default:
		// Канал переполнен (Backpressure) — событие уходит в лог,
		// чтобы след действия оператора не пропал совсем
		t.logger.Error("audit_buffer_overflow",
			zap.String("kind", event.Kind),
			zap.String("subject", event.Subject),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, t.batchSize)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background, так как основной контекст может быть уже закрыт
			if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("audit flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
		t.mt.AuditBufferFill.Set(float64(len(t.ch)))
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop(): всё, что оставалось в очереди,
				// уже вычитано — финальный сброс и выход.
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= t.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
