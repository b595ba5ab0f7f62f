package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/metrics"
)

// Poller Явная машина состояний Idle/Active вокруг фонового опроса
// здоровья. Активация — немедленный полный прогрев (здоровье + журнал
// ошибок), затем RefreshHealth на фиксированном периоде. Тик не ждёт
// завершения предыдущего обновления: перехлёст походов разрешён, гонку
// разруливает стор по правилу «последний ответ побеждает».
type Poller struct {
	store    *DiagnosticsStore
	interval time.Duration
	mt       *metrics.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc // nil - Idle
	done   chan struct{}
}

func NewPoller(store *DiagnosticsStore, interval time.Duration, mt *metrics.Metrics, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		store:    store,
		interval: interval,
		mt:       mt,
		logger:   logger.Named("poller"),
	}
}

// Start Idle -> Active. Повторный Start — безопасный no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return // уже Active
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	p.logger.Info("poller started", zap.Duration("interval", p.interval))
}

// Stop Active -> Idle: детерминированно гасит таймер и дожидается выхода
// цикла — после возврата из Stop новые обновления не стартуют. Уже
// начатые сетевые запросы не отменяются, их поздние ответы отсекает сам
// стор. Повторный Stop — безопасный no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return // уже Idle
	}

	cancel()
	<-done
	p.logger.Info("poller stopped")
}

// Active Сообщает текущее состояние машины.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Сразу при активации: полный прогрев обоих вью. Запросы живут своей
	// жизнью и не отменяются при Stop.
	go p.store.RefreshHealth(context.WithoutCancel(ctx))
	go p.store.RefreshErrors(context.WithoutCancel(ctx))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mt.PollTicks.Inc()
			go p.store.RefreshHealth(context.WithoutCancel(ctx))
		}
	}
}
