package signals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/domain"
	"github.com/xela07ax/leadops-console/internal/infra"
)

// Hub Транслирует события консоли в Redis (Pub/Sub) и держит последний
// снимок здоровья для тёплого старта. Все операции необязательные:
// сбой Redis деградирует консоль до «без сигналов», но не роняет её.
type Hub struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewHub(rdb *redis.Client, snapshotTTL time.Duration, log *zap.Logger) *Hub {
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}
	return &Hub{rdb: rdb, ttl: snapshotTTL, log: log.Named("signals")}
}

// PublishStatusTransition Сигнал «статус системы сменился» ("OLD:NEW").
func (h *Hub) PublishStatusTransition(ctx context.Context, from, to string) {
	payload := from + ":" + to
	if err := h.rdb.Publish(ctx, infra.RedisChanStatusTransitions, payload).Err(); err != nil {
		h.log.Warn("failed to publish status transition",
			zap.String("payload", payload), zap.Error(err))
	}
}

// PublishActionOutcome Сигнал об исходе действия оператора ("name:SUCCESS|FAILED").
func (h *Hub) PublishActionOutcome(ctx context.Context, action, outcome string) {
	payload := action + ":" + outcome
	if err := h.rdb.Publish(ctx, infra.RedisChanActionOutcomes, payload).Err(); err != nil {
		h.log.Warn("failed to publish action outcome",
			zap.String("payload", payload), zap.Error(err))
	}
}

// StoreSnapshot Кладёт применённый снимок здоровья в Redis с TTL.
func (h *Hub) StoreSnapshot(ctx context.Context, health *domain.SystemHealth) {
	raw, err := json.Marshal(health)
	if err != nil {
		return
	}
	if err := h.rdb.Set(ctx, infra.RedisKeyHealthSnapshot, raw, h.ttl).Err(); err != nil {
		h.log.Warn("failed to store health snapshot", zap.Error(err))
	}
}

// LoadSnapshot Достаёт снимок для тёплого старта. false — снимка нет.
func (h *Hub) LoadSnapshot(ctx context.Context) (*domain.SystemHealth, bool) {
	raw, err := h.rdb.Get(ctx, infra.RedisKeyHealthSnapshot).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.log.Warn("failed to load health snapshot", zap.Error(err))
		}
		return nil, false
	}

	var health domain.SystemHealth
	if err := json.Unmarshal(raw, &health); err != nil {
		h.log.Warn("stored health snapshot is corrupted", zap.Error(err))
		return nil, false
	}
	return &health, true
}
