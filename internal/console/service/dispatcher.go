package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/audit"
	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

// ErrBlankAction Пустое имя действия отклоняется до похода в сеть.
var ErrBlankAction = errors.New("action name must not be blank")

// ActionDispatcher Выполняет именованные одноразовые действия на
// бэкенде. Без истории и без отмены: действие либо выполнилось, либо
// нет, отчёт уходит вызывающему синхронно.
type ActionDispatcher struct {
	gw       BackendGateway
	store    *DiagnosticsStore
	notifier Notifier
	auditor  audit.Auditor
	mt       *metrics.Metrics
	logger   *zap.Logger
}

func NewActionDispatcher(gw BackendGateway, store *DiagnosticsStore, notifier Notifier, auditor audit.Auditor, mt *metrics.Metrics, logger *zap.Logger) *ActionDispatcher {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if auditor == nil {
		auditor = audit.Discard{}
	}
	return &ActionDispatcher{
		gw:       gw,
		store:    store,
		notifier: notifier,
		auditor:  auditor,
		mt:       mt,
		logger:   logger.Named("action-dispatcher"),
	}
}

// Dispatch Успех — отчёт о результате и немедленный RefreshHealth:
// действия меняют состояние системы, дашборд обязан пересинхронизироваться.
// Неудача — только сообщение, состояние консоли не трогается и здоровье
// не перечитывается.
func (d *ActionDispatcher) Dispatch(ctx context.Context, name string, params map[string]any) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrBlankAction
	}

	started := time.Now()
	result, err := d.gw.ExecuteAction(ctx, name, params)

	ev := audit.Event{
		ID:         uuid.New().String(),
		TraceID:    infra.TraceIDFromContext(ctx),
		Kind:       audit.KindExecuteAction,
		Subject:    name,
		Params:     params,
		DurationMs: time.Since(started).Milliseconds(),
	}

	if err != nil {
		ev.Status = audit.StatusFailed
		ev.Error = err.Error()
		d.auditor.Log(ev)
		d.notifier.PublishActionOutcome(ctx, name, audit.StatusFailed)
		d.mt.ActionsTotal.WithLabelValues(name, "failure").Inc()
		d.logger.Warn("action dispatch failed", zap.String("action", name), zap.Error(err))
		return "", err
	}

	ev.Status = audit.StatusSuccess
	ev.Result = result
	d.auditor.Log(ev)
	d.notifier.PublishActionOutcome(ctx, name, audit.StatusSuccess)
	d.mt.ActionsTotal.WithLabelValues(name, "success").Inc()
	d.logger.Info("action dispatched",
		zap.String("action", name),
		zap.String("result", result))

	// Система после действия уже другая — перечитываем здоровье сразу
	d.store.RefreshHealth(ctx)

	return result, nil
}
