package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/leadops-console/internal/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(connString string, maxConns int) (*AuditRepo, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 15
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &AuditRepo{db: db}, nil
}

// Ping Проверка соединения на старте.
func (r *AuditRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema Создаёт таблицу журнала, если её ещё нет.
func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ops_audit (
			id          UUID PRIMARY KEY,
			trace_id    TEXT NOT NULL,
			kind        TEXT NOT NULL,
			subject     TEXT NOT NULL,
			params      JSONB,
			status      TEXT NOT NULL,
			result      TEXT,
			error       TEXT,
			duration_ms BIGINT NOT NULL,
			timestamp   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure ops_audit schema: %w", err)
	}
	return nil
}

func (r *AuditRepo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице ops_audit
	numFields := 10
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		params, _ := json.Marshal(e.Params)

		vals = append(vals,
			e.ID, e.TraceID, e.Kind, e.Subject,
			params, e.Status, e.Result, e.Error, e.DurationMs, e.Timestamp,
		)
	}

	// Убираем лишнюю запятую в конце
	query := fmt.Sprintf(
		"INSERT INTO ops_audit (id, trace_id, kind, subject, params, status, result, error, duration_ms, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchEvents Читает журнал с фильтрами для консоли.
// Пустые значения фильтров означают «все».
func (r *AuditRepo) FetchEvents(ctx context.Context, kind, status string, limit int) ([]audit.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 3)
	if kind != "" {
		args = append(args, kind)
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := "SELECT id, trace_id, kind, subject, params, status, result, error, duration_ms, timestamp FROM ops_audit"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY timestamp DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]audit.Event, 0, limit)
	for rows.Next() {
		var (
			e      audit.Event
			params []byte
			result sql.NullString
			errMsg sql.NullString
		)
		err := rows.Scan(&e.ID, &e.TraceID, &e.Kind, &e.Subject,
			&params, &e.Status, &result, &errMsg, &e.DurationMs, &e.Timestamp)
		if err != nil {
			return nil, err
		}
		if len(params) > 0 {
			_ = json.Unmarshal(params, &e.Params)
		}
		e.Result = result.String
		e.Error = errMsg.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *AuditRepo) Close() error {
	return r.db.Close()
}
