package audit

import "time"

// Виды действий оператора, попадающие в журнал.
const (
	KindResolveError  = "resolve_error"
	KindExecuteAction = "execute_action"
)

// Исходы.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	ID      string         `json:"id"`       // UUID события
	TraceID string         `json:"trace_id"` // Сквозной ID запроса
	Kind    string         `json:"kind"`     // Что делал оператор
	Subject string         `json:"subject"`  // Над чем: error_id или имя действия
	Params  map[string]any `json:"params"`   // С какими параметрами

	// Результат
	Status     string    `json:"status"` // "SUCCESS" или "FAILED"
	Result     string    `json:"result"` // Что ответил бэкенд
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"` // Время обработки
}
