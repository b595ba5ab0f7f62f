package domain

import "time"

// TaskRecord Строка журнала фоновых задач бэкенда. Консоль показывает
// журнал как есть, без собственного состояния.
type TaskRecord struct {
	TaskID      string     `json:"task_id"`
	TaskType    string     `json:"task_type"`
	Status      string     `json:"status"`
	LeadID      string     `json:"lead_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"` // nil, пока задача не завершена
	Error       string     `json:"error,omitempty"`
}

// SearchHit Результат пробного векторного поиска для отладочной панели.
type SearchHit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}
