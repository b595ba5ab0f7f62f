package domain

import "time"

// Статусы агрегированного здоровья. Набор открытый: бэкенд может
// прислать значение вне списка, показываем его как есть.
const (
	HealthStatusHealthy  = "HEALTHY"
	HealthStatusDegraded = "DEGRADED"
	HealthStatusCritical = "CRITICAL"
	HealthStatusUnknown  = "UNKNOWN"
)

// SystemHealth Снимок здоровья бэкенда. Заменяется целиком при каждом
// успешном обновлении, частичных патчей нет.
type SystemHealth struct {
	HealthScore float64     `json:"health_score"` // Агрегированный балл [0,100], алгоритм на стороне бэкенда
	Status      string      `json:"status"`
	ErrorCounts ErrorCounts `json:"error_counts"`
	TaskStats   TaskStats   `json:"task_stats"`
	LastUpdated time.Time   `json:"last_updated"`
}

type ErrorCounts struct {
	CriticalLastHour int `json:"critical_last_hour"`
	HighLastHour     int `json:"high_last_hour"`
	TotalUnresolved  int `json:"total_unresolved"`
}

type TaskStats struct {
	TotalLastHour  int     `json:"total_last_hour"`
	FailedLastHour int     `json:"failed_last_hour"`
	SuccessRate    float64 `json:"success_rate"` // [0,100]
}
