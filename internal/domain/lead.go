package domain

// Статусы здоровья отдельного лида. В отличие от статусов системы
// здесь фиксированный набор из трёх значений.
const (
	LeadStatusHealthy  = "HEALTHY"
	LeadStatusWarning  = "WARNING"
	LeadStatusCritical = "CRITICAL"
)

// LeadDiagnostic Диагностика одного лида. Строится бэкендом заново на
// каждый запрос; результаты разных запросов никогда не мержатся.
type LeadDiagnostic struct {
	LeadID          string           `json:"lead_id"`
	HealthStatus    string           `json:"health_status"`
	Issues          []string         `json:"issues"`
	Analysis        LeadAnalysis     `json:"analysis"`
	SuccessRate     float64          `json:"success_rate"`
	Recommendations []Recommendation `json:"recommendations"`
}

type LeadAnalysis struct {
	TotalTasks     int `json:"total_tasks"`
	CompletedTasks int `json:"completed_tasks"`
	FailedTasks    int `json:"failed_tasks"`
	TotalErrors    int `json:"total_errors"`
}

// Recommendation Рекомендация по восстановлению. Action — имя
// действия, которое можно сразу отправить в Dispatcher.
type Recommendation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action,omitempty"`
	Severity    string `json:"severity"`
}
