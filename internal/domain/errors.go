package domain

import "time"

// Уровни серьёзности ошибок бэкенда.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// Известные типы ошибок. Набор открытый: неизвестный тип не является
// ошибкой валидации, он просто проходит насквозь.
const (
	ErrorTypeTaskProcessing = "TASK_PROCESSING"
	ErrorTypeLeadValidation = "LEAD_VALIDATION"
	ErrorTypeIntegration    = "INTEGRATION"
	ErrorTypeDatabase       = "DATABASE"
	ErrorTypeVectorSearch   = "VECTOR_SEARCH"
)

// FilterAll Сентинел «фильтр не выбран». На провод не попадает:
// клиент опускает параметр запроса целиком.
const FilterAll = "ALL"

// SystemError Запись журнала операционных ошибок. Порядок, в котором
// бэкенд вернул записи, сохраняется, на клиенте не пересортировывается.
type SystemError struct {
	ErrorID    string    `json:"error_id"`
	Timestamp  time.Time `json:"timestamp"`
	ErrorType  string    `json:"error_type"`
	Severity   string    `json:"severity"`
	Component  string    `json:"component"`
	Message    string    `json:"message"`
	LeadID     string    `json:"lead_id,omitempty"`     // Пустой, если ошибка не привязана к лиду
	BusinessID string    `json:"business_id,omitempty"` // Пустой, если ошибка не привязана к бизнесу
	Resolved   bool      `json:"resolved"`
	Traceback  string    `json:"traceback,omitempty"`
}

// FilterSelection Выбор фильтров списка ошибок. Чистое значение без
// побочных эффектов, сравнивается по значению (==).
type FilterSelection struct {
	Severity     string `json:"severity"`
	ErrorType    string `json:"error_type"`
	ShowResolved bool   `json:"show_resolved"`
}

// DefaultFilter Стартовый выбор: все уровни, все типы, без решённых.
func DefaultFilter() FilterSelection {
	return FilterSelection{Severity: FilterAll, ErrorType: FilterAll, ShowResolved: false}
}
