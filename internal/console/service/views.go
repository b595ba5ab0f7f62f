package service

import "github.com/xela07ax/leadops-console/internal/domain"

// Снимки состояния стора для вью-слоя. Срезы и указатели отдаются без
// копирования: стор заменяет их целиком и никогда не правит на месте.

type DashboardView struct {
	Health        *domain.SystemHealth   `json:"health"`
	HealthLoading bool                   `json:"health_loading"`
	HealthError   string                 `json:"health_error,omitempty"`
	Errors        []domain.SystemError   `json:"errors"`
	ErrorsLoading bool                   `json:"errors_loading"`
	ErrorsError   string                 `json:"errors_error,omitempty"`
	Lead          *domain.LeadDiagnostic `json:"lead,omitempty"`
	LeadLoading   bool                   `json:"lead_loading"`
	LeadError     string                 `json:"lead_error,omitempty"`
	Filter        domain.FilterSelection `json:"filter"`
}

type HealthView struct {
	Health  *domain.SystemHealth `json:"health"`
	Loading bool                 `json:"loading"`
	Error   string               `json:"error,omitempty"`
}

type ErrorsView struct {
	Errors  []domain.SystemError   `json:"errors"`
	Loading bool                   `json:"loading"`
	Error   string                 `json:"error,omitempty"`
	Filter  domain.FilterSelection `json:"filter"`
}

// Dashboard Полный снимок: все три вью плюс активный фильтр.
func (s *DiagnosticsStore) Dashboard() DashboardView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DashboardView{
		Health:        s.health,
		HealthLoading: s.healthLoading,
		HealthError:   s.healthErr,
		Errors:        s.errs,
		ErrorsLoading: s.errorsLoading,
		ErrorsError:   s.errorsErr,
		Lead:          s.lead,
		LeadLoading:   s.leadLoading,
		LeadError:     s.leadErr,
		Filter:        s.filter,
	}
}

// HealthView Вью здоровья.
func (s *DiagnosticsStore) HealthView() HealthView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return HealthView{Health: s.health, Loading: s.healthLoading, Error: s.healthErr}
}

// ErrorsView Вью журнала ошибок.
func (s *DiagnosticsStore) ErrorsView() ErrorsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ErrorsView{Errors: s.errs, Loading: s.errorsLoading, Error: s.errorsErr, Filter: s.filter}
}
