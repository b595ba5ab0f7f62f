package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/leadops-console/internal/domain"
	"github.com/xela07ax/leadops-console/internal/infra"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

// Client Типизированный клиент REST API бэкенда обработки лидов.
// Все походы идут через ограничитель трафика и предохранитель; ретраи
// получают только идемпотентные GET-запросы, мутации (resolve, действия)
// выполняются строго один раз.
type Client struct {
	baseURL  string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	mt       *metrics.Metrics
	log      *zap.Logger
}

func NewClient(cfg infra.BackendConfig, mt *metrics.Metrics, log *zap.Logger) *Client {
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1 // 0 у retry-go означает «бесконечно», нам такое не нужно
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
		attempts: cfg.RetryAttempts,
		mt:       mt,
		log:      log.Named("backend"),
	}

	// Настройка предохранителя
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "leadops-backend",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			state := 0.0
			if to == gobreaker.StateOpen {
				state = 1.0
			}
			c.mt.CircuitBreakerState.Set(state)
			c.log.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return c
}

// FetchHealth Снимок здоровья вместе с пачкой текущих критических ошибок.
func (c *Client) FetchHealth(ctx context.Context) (*domain.SystemHealth, []domain.SystemError, error) {
	var resp struct {
		Health         domain.SystemHealth  `json:"health"`
		CriticalErrors []domain.SystemError `json:"critical_errors"`
	}
	if err := c.getJSON(ctx, "/system/health/", nil, &resp); err != nil {
		return nil, nil, err
	}
	if resp.CriticalErrors == nil {
		resp.CriticalErrors = []domain.SystemError{}
	}
	return &resp.Health, resp.CriticalErrors, nil
}

// FetchErrors Журнал ошибок с учётом выбора фильтров. Сентинел ALL на
// провод не попадает, resolved передаётся всегда.
func (c *Client) FetchErrors(ctx context.Context, filter domain.FilterSelection, limit int) ([]domain.SystemError, error) {
	q := url.Values{}
	if filter.Severity != "" && filter.Severity != domain.FilterAll {
		q.Set("severity", filter.Severity)
	}
	if filter.ErrorType != "" && filter.ErrorType != domain.FilterAll {
		q.Set("type", filter.ErrorType)
	}
	q.Set("resolved", strconv.FormatBool(filter.ShowResolved))
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Errors []domain.SystemError `json:"errors"`
	}
	if err := c.getJSON(ctx, "/system/errors/", q, &resp); err != nil {
		return nil, err
	}
	if resp.Errors == nil {
		resp.Errors = []domain.SystemError{}
	}
	return resp.Errors, nil
}

// FetchLeadDiagnostic Диагностика одного лида. Неизвестный идентификатор
// приходит как 404 и нормализуется в Error с NotFound.
func (c *Client) FetchLeadDiagnostic(ctx context.Context, leadID string) (*domain.LeadDiagnostic, error) {
	var diag domain.LeadDiagnostic
	path := "/leads/" + url.PathEscape(leadID) + "/diagnostics/"
	if err := c.getJSON(ctx, path, nil, &diag); err != nil {
		return nil, err
	}
	return &diag, nil
}

// FetchTasks Последние строки журнала фоновых задач.
func (c *Client) FetchTasks(ctx context.Context, limit int) ([]domain.TaskRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Tasks []domain.TaskRecord `json:"tasks"`
	}
	if err := c.getJSON(ctx, "/system/tasks/", q, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.TaskRecord{}
	}
	return resp.Tasks, nil
}

// ResolveError Пометить ошибку решённой. Мутация, не ретраится.
func (c *Client) ResolveError(ctx context.Context, errorID, notes string) error {
	path := "/system/errors/" + url.PathEscape(errorID) + "/resolve/"
	return c.postJSON(ctx, path, map[string]string{"notes": notes}, nil)
}

// ExecuteAction Выполнить именованное одноразовое действие на бэкенде.
func (c *Client) ExecuteAction(ctx context.Context, name string, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}

	var resp struct {
		Result string `json:"result"`
	}
	body := map[string]any{"action": name, "parameters": params}
	if err := c.postJSON(ctx, "/system/actions/", body, &resp); err != nil {
		return "", err
	}
	return resp.Result, nil
}

// SearchProbe Пробный векторный поиск для отладочной панели.
func (c *Client) SearchProbe(ctx context.Context, query string, topK int) ([]domain.SearchHit, error) {
	var resp struct {
		Results []domain.SearchHit `json:"results"`
	}
	body := map[string]any{"query": query, "top_k": topK}
	if err := c.postJSON(ctx, "/system/vector-search/", body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []domain.SearchHit{}
	}
	return resp.Results, nil
}

// getJSON Чтение с полным контуром надёжности: limiter -> CB -> retry.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	// 1. Rate Limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return normalize(err)
	}

	// 2. Circuit Breaker
	_, err := c.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(c.attempts),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Если бэкенд прислал 429 с Retry-After — уважаем его
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		return nil, r.Do(func() error {
			return c.do(ctx, http.MethodGet, path, query, nil, out)
		})
	})

	return normalize(err)
}

// postJSON Мутации проходят limiter и CB, но выполняются ровно один раз.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return normalize(err)
	}

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.do(ctx, http.MethodPost, path, nil, body, out)
	})

	return normalize(err)
}

// do Один HTTP-раунд с нормализацией исхода.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Message: fmt.Sprintf("build request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Message: fmt.Sprintf("backend unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		cause := &Error{Message: readErrorMessage(resp), StatusCode: resp.StatusCode}
		return &ThrottleError{RetryAfter: retryAfter(resp), Cause: cause}
	}

	if resp.StatusCode >= 400 {
		return &Error{Message: readErrorMessage(resp), StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Message: fmt.Sprintf("malformed backend response: %v", err)}
		}
	}
	return nil
}

// readErrorMessage Вычитывает структурированное сообщение об ошибке.
// Бэкенд шлёт {"error": ...} либо {"detail": ...}; без тела остаётся
// стандартный текст статуса.
func readErrorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return fmt.Sprintf("backend error: %s", resp.Status)
}

func retryAfter(resp *http.Response) time.Duration {
	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

// normalize Гарантирует, что наружу уходит только *Error: вызывающий
// код никогда не видит сырых транспортных ошибок.
func normalize(err error) error {
	if err == nil {
		return nil
	}

	var be *Error
	if errors.As(err, &be) {
		return be
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &Error{Message: fmt.Sprintf("backend temporarily unavailable: %v", err)}
	}

	return &Error{Message: err.Error()}
}
