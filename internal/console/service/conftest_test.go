package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xela07ax/leadops-console/internal/audit"
	"github.com/xela07ax/leadops-console/internal/domain"
	"github.com/xela07ax/leadops-console/internal/metrics"
)

// --- Моки ---

// healthReply Один запланированный ответ FetchHealth. Ненулевые ворота
// подвешивают ответ до явного сигнала из теста.
type healthReply struct {
	gate     chan struct{}
	health   *domain.SystemHealth
	critical []domain.SystemError
	err      error
}

// errorsReply Один запланированный ответ FetchErrors.
type errorsReply struct {
	gate chan struct{}
	list []domain.SystemError
	err  error
}

// fakeGateway Управляемый бэкенд: сперва вычерпывается очередь планов,
// дальше отдаются дефолтные поля.
type fakeGateway struct {
	mu sync.Mutex

	healthPlan  []healthReply
	health      *domain.SystemHealth
	critical    []domain.SystemError
	healthErr   error
	healthCalls int

	errorsPlan    []errorsReply
	errorsList    []domain.SystemError
	errorsErr     error
	errorsCalls   int
	errorsFilters []domain.FilterSelection
	errorsLimits  []int

	lead      *domain.LeadDiagnostic
	leadErr   error
	leadCalls int
	leadIDs   []string

	resolveErr    error
	resolveCalls  int
	resolvedIDs   []string
	resolvedNotes []string

	actionResult string
	actionErr    error
	actionCalls  int
	actionNames  []string
}

func (f *fakeGateway) FetchHealth(context.Context) (*domain.SystemHealth, []domain.SystemError, error) {
	f.mu.Lock()
	f.healthCalls++
	if len(f.healthPlan) > 0 {
		reply := f.healthPlan[0]
		f.healthPlan = f.healthPlan[1:]
		f.mu.Unlock()
		if reply.gate != nil {
			<-reply.gate
		}
		return reply.health, reply.critical, reply.err
	}
	health, critical, err := f.health, f.critical, f.healthErr
	f.mu.Unlock()
	return health, critical, err
}

func (f *fakeGateway) FetchErrors(_ context.Context, filter domain.FilterSelection, limit int) ([]domain.SystemError, error) {
	f.mu.Lock()
	f.errorsCalls++
	f.errorsFilters = append(f.errorsFilters, filter)
	f.errorsLimits = append(f.errorsLimits, limit)
	if len(f.errorsPlan) > 0 {
		reply := f.errorsPlan[0]
		f.errorsPlan = f.errorsPlan[1:]
		f.mu.Unlock()
		if reply.gate != nil {
			<-reply.gate
		}
		return reply.list, reply.err
	}
	list, err := f.errorsList, f.errorsErr
	f.mu.Unlock()
	return list, err
}

func (f *fakeGateway) FetchLeadDiagnostic(_ context.Context, leadID string) (*domain.LeadDiagnostic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leadCalls++
	f.leadIDs = append(f.leadIDs, leadID)
	return f.lead, f.leadErr
}

func (f *fakeGateway) ResolveError(_ context.Context, errorID, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	f.resolvedIDs = append(f.resolvedIDs, errorID)
	f.resolvedNotes = append(f.resolvedNotes, notes)
	return f.resolveErr
}

func (f *fakeGateway) ExecuteAction(_ context.Context, name string, _ map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionCalls++
	f.actionNames = append(f.actionNames, name)
	return f.actionResult, f.actionErr
}

// Снимки счётчиков под мьютексом — безопасны внутри assert.Eventually.

func (f *fakeGateway) healthCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthCalls
}

func (f *fakeGateway) errorsCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorsCalls
}

func (f *fakeGateway) leadCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leadCalls
}

func (f *fakeGateway) seenErrorsFilters() []domain.FilterSelection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.FilterSelection, len(f.errorsFilters))
	copy(out, f.errorsFilters)
	return out
}

func (f *fakeGateway) seenErrorsLimits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.errorsLimits))
	copy(out, f.errorsLimits)
	return out
}

// fakeNotifier Запоминает все сигналы, ушедшие наружу.
type fakeNotifier struct {
	mu          sync.Mutex
	transitions []string
	outcomes    []string
	snapshots   int
}

func (n *fakeNotifier) PublishStatusTransition(_ context.Context, from, to string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, from+"->"+to)
}

func (n *fakeNotifier) PublishActionOutcome(_ context.Context, action, outcome string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, action+":"+outcome)
}

func (n *fakeNotifier) StoreSnapshot(_ context.Context, _ *domain.SystemHealth) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots++
}

func (n *fakeNotifier) seenTransitions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.transitions))
	copy(out, n.transitions)
	return out
}

func (n *fakeNotifier) seenOutcomes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.outcomes))
	copy(out, n.outcomes)
	return out
}

func (n *fakeNotifier) snapshotCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.snapshots
}

// fakeAuditor Собирает события журнала in-memory.
type fakeAuditor struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *fakeAuditor) Log(e audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *fakeAuditor) seenEvents() []audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Event, len(a.events))
	copy(out, a.events)
	return out
}

func newTestStore(gw BackendGateway) *DiagnosticsStore {
	return NewDiagnosticsStore(gw, nil, nil, metrics.NewMetrics(nil), zap.NewNop())
}
