package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xela07ax/leadops-console/internal/audit"
	"github.com/xela07ax/leadops-console/internal/domain"
	"github.com/xela07ax/leadops-console/internal/metrics"
	"go.uber.org/zap"
)

func TestInitialState(t *testing.T) {
	s := newTestStore(&fakeGateway{})

	v := s.Dashboard()
	assert.Nil(t, v.Health)
	assert.NotNil(t, v.Errors)
	assert.Empty(t, v.Errors)
	assert.Nil(t, v.Lead)
	assert.False(t, v.HealthLoading)
	assert.False(t, v.ErrorsLoading)
	assert.False(t, v.LeadLoading)
	assert.Equal(t, domain.DefaultFilter(), v.Filter)
}

func TestRefreshHealth(t *testing.T) {
	h1 := &domain.SystemHealth{HealthScore: 92.5, Status: domain.HealthStatusHealthy}

	t.Run("ReplacesSnapshotAndErrorLog", func(t *testing.T) {
		crit := []domain.SystemError{{ErrorID: "e-crit", Severity: domain.SeverityCritical}}
		gw := &fakeGateway{
			health:     h1,
			critical:   crit,
			errorsList: []domain.SystemError{{ErrorID: "old-1"}, {ErrorID: "old-2"}},
		}
		s := newTestStore(gw)

		// Журнал предварительно наполнен отфильтрованной выборкой
		s.RefreshErrors(context.Background())
		require.Len(t, s.ErrorsView().Errors, 2)

		s.RefreshHealth(context.Background())

		v := s.Dashboard()
		assert.Equal(t, h1, v.Health)
		require.Len(t, v.Errors, 1)
		assert.Equal(t, "e-crit", v.Errors[0].ErrorID)
		assert.Empty(t, v.HealthError)
	})

	t.Run("EmptyCriticalListOverwrites", func(t *testing.T) {
		gw := &fakeGateway{
			health:     h1,
			critical:   []domain.SystemError{},
			errorsList: []domain.SystemError{{ErrorID: "old-1"}},
		}
		s := newTestStore(gw)

		s.RefreshErrors(context.Background())
		require.Len(t, s.ErrorsView().Errors, 1)

		// Пустая пачка критических — тоже данные, журнал очищается
		s.RefreshHealth(context.Background())

		v := s.Dashboard()
		assert.NotNil(t, v.Errors)
		assert.Empty(t, v.Errors)
	})

	t.Run("FailureKeepsPreviousSnapshot", func(t *testing.T) {
		gw := &fakeGateway{health: h1, critical: []domain.SystemError{}}
		s := newTestStore(gw)

		s.RefreshHealth(context.Background())
		require.Equal(t, h1, s.HealthView().Health)

		gw.mu.Lock()
		gw.healthErr = errors.New("backend unreachable: connection refused")
		gw.mu.Unlock()

		s.RefreshHealth(context.Background())

		v := s.HealthView()
		assert.Equal(t, h1, v.Health)
		assert.Contains(t, v.Error, "backend unreachable")
		assert.False(t, v.Loading)
	})

	t.Run("LoadingClearedOnSuccess", func(t *testing.T) {
		gate := make(chan struct{})
		gw := &fakeGateway{healthPlan: []healthReply{{gate: gate, health: h1, critical: []domain.SystemError{}}}}
		s := newTestStore(gw)

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.RefreshHealth(context.Background())
		}()

		assert.Eventually(t, func() bool { return s.HealthView().Loading }, time.Second, 5*time.Millisecond)

		close(gate)
		<-done

		v := s.HealthView()
		assert.False(t, v.Loading)
		assert.Equal(t, h1, v.Health)
	})

	t.Run("LoadingClearedOnFailure", func(t *testing.T) {
		gate := make(chan struct{})
		gw := &fakeGateway{healthPlan: []healthReply{{gate: gate, err: errors.New("boom")}}}
		s := newTestStore(gw)

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.RefreshHealth(context.Background())
		}()

		assert.Eventually(t, func() bool { return s.HealthView().Loading }, time.Second, 5*time.Millisecond)

		close(gate)
		<-done

		v := s.HealthView()
		assert.False(t, v.Loading)
		assert.Equal(t, "boom", v.Error)
		assert.Nil(t, v.Health)
	})

	t.Run("SkipsWhenClosed", func(t *testing.T) {
		gw := &fakeGateway{health: h1}
		s := newTestStore(gw)

		s.Close()
		s.RefreshHealth(context.Background())

		assert.Zero(t, gw.healthCallCount())
	})

	t.Run("LateResponseDiscardedAfterClose", func(t *testing.T) {
		gate := make(chan struct{})
		gw := &fakeGateway{healthPlan: []healthReply{{gate: gate, health: h1, critical: []domain.SystemError{}}}}
		s := newTestStore(gw)

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.RefreshHealth(context.Background())
		}()

		assert.Eventually(t, func() bool { return gw.healthCallCount() == 1 }, time.Second, 5*time.Millisecond)

		// Стор закрывается, пока запрос висит в полёте
		s.Close()
		close(gate)
		<-done

		assert.Nil(t, s.HealthView().Health)
	})

	t.Run("StatusTransitionPublishedOnce", func(t *testing.T) {
		gw := &fakeGateway{health: h1, critical: []domain.SystemError{}}
		notifier := &fakeNotifier{}
		s := NewDiagnosticsStore(gw, notifier, nil, metrics.NewMetrics(nil), zap.NewNop())

		s.RefreshHealth(context.Background())
		s.RefreshHealth(context.Background())

		// Переход UNKNOWN -> HEALTHY один, снимок кэшируется на каждый успех
		assert.Equal(t, []string{"UNKNOWN->HEALTHY"}, notifier.seenTransitions())
		assert.Equal(t, 2, notifier.snapshotCount())
	})
}

func TestRefreshErrors(t *testing.T) {
	t.Run("ReplacesList", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{{ErrorID: "a"}, {ErrorID: "b"}}}
		s := newTestStore(gw)

		s.RefreshErrors(context.Background())

		v := s.ErrorsView()
		require.Len(t, v.Errors, 2)
		assert.False(t, v.Loading)
		assert.Empty(t, v.Error)
		assert.Equal(t, []int{20}, gw.seenErrorsLimits())
	})

	t.Run("FailureKeepsPreviousList", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{{ErrorID: "a"}}}
		s := newTestStore(gw)

		s.RefreshErrors(context.Background())
		require.Len(t, s.ErrorsView().Errors, 1)

		gw.mu.Lock()
		gw.errorsErr = errors.New("backend error: 502 Bad Gateway")
		gw.mu.Unlock()

		s.RefreshErrors(context.Background())

		v := s.ErrorsView()
		require.Len(t, v.Errors, 1)
		assert.Equal(t, "a", v.Errors[0].ErrorID)
		assert.Contains(t, v.Error, "502")
	})

	t.Run("LastArrivalWins", func(t *testing.T) {
		gateFirst := make(chan struct{})
		gateSecond := make(chan struct{})
		gw := &fakeGateway{errorsPlan: []errorsReply{
			{gate: gateFirst, list: []domain.SystemError{{ErrorID: "sent-first"}}},
			{gate: gateSecond, list: []domain.SystemError{{ErrorID: "sent-second"}}},
		}}
		s := newTestStore(gw)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.RefreshErrors(context.Background())
		}()
		assert.Eventually(t, func() bool { return gw.errorsCallCount() == 1 }, time.Second, 5*time.Millisecond)

		go func() {
			defer wg.Done()
			s.RefreshErrors(context.Background())
		}()
		assert.Eventually(t, func() bool { return gw.errorsCallCount() == 2 }, time.Second, 5*time.Millisecond)

		// Второй запрос возвращается раньше
		close(gateSecond)
		assert.Eventually(t, func() bool {
			v := s.ErrorsView()
			return len(v.Errors) == 1 && v.Errors[0].ErrorID == "sent-second"
		}, time.Second, 5*time.Millisecond)

		// Первый приходит последним — и побеждает, несмотря на порядок отправки
		close(gateFirst)
		wg.Wait()

		v := s.ErrorsView()
		require.Len(t, v.Errors, 1)
		assert.Equal(t, "sent-first", v.Errors[0].ErrorID)
		assert.False(t, v.Loading)
	})

	t.Run("LateResponseDiscardedAfterClose", func(t *testing.T) {
		gate := make(chan struct{})
		gw := &fakeGateway{errorsPlan: []errorsReply{{gate: gate, list: []domain.SystemError{{ErrorID: "late"}}}}}
		s := newTestStore(gw)

		done := make(chan struct{})
		go func() {
			defer close(done)
			s.RefreshErrors(context.Background())
		}()

		assert.Eventually(t, func() bool { return gw.errorsCallCount() == 1 }, time.Second, 5*time.Millisecond)

		s.Close()
		close(gate)
		<-done

		assert.Empty(t, s.ErrorsView().Errors)
	})
}

func TestSetFilter(t *testing.T) {
	selCritical := domain.FilterSelection{Severity: domain.SeverityCritical, ErrorType: domain.FilterAll}
	selDatabase := domain.FilterSelection{Severity: domain.FilterAll, ErrorType: domain.ErrorTypeDatabase}

	t.Run("ChangeTriggersSingleRefresh", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{}}
		s := newTestStore(gw)

		s.SetFilter(context.Background(), selCritical)

		assert.Equal(t, 1, gw.errorsCallCount())
		assert.Equal(t, []domain.FilterSelection{selCritical}, gw.seenErrorsFilters())
		assert.Equal(t, selCritical, s.Filter())
	})

	t.Run("IdenticalSelectionIsNoop", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{}}
		s := newTestStore(gw)

		s.SetFilter(context.Background(), domain.DefaultFilter())
		assert.Zero(t, gw.errorsCallCount())

		s.SetFilter(context.Background(), selCritical)
		s.SetFilter(context.Background(), selCritical)
		assert.Equal(t, 1, gw.errorsCallCount())
	})

	t.Run("EachDistinctChangeRefreshesOnce", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{}}
		s := newTestStore(gw)

		s.SetFilter(context.Background(), selCritical)
		s.SetFilter(context.Background(), selDatabase)
		s.SetFilter(context.Background(), selCritical)

		assert.Equal(t, 3, gw.errorsCallCount())
		assert.Equal(t, []domain.FilterSelection{selCritical, selDatabase, selCritical}, gw.seenErrorsFilters())
	})

	t.Run("IgnoredWhenClosed", func(t *testing.T) {
		gw := &fakeGateway{}
		s := newTestStore(gw)

		s.Close()
		s.SetFilter(context.Background(), selCritical)

		assert.Zero(t, gw.errorsCallCount())
		assert.Equal(t, domain.DefaultFilter(), s.Filter())
	})
}

func TestLookupLead(t *testing.T) {
	diag := &domain.LeadDiagnostic{LeadID: "lead-7", HealthStatus: domain.LeadStatusWarning}

	t.Run("BlankIDShortCircuits", func(t *testing.T) {
		gw := &fakeGateway{lead: diag}
		s := newTestStore(gw)

		for _, id := range []string{"", "   ", "\t"} {
			got, err := s.LookupLead(context.Background(), id)
			assert.ErrorIs(t, err, ErrBlankLeadID)
			assert.Nil(t, got)
		}

		// Ни одного похода в сеть, вью-состояние не тронуто
		assert.Zero(t, gw.leadCallCount())
		v := s.Dashboard()
		assert.Nil(t, v.Lead)
		assert.Empty(t, v.LeadError)
		assert.False(t, v.LeadLoading)
	})

	t.Run("StoresDiagnostic", func(t *testing.T) {
		gw := &fakeGateway{lead: diag}
		s := newTestStore(gw)

		got, err := s.LookupLead(context.Background(), "lead-7")
		require.NoError(t, err)
		assert.Equal(t, diag, got)
		assert.Equal(t, diag, s.Dashboard().Lead)
	})

	t.Run("TrimsIdentifier", func(t *testing.T) {
		gw := &fakeGateway{lead: diag}
		s := newTestStore(gw)

		_, err := s.LookupLead(context.Background(), "  lead-7  ")
		require.NoError(t, err)

		gw.mu.Lock()
		defer gw.mu.Unlock()
		assert.Equal(t, []string{"lead-7"}, gw.leadIDs)
	})

	t.Run("FailureClearsStaleDiagnostic", func(t *testing.T) {
		gw := &fakeGateway{lead: diag}
		s := newTestStore(gw)

		_, err := s.LookupLead(context.Background(), "lead-7")
		require.NoError(t, err)
		require.NotNil(t, s.Dashboard().Lead)

		gw.mu.Lock()
		gw.leadErr = errors.New("lead not found")
		gw.mu.Unlock()

		got, err := s.LookupLead(context.Background(), "lead-8")
		assert.Error(t, err)
		assert.Nil(t, got)

		// Устаревшая диагностика не должна висеть под чужим идентификатором
		v := s.Dashboard()
		assert.Nil(t, v.Lead)
		assert.Equal(t, "lead not found", v.LeadError)
	})

	t.Run("RejectedWhenClosed", func(t *testing.T) {
		gw := &fakeGateway{lead: diag}
		s := newTestStore(gw)

		s.Close()
		_, err := s.LookupLead(context.Background(), "lead-7")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.Zero(t, gw.leadCallCount())
	})
}

func TestResolve(t *testing.T) {
	selCritical := domain.FilterSelection{Severity: domain.SeverityCritical, ErrorType: domain.FilterAll}

	t.Run("SuccessRefetchesWithActiveFilter", func(t *testing.T) {
		gw := &fakeGateway{errorsList: []domain.SystemError{}}
		auditor := &fakeAuditor{}
		s := NewDiagnosticsStore(gw, nil, auditor, metrics.NewMetrics(nil), zap.NewNop())

		s.SetFilter(context.Background(), selCritical)
		require.Equal(t, 1, gw.errorsCallCount())

		err := s.Resolve(context.Background(), "err-42", "known flake")
		require.NoError(t, err)

		// Повторная выборка ровно одна и с действующим фильтром
		assert.Equal(t, 2, gw.errorsCallCount())
		filters := gw.seenErrorsFilters()
		assert.Equal(t, selCritical, filters[len(filters)-1])

		gw.mu.Lock()
		assert.Equal(t, []string{"err-42"}, gw.resolvedIDs)
		assert.Equal(t, []string{"known flake"}, gw.resolvedNotes)
		gw.mu.Unlock()

		events := auditor.seenEvents()
		require.Len(t, events, 1)
		assert.Equal(t, audit.KindResolveError, events[0].Kind)
		assert.Equal(t, audit.StatusSuccess, events[0].Status)
		assert.Equal(t, "err-42", events[0].Subject)
	})

	t.Run("FailureSurfacesWithoutRefetch", func(t *testing.T) {
		gw := &fakeGateway{resolveErr: errors.New("error not found")}
		auditor := &fakeAuditor{}
		s := NewDiagnosticsStore(gw, nil, auditor, metrics.NewMetrics(nil), zap.NewNop())

		err := s.Resolve(context.Background(), "err-404", "")
		assert.EqualError(t, err, "error not found")
		assert.Zero(t, gw.errorsCallCount())

		events := auditor.seenEvents()
		require.Len(t, events, 1)
		assert.Equal(t, audit.StatusFailed, events[0].Status)
		assert.Equal(t, "error not found", events[0].Error)
	})
}

func TestSeedHealth(t *testing.T) {
	h1 := &domain.SystemHealth{HealthScore: 70, Status: domain.HealthStatusDegraded}
	cached := &domain.SystemHealth{HealthScore: 99, Status: domain.HealthStatusHealthy}

	t.Run("AcceptsOnEmptyStore", func(t *testing.T) {
		s := newTestStore(&fakeGateway{})

		assert.True(t, s.SeedHealth(cached))
		assert.Equal(t, cached, s.HealthView().Health)
	})

	t.Run("RejectsSecondSeed", func(t *testing.T) {
		s := newTestStore(&fakeGateway{})

		require.True(t, s.SeedHealth(cached))
		assert.False(t, s.SeedHealth(h1))
		assert.Equal(t, cached, s.HealthView().Health)
	})

	t.Run("RejectsAfterLiveRefresh", func(t *testing.T) {
		gw := &fakeGateway{health: h1, critical: []domain.SystemError{}}
		s := newTestStore(gw)

		s.RefreshHealth(context.Background())

		// Живой снимок кэшированным не перетирается
		assert.False(t, s.SeedHealth(cached))
		assert.Equal(t, h1, s.HealthView().Health)
	})

	t.Run("RejectsNil", func(t *testing.T) {
		s := newTestStore(&fakeGateway{})
		assert.False(t, s.SeedHealth(nil))
	})

	t.Run("RejectsWhenClosed", func(t *testing.T) {
		s := newTestStore(&fakeGateway{})
		s.Close()
		assert.False(t, s.SeedHealth(cached))
	})
}
