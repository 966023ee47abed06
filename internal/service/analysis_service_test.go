package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/events"
	"github.com/spec-kit/impactlens/internal/observability"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// fakeHistory is an in-memory AnalysisRepository.
type fakeHistory struct {
	mu    sync.Mutex
	saved []domain.AnalysisResult
}

func (h *fakeHistory) Save(ctx context.Context, result *domain.AnalysisResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.saved = append(h.saved, *result)
	return nil
}

func (h *fakeHistory) GetByID(ctx context.Context, analysisID string) (*domain.AnalysisResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.saved {
		if h.saved[i].AnalysisID == analysisID {
			copied := h.saved[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (h *fakeHistory) List(ctx context.Context, limit, offset int) ([]domain.AnalysisResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.AnalysisResult(nil), h.saved...), nil
}

func (h *fakeHistory) Delete(ctx context.Context, analysisID string) error {
	return nil
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.saved)
}

type serviceFixture struct {
	service *AnalysisService
	store   *fakeStore
	source  *fakeSource
	advisor *fakeAdvisor
	history *fakeHistory
	metrics *observability.Metrics
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newFakeStore()
	source := newFakeSource()
	adv := newFakeAdvisor()
	history := &fakeHistory{}
	metrics := observability.NewMetrics()

	svc := NewAnalysisService(analysisConfigFixture(), AnalysisDependencies{
		TicketStore: store,
		Source:      source,
		Advisor:     adv,
		HistoryRepo: history,
		Dispatcher:  events.NewInMemoryDispatcher(),
		Metrics:     metrics,
		Logger:      zap.NewNop(),
	})
	return &serviceFixture{service: svc, store: store, source: source, advisor: adv, history: history, metrics: metrics}
}

func seedThrottlingScenario(f *serviceFixture) {
	f.source.tickets["ABC-1"] = ticketFixture("ABC-1", "Add login throttling")
	f.advisor.keywords = []string{"login", "throttle", "rate"}

	f.source.results["login"] = []domain.Ticket{
		ticketFixture("AUTH-2", "Login page redesign"),
		ticketFixture("AUTH-3", "Login audit events"),
	}
	f.source.results["throttle"] = []domain.Ticket{
		ticketFixture("NET-4", "Throttle outbound webhooks"),
		ticketFixture("NET-5", "Connection pool tuning"),
	}
	f.source.results["rate"] = []domain.Ticket{
		ticketFixture("API-6", "Rate limit public API"),
		ticketFixture("API-7", "API gateway upgrade"),
	}

	f.advisor.scores = map[string]float64{
		"AUTH-2": 0.2,
		"AUTH-3": 0.25,
		"NET-4":  0.65,
		"NET-5":  0.1,
		"API-6":  0.8,
		"API-7":  0.15,
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	f := newServiceFixture(t)
	seedThrottlingScenario(f)

	result, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)

	assert.Equal(t, "ABC-1", result.TicketKey)
	assert.Equal(t, domain.AnalysisStatusCompleted, result.Status)
	assert.False(t, result.Metadata.CacheHit)

	// Only the two candidates at or above the 0.3 default survive,
	// ordered by descending score.
	require.Len(t, result.Report.RelatedTickets, 2)
	assert.Equal(t, "API-6", result.Report.RelatedTickets[0].TicketKey)
	assert.Equal(t, "NET-4", result.Report.RelatedTickets[1].TicketKey)
	assert.Equal(t, 3, result.Metadata.TicketsAnalyzed)

	require.Len(t, result.Report.GapsIdentified, 1)
	assert.NotEmpty(t, result.Report.RegressionAreas)
	assert.NotEmpty(t, result.Report.Recommendations)
	assert.Equal(t, 1, f.history.count())
}

func TestAnalyzeSecondCallIsIdenticalCacheHit(t *testing.T) {
	f := newServiceFixture(t)
	seedThrottlingScenario(f)

	first, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)
	second, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)

	assert.False(t, first.Metadata.CacheHit)
	assert.True(t, second.Metadata.CacheHit)
	assert.Equal(t, first.AnalysisID, second.AnalysisID)
	if diff := cmp.Diff(first.Report, second.Report); diff != "" {
		t.Fatalf("served report differs from computed one (-first +second):\n%s", diff)
	}
	// The pipeline ran once, so only one row was persisted.
	assert.Equal(t, 1, f.history.count())

	runs, fails, hits, misses := f.metrics.AnalysisSnapshot()
	assert.Equal(t, int64(2), runs)
	assert.Zero(t, fails)
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestAnalyzeDifferentOptionsDoNotShareCache(t *testing.T) {
	f := newServiceFixture(t)
	seedThrottlingScenario(f)

	first, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)
	second, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{MinRelevanceScore: floatPtr(0.7)})
	require.NoError(t, err)

	assert.False(t, second.Metadata.CacheHit)
	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
	require.Len(t, second.Report.RelatedTickets, 1)
	assert.Equal(t, "API-6", second.Report.RelatedTickets[0].TicketKey)
}

func TestAnalyzeInvalidKeyFailsBeforePipeline(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Analyze(context.Background(), "not a key", AnalysisOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, f.source.fetches)
}

func TestAnalyzeUnknownTicketIsNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Analyze(context.Background(), "ZZZ-9", AnalysisOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, fails, _, _ := f.metrics.AnalysisSnapshot()
	assert.Equal(t, int64(1), fails)
}

func TestAnalyzeNoKeywordsYieldsEmptyReport(t *testing.T) {
	f := newServiceFixture(t)
	f.source.tickets["ABC-1"] = ticketFixture("ABC-1", "Add login throttling")
	f.advisor.keywords = nil

	result, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisStatusCompleted, result.Status)
	assert.Empty(t, result.Report.RelatedTickets)
	assert.Equal(t, 1, result.Metadata.TicketsAnalyzed)
}

func TestAnalyzeKeywordExtractionFailureIsUpstream(t *testing.T) {
	f := newServiceFixture(t)
	f.source.tickets["ABC-1"] = ticketFixture("ABC-1", "Add login throttling")
	f.advisor.keywordsErr = context.DeadlineExceeded

	_, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUpstreamFailure))
}

func TestGetAnalysisRoundTrip(t *testing.T) {
	f := newServiceFixture(t)
	seedThrottlingScenario(f)

	computed, err := f.service.Analyze(context.Background(), "ABC-1", AnalysisOptions{})
	require.NoError(t, err)

	loaded, err := f.service.GetAnalysis(context.Background(), computed.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, computed.AnalysisID, loaded.AnalysisID)

	_, err = f.service.GetAnalysis(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
