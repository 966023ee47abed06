package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/advisor"
	"github.com/spec-kit/impactlens/internal/config"
	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/events"
	"github.com/spec-kit/impactlens/internal/jira"
	"github.com/spec-kit/impactlens/internal/observability"
	"github.com/spec-kit/impactlens/internal/persistence"
	"github.com/spec-kit/impactlens/internal/repository"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// AnalysisService coordinates impact analysis runs. Analyze is the main
// entry point; it validates the request, resolves options against
// configured defaults and hands the pipeline to the memoizing cache so
// identical concurrent requests share a single run.
type AnalysisService struct {
	cfg         config.AnalysisConfig
	resolver    *TicketResolver
	retriever   *CandidateRetriever
	ranker      *RelevanceRanker
	synthesizer *InsightSynthesizer
	assembler   *ReportAssembler
	cache       *AnalysisCache
	insight     advisor.InsightAdvisor
	history     repository.AnalysisRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AnalysisDependencies bundles collaborators for the analysis service.
type AnalysisDependencies struct {
	TicketStore repository.TicketStore
	Source      jira.TicketSource
	Advisor     advisor.InsightAdvisor
	HistoryRepo repository.AnalysisRepository
	Redis       *persistence.Redis
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAnalysisService constructs the service and its pipeline stages.
func NewAnalysisService(cfg config.AnalysisConfig, deps AnalysisDependencies) *AnalysisService {
	return &AnalysisService{
		cfg:         cfg,
		resolver:    NewTicketResolver(deps.TicketStore, deps.Source, cfg.TicketTTL(), cfg.StalenessThreshold(), deps.Logger),
		retriever:   NewCandidateRetriever(deps.TicketStore, deps.Source, cfg.SearchConcurrency, deps.Logger),
		ranker:      NewRelevanceRanker(deps.Advisor, cfg.ScoreConcurrency, deps.Logger),
		synthesizer: NewInsightSynthesizer(deps.Advisor, deps.Logger),
		assembler:   NewReportAssembler(deps.Advisor.Model()),
		cache:       NewAnalysisCache(cfg.CacheTTL(), cfg.CacheMaxEntries, deps.Redis, deps.Logger),
		insight:     deps.Advisor,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Analyze runs (or joins, or serves from cache) an impact analysis for
// the given ticket key and options.
func (s *AnalysisService) Analyze(ctx context.Context, ticketKey string, opts AnalysisOptions) (*domain.AnalysisResult, error) {
	key, err := validateTicketKey(ticketKey)
	if err != nil {
		return nil, err
	}
	resolved, err := resolveOptions(s.cfg, opts)
	if err != nil {
		return nil, err
	}

	fp := fingerprint(key, resolved)
	result, err := s.cache.GetOrCompute(ctx, fp, func(ctx context.Context) (*domain.AnalysisResult, error) {
		return s.runPipeline(ctx, key, resolved)
	})
	if err != nil {
		s.recordAnalysis(false, true)
		s.publishEvent(ctx, events.Event{
			Type:      events.EventAnalysisFailed,
			TicketKey: key,
			Payload: events.AnalysisFailedPayload{
				ErrorCode: apperrors.CodeOf(err),
				Message:   err.Error(),
			},
		})
		return nil, err
	}
	s.recordAnalysis(result.Metadata.CacheHit, false)
	return result, nil
}

// GetAnalysis returns a previously stored analysis by id.
func (s *AnalysisService) GetAnalysis(ctx context.Context, analysisID string) (*domain.AnalysisResult, error) {
	if s.history == nil {
		return nil, apperrors.NewNotFound("analysis", nil)
	}
	result, err := s.history.GetByID(ctx, analysisID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if result == nil {
		return nil, apperrors.NewNotFound("analysis", nil)
	}
	return result, nil
}

// ListAnalyses returns stored analyses, newest first.
func (s *AnalysisService) ListAnalyses(ctx context.Context, limit, offset int) ([]domain.AnalysisResult, error) {
	if s.history == nil {
		return []domain.AnalysisResult{}, nil
	}
	results, err := s.history.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if results == nil {
		results = []domain.AnalysisResult{}
	}
	return results, nil
}

// DeleteAnalysis removes a stored analysis by id.
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, analysisID string) error {
	if s.history == nil {
		return apperrors.NewNotFound("analysis", nil)
	}
	if err := s.history.Delete(ctx, analysisID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("analysis", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return nil
}

// SweepCache expires stale cache entries. Called by the retention worker.
func (s *AnalysisService) SweepCache(now time.Time) int {
	return s.cache.Sweep(now)
}

func (s *AnalysisService) runPipeline(ctx context.Context, ticketKey string, opts runOptions) (*domain.AnalysisResult, error) {
	start := time.Now()

	ticket, err := s.resolver.Resolve(ctx, ticketKey)
	if err != nil {
		return nil, err
	}
	// A sync timestamp at or after pipeline start means the resolver
	// went to the source rather than serving a cached copy.
	if !ticket.LastSyncedAt.Before(start) {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketSynced,
			TicketKey: ticketKey,
			Payload: events.TicketSyncedPayload{
				SourceID: ticket.SourceID,
				Status:   ticket.Status,
				Priority: ticket.Priority,
			},
		})
	}

	keywords, err := s.insight.ExtractKeywords(ctx, ticket)
	if err != nil {
		return nil, apperrors.NewUpstreamError("keyword extraction failed", err)
	}

	candidates, err := s.retriever.Retrieve(ctx, ticket, keywords)
	if err != nil {
		return nil, err
	}

	related, err := s.ranker.Rank(ctx, ticket, candidates, opts.MinRelevanceScore, opts.MaxRelatedTickets)
	if err != nil {
		return nil, err
	}

	insight, err := s.synthesizer.Synthesize(ctx, ticket, related)
	if err != nil {
		return nil, err
	}

	result := s.assembler.Assemble(ticketKey, ticket, related, insight, time.Since(start))

	if s.history != nil {
		if err := s.history.Save(ctx, result); err != nil {
			s.logger.Warn("failed to persist analysis result",
				zap.String("analysis_id", result.AnalysisID),
				zap.Error(err))
		}
	}
	s.publishEvent(ctx, events.Event{
		Type:      events.EventAnalysisCompleted,
		TicketKey: ticketKey,
		Payload: events.AnalysisCompletedPayload{
			AnalysisID:      result.AnalysisID,
			RelatedTickets:  len(related),
			TicketsAnalyzed: result.Metadata.TicketsAnalyzed,
			CacheHit:        false,
			ProcessingMS:    result.Metadata.ProcessingTimeMillis,
		},
	})
	return result, nil
}

func (s *AnalysisService) recordAnalysis(cacheHit, failed bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAnalysis(cacheHit, failed)
}

func (s *AnalysisService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
