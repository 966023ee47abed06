package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/jira"
	"github.com/spec-kit/impactlens/internal/repository"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// CandidateRetriever expands a ticket into a deduplicated candidate set
// via keyword-driven search over the store and the live source.
type CandidateRetriever struct {
	store       repository.TicketStore
	source      jira.TicketSource
	concurrency int
	logger      *zap.Logger
}

// NewCandidateRetriever constructs the retriever.
func NewCandidateRetriever(store repository.TicketStore, source jira.TicketSource, concurrency int, logger *zap.Logger) *CandidateRetriever {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &CandidateRetriever{store: store, source: source, concurrency: concurrency, logger: logger}
}

// Retrieve unions per-keyword search results, dedupes by ticket key and
// drops the source ticket. A single failing keyword is logged and
// skipped; when every keyword fails the whole stage fails.
func (r *CandidateRetriever) Retrieve(ctx context.Context, source *domain.Ticket, keywords []string) ([]domain.Ticket, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	var (
		mu       sync.Mutex
		byKey    = make(map[string]domain.Ticket)
		failures int
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, keyword := range keywords {
		keyword := keyword
		g.Go(func() error {
			hits, err := r.searchKeyword(gctx, keyword)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger.Warn("keyword search failed", zap.String("keyword", keyword), zap.Error(err))
				failures++
				lastErr = err
				return nil
			}
			for _, hit := range hits {
				if hit.Key == source.Key {
					continue
				}
				byKey[hit.Key] = hit
			}
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(keywords) {
		return nil, apperrors.NewRetrievalError("all keyword searches failed", lastErr)
	}

	candidates := make([]domain.Ticket, 0, len(byKey))
	for _, ticket := range byKey {
		candidates = append(candidates, ticket)
	}
	return candidates, nil
}

// searchKeyword queries both tiers; either succeeding is enough.
func (r *CandidateRetriever) searchKeyword(ctx context.Context, keyword string) ([]domain.Ticket, error) {
	var hits []domain.Ticket

	stored, storeErr := r.store.Search(ctx, keyword)
	if storeErr == nil {
		hits = append(hits, stored...)
	}

	live, sourceErr := r.source.Search(ctx, keyword)
	if sourceErr == nil {
		hits = append(hits, live...)
	}

	if storeErr != nil && sourceErr != nil {
		return nil, sourceErr
	}
	if storeErr != nil {
		r.logger.Debug("store search failed", zap.String("keyword", keyword), zap.Error(storeErr))
	}
	if sourceErr != nil {
		r.logger.Debug("source search failed", zap.String("keyword", keyword), zap.Error(sourceErr))
	}
	return hits, nil
}
