package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/impactlens/internal/advisor"
	"github.com/spec-kit/impactlens/internal/domain"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// RelevanceRanker scores candidates against the source ticket and keeps
// the top maxResults entries at or above minScore.
type RelevanceRanker struct {
	advisor     advisor.InsightAdvisor
	concurrency int
	logger      *zap.Logger
}

// NewRelevanceRanker constructs the ranker.
func NewRelevanceRanker(insight advisor.InsightAdvisor, concurrency int, logger *zap.Logger) *RelevanceRanker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &RelevanceRanker{advisor: insight, concurrency: concurrency, logger: logger}
}

// Rank scores every candidate independently, filters by minScore, sorts
// by score descending with ticket key ascending as the tie-break, and
// truncates to maxResults. The ordering is deterministic regardless of
// scoring concurrency.
func (r *RelevanceRanker) Rank(ctx context.Context, source *domain.Ticket, candidates []domain.Ticket, minScore float64, maxResults int) ([]domain.RelatedTicket, error) {
	if maxResults == 0 || len(candidates) == 0 {
		return []domain.RelatedTicket{}, nil
	}

	type scored struct {
		ticket domain.Ticket
		score  float64
		ok     bool
	}
	results := make([]scored, len(candidates))

	var (
		mu       sync.Mutex
		failures int
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i := range candidates {
		i := i
		g.Go(func() error {
			candidate := candidates[i]
			score, err := r.advisor.Score(gctx, source, &candidate)
			if err != nil {
				r.logger.Warn("candidate scoring failed",
					zap.String("candidate_key", candidate.Key), zap.Error(err))
				mu.Lock()
				failures++
				lastErr = err
				mu.Unlock()
				return nil
			}
			results[i] = scored{ticket: candidate, score: score, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(candidates) {
		return nil, apperrors.NewUpstreamError("relevance scoring failed for every candidate", lastErr)
	}

	survivors := make([]domain.RelatedTicket, 0, len(candidates))
	for _, res := range results {
		if !res.ok || res.score < minScore {
			continue
		}
		survivors = append(survivors, domain.RelatedTicket{
			TicketKey:         res.ticket.Key,
			Summary:           res.ticket.Summary,
			Status:            res.ticket.Status,
			Priority:          res.ticket.Priority,
			RelevanceScore:    res.score,
			RelationshipType:  domain.RelationshipSimilar,
			ImpactDescription: "Potential impact on similar functionality",
		})
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].RelevanceScore != survivors[j].RelevanceScore {
			return survivors[i].RelevanceScore > survivors[j].RelevanceScore
		}
		return survivors[i].TicketKey < survivors[j].TicketKey
	})

	if len(survivors) > maxResults {
		survivors = survivors[:maxResults]
	}
	return survivors, nil
}
