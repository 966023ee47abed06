package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/jira"
	"github.com/spec-kit/impactlens/internal/repository"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// TicketResolver obtains a ticket's canonical record, preferring the
// store over the live source. Exactly one store write happens per
// resolution that goes to the source; a store hit writes nothing.
type TicketResolver struct {
	store     repository.TicketStore
	source    jira.TicketSource
	ttl       time.Duration
	staleness time.Duration
	logger    *zap.Logger
}

// NewTicketResolver constructs the resolver.
func NewTicketResolver(store repository.TicketStore, source jira.TicketSource, ttl, staleness time.Duration, logger *zap.Logger) *TicketResolver {
	return &TicketResolver{store: store, source: source, ttl: ttl, staleness: staleness, logger: logger}
}

// Resolve returns the canonical ticket for the key.
func (r *TicketResolver) Resolve(ctx context.Context, ticketKey string) (*domain.Ticket, error) {
	now := time.Now()

	cached, err := r.store.Get(ctx, ticketKey)
	if err != nil {
		r.logger.Warn("ticket store lookup failed", zap.String("ticket_key", ticketKey), zap.Error(err))
		cached = nil
	}
	if cached != nil && !cached.Expired(now) && !cached.Stale(now, r.staleness) {
		return cached, nil
	}

	fetched, err := r.source.Fetch(ctx, ticketKey)
	if err != nil {
		// A stale but unexpired copy still serves when the source is down.
		if cached != nil && !cached.Expired(now) {
			r.logger.Warn("ticket source unavailable, serving cached copy",
				zap.String("ticket_key", ticketKey), zap.Error(err))
			return cached, nil
		}
		if errors.Is(err, jira.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_key": ticketKey})
		}
		return nil, apperrors.NewUpstreamError("ticket source unreachable", err)
	}

	fetched.LastSyncedAt = now
	if r.ttl > 0 {
		expires := now.Add(r.ttl)
		fetched.ExpiresAt = &expires
	}
	if cached != nil {
		fetched.ID = cached.ID
		fetched.CreatedAt = cached.CreatedAt
	}
	if fetched.CreatedAt.IsZero() {
		fetched.CreatedAt = now
	}
	fetched.UpdatedAt = now

	if err := r.store.Put(ctx, fetched); err != nil {
		// Persisting is best effort; the resolved ticket is still usable.
		r.logger.Warn("ticket store write failed", zap.String("ticket_key", ticketKey), zap.Error(err))
	}
	return fetched, nil
}
