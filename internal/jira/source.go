package jira

import (
	"context"
	"errors"

	"github.com/spec-kit/impactlens/internal/domain"
)

// Sentinel errors surfaced by TicketSource implementations.
var (
	ErrNotFound    = errors.New("ticket not found at source")
	ErrUnavailable = errors.New("ticket source unavailable")
)

// TicketSource fetches tickets and performs full-text search over the
// upstream tracker corpus. Search failures are non-fatal per call.
type TicketSource interface {
	Fetch(ctx context.Context, ticketKey string) (*domain.Ticket, error)
	Search(ctx context.Context, queryText string) ([]domain.Ticket, error)
}
