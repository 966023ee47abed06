package jira

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/spec-kit/impactlens/internal/domain"
)

// SandboxSource is a development stand-in for Jira. Output is stable for
// a given input so pipeline runs stay reproducible.
type SandboxSource struct {
	resultsPerQuery int
}

// NewSandboxSource builds the sandbox source.
func NewSandboxSource(resultsPerQuery int) *SandboxSource {
	if resultsPerQuery <= 0 {
		resultsPerQuery = 5
	}
	return &SandboxSource{resultsPerQuery: resultsPerQuery}
}

// Fetch returns a synthetic ticket for the given key.
func (s *SandboxSource) Fetch(ctx context.Context, ticketKey string) (*domain.Ticket, error) {
	now := time.Now()
	ticket := domain.Ticket{
		Key:          ticketKey,
		SourceID:     fmt.Sprintf("%d", seed(ticketKey)),
		Summary:      "Sample ticket for " + ticketKey,
		Description:  "Synthetic ticket generated by the sandbox source.",
		Status:       domain.TicketStatusToDo,
		Priority:     domain.TicketPriorityMedium,
		Assignee:     "developer@example.com",
		Reporter:     "product@example.com",
		RawData:      `{"sandbox":true}`,
		CreatedAt:    now.Add(-24 * time.Hour),
		UpdatedAt:    now,
		LastSyncedAt: now,
	}
	return &ticket, nil
}

// Search returns a stable synthetic result set for the query.
func (s *SandboxSource) Search(ctx context.Context, queryText string) ([]domain.Ticket, error) {
	base := seed(queryText)
	now := time.Now()
	tickets := make([]domain.Ticket, 0, s.resultsPerQuery)
	for i := 1; i <= s.resultsPerQuery; i++ {
		key := fmt.Sprintf("SBX-%d", base%900+uint32(i*7))
		tickets = append(tickets, domain.Ticket{
			Key:          key,
			SourceID:     fmt.Sprintf("%d", base+uint32(i)),
			Summary:      fmt.Sprintf("Related work touching %s (%d)", queryText, i),
			Description:  "Synthetic search hit for query: " + queryText,
			Status:       domain.TicketStatusInProgress,
			Priority:     domain.TicketPriorityHigh,
			Assignee:     "developer@example.com",
			Reporter:     "product@example.com",
			RawData:      `{"sandbox":true}`,
			CreatedAt:    now.Add(-time.Duration(i) * 24 * time.Hour),
			UpdatedAt:    now,
			LastSyncedAt: now,
		})
	}
	return tickets, nil
}

func seed(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(s)))
	return h.Sum32()%9000 + 100
}
