package service

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/jira"
)

// fakeStore is an in-memory TicketStore with call counters.
type fakeStore struct {
	mu        sync.Mutex
	tickets   map[string]domain.Ticket
	getErr    error
	putErr    error
	searchErr error
	gets      int
	puts      int
	searches  int
}

func newFakeStore(tickets ...domain.Ticket) *fakeStore {
	s := &fakeStore{tickets: make(map[string]domain.Ticket)}
	for _, t := range tickets {
		s.tickets[t.Key] = t
	}
	return s
}

func (s *fakeStore) Get(ctx context.Context, key string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	t, ok := s.tickets[key]
	if !ok {
		return nil, nil
	}
	copied := t
	return &copied, nil
}

func (s *fakeStore) Put(ctx context.Context, ticket *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.tickets[ticket.Key] = *ticket
	return nil
}

func (s *fakeStore) Search(ctx context.Context, query string) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return nil, nil
}

func (s *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, t := range s.tickets {
		if t.Expired(now) {
			delete(s.tickets, key)
			removed++
		}
	}
	return removed, nil
}

func (s *fakeStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// fakeSource is a scripted TicketSource.
type fakeSource struct {
	mu        sync.Mutex
	tickets   map[string]domain.Ticket
	results   map[string][]domain.Ticket
	fetchErr  error
	searchErr error
	fetches   int
}

func newFakeSource(tickets ...domain.Ticket) *fakeSource {
	s := &fakeSource{
		tickets: make(map[string]domain.Ticket),
		results: make(map[string][]domain.Ticket),
	}
	for _, t := range tickets {
		s.tickets[t.Key] = t
	}
	return s
}

func (s *fakeSource) Fetch(ctx context.Context, key string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	t, ok := s.tickets[key]
	if !ok {
		return nil, jira.ErrNotFound
	}
	copied := t
	return &copied, nil
}

func (s *fakeSource) Search(ctx context.Context, query string) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results[query], nil
}

// fakeAdvisor returns scripted keywords and per-key scores.
type fakeAdvisor struct {
	keywords    []string
	keywordsErr error
	scores      map[string]float64
	scoreErr    error
	gap         *domain.GapFinding
	gapErr      error
	areas       []domain.RegressionArea
	areasErr    error
	summary     string
	summaryErr  error
}

func newFakeAdvisor() *fakeAdvisor {
	return &fakeAdvisor{
		scores:  map[string]float64{},
		summary: "scripted summary",
	}
}

func (a *fakeAdvisor) Model() string { return "fake" }

func (a *fakeAdvisor) ExtractKeywords(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	if a.keywordsErr != nil {
		return nil, a.keywordsErr
	}
	return a.keywords, nil
}

func (a *fakeAdvisor) Score(ctx context.Context, source, candidate *domain.Ticket) (float64, error) {
	if a.scoreErr != nil {
		return 0, a.scoreErr
	}
	return a.scores[candidate.Key], nil
}

func (a *fakeAdvisor) AnalyzeGaps(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (domain.GapFinding, error) {
	if a.gapErr != nil {
		return domain.GapFinding{}, a.gapErr
	}
	if a.gap != nil {
		return *a.gap, nil
	}
	return domain.GapFinding{
		Category:    "Requirements",
		Description: "scripted gap",
		Severity:    domain.SeverityMedium,
	}, nil
}

func (a *fakeAdvisor) SuggestRegressionAreas(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) ([]domain.RegressionArea, error) {
	if a.areasErr != nil {
		return nil, a.areasErr
	}
	if a.areas != nil {
		return a.areas, nil
	}
	return []domain.RegressionArea{{
		Area:      "core",
		RiskLevel: domain.SeverityHigh,
		TestCases: []string{"regression pass"},
	}}, nil
}

func (a *fakeAdvisor) Summarize(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (string, error) {
	if a.summaryErr != nil {
		return "", a.summaryErr
	}
	return a.summary, nil
}

func ticketFixture(key, summary string) domain.Ticket {
	now := time.Now()
	return domain.Ticket{
		Key:       key,
		Summary:   summary,
		Status:    domain.TicketStatusToDo,
		Priority:  domain.TicketPriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
