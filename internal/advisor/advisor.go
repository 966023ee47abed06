package advisor

import (
	"context"

	"github.com/spec-kit/impactlens/internal/domain"
)

// InsightAdvisor produces keywords, pairwise relevance scores, gap
// analyses, regression-area suggestions, and summaries. Calls have no
// side effects on ticket data.
type InsightAdvisor interface {
	ExtractKeywords(ctx context.Context, ticket *domain.Ticket) ([]string, error)
	Score(ctx context.Context, source, candidate *domain.Ticket) (float64, error)
	AnalyzeGaps(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (domain.GapFinding, error)
	SuggestRegressionAreas(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) ([]domain.RegressionArea, error)
	Summarize(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (string, error)
	Model() string
}
