package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/impactlens/internal/domain"
)

// ReportAssembler composes the final result envelope. Aside from the
// generated analysis ID and completion timestamp it is a pure function
// of its inputs, so recommendations stay deterministic and testable.
type ReportAssembler struct {
	modelUsed string
}

// NewReportAssembler constructs the assembler.
func NewReportAssembler(modelUsed string) *ReportAssembler {
	return &ReportAssembler{modelUsed: modelUsed}
}

// Assemble builds a completed AnalysisResult from the pipeline outputs.
// CacheHit is always false here; the cache overrides it on served hits.
func (a *ReportAssembler) Assemble(ticketKey string, ticket *domain.Ticket, related []domain.RelatedTicket, insight *domain.Insight, elapsed time.Duration) *domain.AnalysisResult {
	if related == nil {
		related = []domain.RelatedTicket{}
	}
	return &domain.AnalysisResult{
		AnalysisID: uuid.NewString(),
		TicketKey:  ticketKey,
		Status:     domain.AnalysisStatusCompleted,
		Report: domain.AnalysisReport{
			Summary:         insight.Summary,
			GapsIdentified:  []domain.GapFinding{insight.Gap},
			RelatedTickets:  related,
			RegressionAreas: insight.Areas,
			Recommendations: recommendations(related, insight),
		},
		Metadata: domain.AnalysisMetadata{
			ProcessingTimeMillis: elapsed.Milliseconds(),
			TicketsAnalyzed:      len(related) + 1,
			CacheHit:             false,
			CompletedAt:          time.Now(),
			ModelUsed:            a.modelUsed,
		},
	}
}

// recommendations is a fixed policy keyed on what the analysis found,
// deliberately not model-generated.
func recommendations(related []domain.RelatedTicket, insight *domain.Insight) []string {
	recs := make([]string, 0, 4)
	if len(related) > 0 {
		recs = append(recs, "Review related tickets for potential conflicts")
		recs = append(recs, "Consider impact on existing functionality")
	}
	if insight.Gap.Severity.Rank() >= domain.SeverityHigh.Rank() {
		recs = append(recs, "Resolve the identified requirement gap before implementation")
	}
	if len(insight.Areas) > 0 {
		recs = append(recs, "Plan regression testing for affected areas")
	}
	recs = append(recs, "Update documentation if needed")
	return recs
}
