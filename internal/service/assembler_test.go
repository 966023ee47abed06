package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/impactlens/internal/domain"
)

func insightFixture(severity domain.Severity, areas int) *domain.Insight {
	insight := &domain.Insight{
		Gap:     domain.GapFinding{Category: "Requirements", Description: "gap", Severity: severity},
		Summary: "summary",
	}
	for i := 0; i < areas; i++ {
		insight.Areas = append(insight.Areas, domain.RegressionArea{
			Area: "area", RiskLevel: domain.SeverityMedium, TestCases: []string{"case"},
		})
	}
	return insight
}

func TestAssembleBuildsCompletedResult(t *testing.T) {
	ticket := ticketFixture("ABC-1", "source")
	related := []domain.RelatedTicket{{TicketKey: "DEF-2", RelevanceScore: 0.8}}

	result := NewReportAssembler("gpt-4").Assemble("ABC-1", &ticket, related, insightFixture(domain.SeverityMedium, 1), 1500*time.Millisecond)

	assert.NotEmpty(t, result.AnalysisID)
	assert.Equal(t, "ABC-1", result.TicketKey)
	assert.Equal(t, domain.AnalysisStatusCompleted, result.Status)
	assert.Equal(t, int64(1500), result.Metadata.ProcessingTimeMillis)
	assert.Equal(t, 2, result.Metadata.TicketsAnalyzed)
	assert.False(t, result.Metadata.CacheHit)
	assert.Equal(t, "gpt-4", result.Metadata.ModelUsed)
	require.Len(t, result.Report.GapsIdentified, 1)
	assert.Equal(t, related, result.Report.RelatedTickets)
}

func TestAssembleNilRelatedBecomesEmptySlice(t *testing.T) {
	ticket := ticketFixture("ABC-1", "source")

	result := NewReportAssembler("gpt-4").Assemble("ABC-1", &ticket, nil, insightFixture(domain.SeverityLow, 0), time.Second)

	assert.NotNil(t, result.Report.RelatedTickets)
	assert.Empty(t, result.Report.RelatedTickets)
	assert.Equal(t, 1, result.Metadata.TicketsAnalyzed)
}

func TestRecommendationPolicy(t *testing.T) {
	related := []domain.RelatedTicket{{TicketKey: "DEF-2"}}

	recs := recommendations(related, insightFixture(domain.SeverityHigh, 1))
	assert.Equal(t, []string{
		"Review related tickets for potential conflicts",
		"Consider impact on existing functionality",
		"Resolve the identified requirement gap before implementation",
		"Plan regression testing for affected areas",
		"Update documentation if needed",
	}, recs)

	recs = recommendations(nil, insightFixture(domain.SeverityLow, 0))
	assert.Equal(t, []string{"Update documentation if needed"}, recs)
}
