package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/advisor"
	"github.com/spec-kit/impactlens/internal/domain"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// InsightSynthesizer orchestrates advisor calls and validates their
// shape. Malformed advisor output fails loudly instead of producing an
// empty report.
type InsightSynthesizer struct {
	advisor advisor.InsightAdvisor
	logger  *zap.Logger
}

// NewInsightSynthesizer constructs the synthesizer.
func NewInsightSynthesizer(insight advisor.InsightAdvisor, logger *zap.Logger) *InsightSynthesizer {
	return &InsightSynthesizer{advisor: insight, logger: logger}
}

// Synthesize derives the gap analysis, regression areas and summary for
// the source ticket and its related set.
func (s *InsightSynthesizer) Synthesize(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (*domain.Insight, error) {
	gap, err := s.advisor.AnalyzeGaps(ctx, source, related)
	if err != nil {
		return nil, apperrors.NewUpstreamError("gap analysis failed", err)
	}
	if err := validateGap(gap); err != nil {
		return nil, err
	}

	areas, err := s.advisor.SuggestRegressionAreas(ctx, source, related)
	if err != nil {
		return nil, apperrors.NewUpstreamError("regression area suggestion failed", err)
	}
	if err := validateAreas(areas); err != nil {
		return nil, err
	}

	summary, err := s.advisor.Summarize(ctx, source, related)
	if err != nil {
		return nil, apperrors.NewUpstreamError("summary generation failed", err)
	}
	if strings.TrimSpace(summary) == "" {
		return nil, apperrors.NewSynthesisError("advisor returned an empty summary", nil)
	}

	return &domain.Insight{Gap: gap, Areas: areas, Summary: summary}, nil
}

func validateGap(gap domain.GapFinding) error {
	if !gap.Severity.Valid() {
		return apperrors.NewSynthesisError("gap finding carries an unknown severity",
			map[string]any{"severity": string(gap.Severity)})
	}
	if strings.TrimSpace(gap.Description) == "" {
		return apperrors.NewSynthesisError("gap finding has an empty description", nil)
	}
	return nil
}

func validateAreas(areas []domain.RegressionArea) error {
	if len(areas) == 0 {
		return apperrors.NewSynthesisError("advisor returned no regression areas", nil)
	}
	for _, area := range areas {
		if len(area.TestCases) == 0 {
			return apperrors.NewSynthesisError("regression area has no test cases",
				map[string]any{"area": area.Area})
		}
		if !area.RiskLevel.Valid() {
			return apperrors.NewSynthesisError("regression area carries an unknown risk level",
				map[string]any{"area": area.Area, "risk_level": string(area.RiskLevel)})
		}
	}
	return nil
}
