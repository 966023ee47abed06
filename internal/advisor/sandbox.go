package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/impactlens/internal/domain"
)

const sandboxModel = "sandbox"

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "with": true, "when": true, "should": true,
}

// SandboxAdvisor is a fully deterministic stand-in for the model-backed
// advisor: keywords come from token frequency and relevance scores from
// token overlap, so repeated runs rank identically.
type SandboxAdvisor struct {
	maxKeywords int
}

// NewSandboxAdvisor builds the sandbox advisor.
func NewSandboxAdvisor(maxKeywords int) *SandboxAdvisor {
	if maxKeywords <= 0 {
		maxKeywords = 6
	}
	return &SandboxAdvisor{maxKeywords: maxKeywords}
}

// Model reports the sandbox engine identifier.
func (a *SandboxAdvisor) Model() string {
	return sandboxModel
}

// ExtractKeywords returns the most frequent non-stopword tokens.
func (a *SandboxAdvisor) ExtractKeywords(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	counts := map[string]int{}
	for _, token := range tokenize(ticket.Summary + " " + ticket.Description) {
		counts[token]++
	}
	tokens := make([]string, 0, len(counts))
	for token := range counts {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > a.maxKeywords {
		tokens = tokens[:a.maxKeywords]
	}
	return tokens, nil
}

// Score computes Jaccard overlap between the two tickets' token sets.
func (a *SandboxAdvisor) Score(ctx context.Context, source, candidate *domain.Ticket) (float64, error) {
	src := tokenSet(source.Summary + " " + source.Description)
	cnd := tokenSet(candidate.Summary + " " + candidate.Description)
	if len(src) == 0 || len(cnd) == 0 {
		return 0, nil
	}
	var shared int
	for token := range src {
		if cnd[token] {
			shared++
		}
	}
	union := len(src) + len(cnd) - shared
	return float64(shared) / float64(union), nil
}

// AnalyzeGaps returns a deterministic requirements gap for the ticket.
func (a *SandboxAdvisor) AnalyzeGaps(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (domain.GapFinding, error) {
	return domain.GapFinding{
		Category:    "Requirements",
		Description: fmt.Sprintf("Acceptance criteria for %q may not cover edge cases surfaced by related work.", source.Summary),
		Severity:    domain.SeverityMedium,
		Impact:      "Could lead to incomplete testing coverage",
		Suggestions: []string{
			"Add edge case scenarios to acceptance criteria",
			"Consider error handling requirements",
			"Review security implications",
		},
	}, nil
}

// SuggestRegressionAreas derives areas from the related tickets, with a
// baseline area for the source itself.
func (a *SandboxAdvisor) SuggestRegressionAreas(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) ([]domain.RegressionArea, error) {
	areas := []domain.RegressionArea{{
		Area:        "Primary change surface",
		Description: fmt.Sprintf("Functionality directly touched by %s", source.Key),
		RiskLevel:   domain.SeverityHigh,
		TestCases: []string{
			"Exercise the changed flow end to end",
			"Verify behavior with boundary inputs",
			"Confirm existing API contracts still hold",
		},
		Rationale: "The source ticket modifies this area directly",
	}}
	for i, rt := range related {
		if i >= 3 {
			break
		}
		areas = append(areas, domain.RegressionArea{
			Area:        rt.TicketKey,
			Description: "Overlapping functionality: " + rt.Summary,
			RiskLevel:   riskFromScore(rt.RelevanceScore),
			TestCases: []string{
				"Re-run acceptance tests for " + rt.TicketKey,
				"Check shared data paths between " + source.Key + " and " + rt.TicketKey,
			},
			Rationale: fmt.Sprintf("Relevance score %.2f against the source ticket", rt.RelevanceScore),
		})
	}
	return areas, nil
}

// Summarize formats a deterministic report summary.
func (a *SandboxAdvisor) Summarize(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (string, error) {
	return fmt.Sprintf("Analysis of ticket %s identified %d related tickets with potential impacts on %s.",
		source.Key, len(related), source.Summary), nil
}

func riskFromScore(score float64) domain.Severity {
	switch {
	case score >= 0.7:
		return domain.SeverityHigh
	case score >= 0.4:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func tokenSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, token := range tokenize(text) {
		set[token] = true
	}
	return set
}
