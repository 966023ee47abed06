package service

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/spec-kit/impactlens/internal/config"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// AnalysisDepth selects how thorough the analysis is.
type AnalysisDepth string

const (
	DepthQuick    AnalysisDepth = "quick"
	DepthDetailed AnalysisDepth = "detailed"
)

var ticketKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-\d+$`)

// AnalysisOptions is the caller-facing option set. Nil fields fall back
// to configured defaults; zero is a meaningful value for both
// MaxRelatedTickets and MinRelevanceScore, so both are pointers.
type AnalysisOptions struct {
	IncludeComments    bool
	IncludeAttachments bool
	AnalysisDepth      AnalysisDepth
	MaxRelatedTickets  *int
	MinRelevanceScore  *float64
}

// runOptions is the fully resolved option set a pipeline run uses.
// Two requests resolving to equal runOptions share a cache fingerprint.
type runOptions struct {
	IncludeComments    bool
	IncludeAttachments bool
	AnalysisDepth      AnalysisDepth
	MaxRelatedTickets  int
	MinRelevanceScore  float64
}

// resolveOptions applies defaults and validates the result.
func resolveOptions(cfg config.AnalysisConfig, opts AnalysisOptions) (runOptions, error) {
	resolved := runOptions{
		IncludeComments:    opts.IncludeComments,
		IncludeAttachments: opts.IncludeAttachments,
		AnalysisDepth:      opts.AnalysisDepth,
		MaxRelatedTickets:  cfg.DefaultMaxRelated,
		MinRelevanceScore:  cfg.DefaultMinScore,
	}
	if resolved.AnalysisDepth == "" {
		resolved.AnalysisDepth = AnalysisDepth(cfg.DefaultDepth)
	}
	if opts.MaxRelatedTickets != nil {
		resolved.MaxRelatedTickets = *opts.MaxRelatedTickets
	}
	if opts.MinRelevanceScore != nil {
		resolved.MinRelevanceScore = *opts.MinRelevanceScore
	}

	if resolved.MaxRelatedTickets < 0 {
		return runOptions{}, apperrors.NewValidationError("max_related_tickets must be >= 0",
			map[string]any{"max_related_tickets": resolved.MaxRelatedTickets})
	}
	if resolved.MinRelevanceScore < 0 || resolved.MinRelevanceScore > 1 {
		return runOptions{}, apperrors.NewValidationError("min_relevance_score must be within [0,1]",
			map[string]any{"min_relevance_score": resolved.MinRelevanceScore})
	}
	if resolved.AnalysisDepth != DepthQuick && resolved.AnalysisDepth != DepthDetailed {
		return runOptions{}, apperrors.NewValidationError("unknown analysis_depth",
			map[string]any{"analysis_depth": string(resolved.AnalysisDepth)})
	}
	return resolved, nil
}

// validateTicketKey enforces the PROJECT-123 key format.
func validateTicketKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !ticketKeyPattern.MatchString(key) {
		return "", apperrors.NewValidationError("ticket key must match PROJECT-123 format",
			map[string]any{"ticket_key": key})
	}
	return key, nil
}

// fingerprint hashes the request's semantic identity: ticket key plus
// every resolved option that changes pipeline output.
func fingerprint(ticketKey string, opts runOptions) string {
	canonical := fmt.Sprintf("%s|%t|%t|%s|%d|%.4f",
		ticketKey,
		opts.IncludeComments,
		opts.IncludeAttachments,
		opts.AnalysisDepth,
		opts.MaxRelatedTickets,
		opts.MinRelevanceScore,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(canonical)))
}
