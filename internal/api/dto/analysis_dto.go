package dto

import (
	"github.com/spec-kit/impactlens/internal/domain"
)

// AnalyzeOptions carries optional analysis tuning knobs. Absent numeric
// fields fall back to configured defaults; zero is meaningful for both
// max_related_tickets and min_relevance_score, so both are pointers.
type AnalyzeOptions struct {
	IncludeComments    bool     `json:"include_comments"`
	IncludeAttachments bool     `json:"include_attachments"`
	AnalysisDepth      string   `json:"analysis_depth"`
	MaxRelatedTickets  *int     `json:"max_related_tickets"`
	MinRelevanceScore  *float64 `json:"min_relevance_score"`
}

// AnalyzeRequest payload.
type AnalyzeRequest struct {
	TicketKey string          `json:"ticket_key"`
	Options   *AnalyzeOptions `json:"options"`
}

// AnalysisResponse is the full analysis envelope.
type AnalysisResponse struct {
	AnalysisID string                  `json:"analysis_id"`
	TicketKey  string                  `json:"ticket_key"`
	Status     domain.AnalysisStatus   `json:"status"`
	Report     domain.AnalysisReport   `json:"report"`
	Metadata   domain.AnalysisMetadata `json:"metadata"`
}

// AnalysisSummary is the condensed listing projection.
type AnalysisSummary struct {
	AnalysisID      string                `json:"analysis_id"`
	TicketKey       string                `json:"ticket_key"`
	Status          domain.AnalysisStatus `json:"status"`
	TicketsAnalyzed int                   `json:"tickets_analyzed"`
	CompletedAt     string                `json:"completed_at"`
	ModelUsed       string                `json:"model_used"`
}

// AnalysisListResponse wraps a history page.
type AnalysisListResponse struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// TokenRequest exchanges a service API key for a JWT.
type TokenRequest struct {
	APIKey     string `json:"api_key"`
	ClientName string `json:"client_name"`
}

// TokenResponse carries the issued token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// FromAnalysisResult maps a domain result onto the response DTO.
func FromAnalysisResult(result *domain.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		AnalysisID: result.AnalysisID,
		TicketKey:  result.TicketKey,
		Status:     result.Status,
		Report:     result.Report,
		Metadata:   result.Metadata,
	}
}
