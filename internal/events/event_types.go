package events

import (
	"time"

	"github.com/spec-kit/impactlens/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
	EventTicketSynced      EventType = "ticket_synced"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketKey string      `json:"ticket_key"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AnalysisCompletedPayload payload.
type AnalysisCompletedPayload struct {
	AnalysisID      string `json:"analysis_id"`
	RelatedTickets  int    `json:"related_tickets"`
	TicketsAnalyzed int    `json:"tickets_analyzed"`
	CacheHit        bool   `json:"cache_hit"`
	ProcessingMS    int64  `json:"processing_ms"`
}

// AnalysisFailedPayload payload.
type AnalysisFailedPayload struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// TicketSyncedPayload payload.
type TicketSyncedPayload struct {
	SourceID string                `json:"source_id"`
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
}
