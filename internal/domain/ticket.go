package domain

import "time"

// TicketStatus mirrors the status reported by the upstream tracker.
type TicketStatus string

const (
	TicketStatusToDo       TicketStatus = "TO_DO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusInReview   TicketStatus = "IN_REVIEW"
	TicketStatusDone       TicketStatus = "DONE"
	TicketStatusBlocked    TicketStatus = "BLOCKED"
)

// TicketPriority mirrors the priority reported by the upstream tracker.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the canonical record of a tracker work item. The key is
// globally unique and immutable once assigned; the resolver and the
// ticket store are the only components that write tickets.
type Ticket struct {
	ID           string
	Key          string
	SourceID     string
	Summary      string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	Assignee     string
	Reporter     string
	RawData      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
	ExpiresAt    *time.Time
}

// Expired reports whether the ticket's TTL has passed.
func (t *Ticket) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}

// Stale reports whether the last sync is older than the given threshold.
func (t *Ticket) Stale(now time.Time, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}
	return now.Sub(t.LastSyncedAt) > threshold
}
