package domain

import "time"

// Severity is the ordered scale shared by gap findings and regression
// risk levels.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Valid reports whether the severity is one of the fixed levels.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the ordinal position of the severity, 0 when unknown.
func (s Severity) Rank() int {
	return severityRank[s]
}

// RelationshipType classifies how a related ticket connects to the source.
type RelationshipType string

const (
	RelationshipSimilar    RelationshipType = "similar"
	RelationshipDependency RelationshipType = "dependency"
)

// RelatedTicket is the scored projection of a candidate ticket included
// in a report. Its key never equals the source ticket's key.
type RelatedTicket struct {
	TicketKey         string           `json:"ticket_key"`
	Summary           string           `json:"summary"`
	Status            TicketStatus     `json:"status"`
	Priority          TicketPriority   `json:"priority"`
	RelevanceScore    float64          `json:"relevance_score"`
	RelationshipType  RelationshipType `json:"relationship_type"`
	ImpactDescription string           `json:"impact_description"`
}

// GapFinding describes a requirement gap surfaced by the analysis.
type GapFinding struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Impact      string   `json:"impact"`
	Suggestions []string `json:"suggestions"`
}

// RegressionArea names a functional area at risk, with concrete test cases.
type RegressionArea struct {
	Area        string   `json:"area"`
	Description string   `json:"description"`
	RiskLevel   Severity `json:"risk_level"`
	TestCases   []string `json:"test_cases"`
	Rationale   string   `json:"rationale"`
}

// AnalysisReport is the assembled impact report. Immutable after assembly.
type AnalysisReport struct {
	Summary         string           `json:"summary"`
	GapsIdentified  []GapFinding     `json:"gaps_identified"`
	RelatedTickets  []RelatedTicket  `json:"related_tickets"`
	RegressionAreas []RegressionArea `json:"regression_areas"`
	Recommendations []string         `json:"recommendations"`
}

// AnalysisMetadata captures per-run processing facts. CacheHit and
// ProcessingTime are overridden when a result is served from cache.
type AnalysisMetadata struct {
	ProcessingTimeMillis int64     `json:"processing_time_ms"`
	TicketsAnalyzed      int       `json:"tickets_analyzed"`
	CacheHit             bool      `json:"cache_hit"`
	CompletedAt          time.Time `json:"completed_at"`
	ModelUsed            string    `json:"model_used"`
}

// AnalysisStatus enumerates run states.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// AnalysisResult is the versioned envelope produced once per run.
type AnalysisResult struct {
	AnalysisID string           `json:"analysis_id"`
	TicketKey  string           `json:"ticket_key"`
	Status     AnalysisStatus   `json:"status"`
	Report     AnalysisReport   `json:"report"`
	Metadata   AnalysisMetadata `json:"metadata"`
}

// Insight bundles the synthesizer's validated output.
type Insight struct {
	Gap     GapFinding
	Areas   []RegressionArea
	Summary string
}
