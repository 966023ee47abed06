package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/config"
	"github.com/spec-kit/impactlens/internal/domain"
)

// Client talks to the Jira REST API v2.
type Client struct {
	baseURL     string
	email       string
	apiToken    string
	searchLimit int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient builds a Jira-backed TicketSource.
func NewClient(cfg config.JiraConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		email:       cfg.Email,
		apiToken:    cfg.APIToken,
		searchLimit: cfg.SearchLimit,
		httpClient:  &http.Client{Timeout: cfg.Timeout()},
		logger:      logger,
	}
}

type issuePayload struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Status      namedField  `json:"status"`
	Priority    namedField  `json:"priority"`
	Assignee    personField `json:"assignee"`
	Reporter    personField `json:"reporter"`
	Created     string      `json:"created"`
	Updated     string      `json:"updated"`
}

type namedField struct {
	Name string `json:"name"`
}

type personField struct {
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

type searchPayload struct {
	Issues []issuePayload `json:"issues"`
}

// Fetch retrieves a single issue by key.
func (c *Client) Fetch(ctx context.Context, ticketKey string) (*domain.Ticket, error) {
	endpoint := fmt.Sprintf("%s/rest/api/2/issue/%s", c.baseURL, url.PathEscape(ticketKey))
	var payload issuePayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	ticket := payload.toTicket()
	return &ticket, nil
}

// Search runs a bounded JQL text search.
func (c *Client) Search(ctx context.Context, queryText string) ([]domain.Ticket, error) {
	jql := fmt.Sprintf(`text ~ %s ORDER BY updated DESC`, strconv.Quote(queryText))
	endpoint := fmt.Sprintf("%s/rest/api/2/search?jql=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(jql), c.searchLimit)
	var payload searchPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	tickets := make([]domain.Ticket, 0, len(payload.Issues))
	for _, issue := range payload.Issues {
		tickets = append(tickets, issue.toTicket())
	}
	return tickets, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (p issuePayload) toTicket() domain.Ticket {
	raw, _ := json.Marshal(p)
	now := time.Now()
	ticket := domain.Ticket{
		Key:          p.Key,
		SourceID:     p.ID,
		Summary:      p.Fields.Summary,
		Description:  p.Fields.Description,
		Status:       normalizeStatus(p.Fields.Status.Name),
		Priority:     normalizePriority(p.Fields.Priority.Name),
		Assignee:     p.Fields.Assignee.EmailAddress,
		Reporter:     p.Fields.Reporter.EmailAddress,
		RawData:      string(raw),
		LastSyncedAt: now,
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000-0700", p.Fields.Created); err == nil {
		ticket.CreatedAt = t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.000-0700", p.Fields.Updated); err == nil {
		ticket.UpdatedAt = t
	}
	return ticket
}

func normalizeStatus(name string) domain.TicketStatus {
	switch name {
	case "In Progress":
		return domain.TicketStatusInProgress
	case "In Review":
		return domain.TicketStatusInReview
	case "Done", "Closed", "Resolved":
		return domain.TicketStatusDone
	case "Blocked":
		return domain.TicketStatusBlocked
	default:
		return domain.TicketStatusToDo
	}
}

func normalizePriority(name string) domain.TicketPriority {
	switch name {
	case "Highest", "Critical", "Blocker":
		return domain.TicketPriorityCritical
	case "High":
		return domain.TicketPriorityHigh
	case "Low", "Lowest":
		return domain.TicketPriorityLow
	default:
		return domain.TicketPriorityMedium
	}
}
