package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/impactlens/internal/config"
	"github.com/spec-kit/impactlens/internal/domain"
)

// OpenAIClient implements InsightAdvisor against an OpenAI-compatible
// chat completions endpoint.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIClient builds the advisor client.
func NewOpenAIClient(cfg config.AdvisorConfig, logger *zap.Logger) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

// Model reports the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractKeywords asks the model for search keywords describing the ticket.
func (c *OpenAIClient) ExtractKeywords(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	prompt := fmt.Sprintf(
		"Extract up to 6 short search keywords for the following issue. "+
			"Respond with a JSON array of strings only.\nSummary: %s\nDescription: %s",
		ticket.Summary, ticket.Description)
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var keywords []string
	if err := json.Unmarshal([]byte(content), &keywords); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}
	return keywords, nil
}

// Score asks the model for a pairwise relevance score in [0,1].
func (c *OpenAIClient) Score(ctx context.Context, source, candidate *domain.Ticket) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate the relevance of ticket B to ticket A between 0.0 and 1.0. "+
			"Respond with the number only.\nA: %s - %s\nB: %s - %s",
		source.Key, source.Summary, candidate.Key, candidate.Summary)
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return 0, err
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
	if err != nil {
		return 0, fmt.Errorf("parse score: %w", err)
	}
	return clamp01(score), nil
}

// AnalyzeGaps asks the model for a requirement gap finding.
func (c *OpenAIClient) AnalyzeGaps(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (domain.GapFinding, error) {
	prompt := fmt.Sprintf(
		"Identify the most important requirement gap for the issue below, considering %d related issues. "+
			"Respond with JSON: {category, description, severity(low|medium|high|critical), impact, suggestions[]}.\n%s: %s\n%s",
		len(related), source.Key, source.Summary, source.Description)
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.GapFinding{}, err
	}
	var gap domain.GapFinding
	if err := json.Unmarshal([]byte(content), &gap); err != nil {
		return domain.GapFinding{}, fmt.Errorf("parse gap analysis: %w", err)
	}
	return gap, nil
}

// SuggestRegressionAreas asks the model for regression-risk areas.
func (c *OpenAIClient) SuggestRegressionAreas(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) ([]domain.RegressionArea, error) {
	prompt := fmt.Sprintf(
		"Suggest regression test areas affected by this change, considering %d related issues. "+
			"Respond with a JSON array: [{area, description, risk_level(low|medium|high|critical), test_cases[], rationale}].\n%s: %s\n%s",
		len(related), source.Key, source.Summary, source.Description)
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var areas []domain.RegressionArea
	if err := json.Unmarshal([]byte(content), &areas); err != nil {
		return nil, fmt.Errorf("parse regression areas: %w", err)
	}
	return areas, nil
}

// Summarize asks the model for a report summary.
func (c *OpenAIClient) Summarize(ctx context.Context, source *domain.Ticket, related []domain.RelatedTicket) (string, error) {
	keys := make([]string, 0, len(related))
	for _, rt := range related {
		keys = append(keys, rt.TicketKey)
	}
	prompt := fmt.Sprintf(
		"Write a concise impact summary for ticket %s (%s) given related tickets [%s]. Plain text only.",
		source.Key, source.Summary, strings.Join(keys, ", "))
	return c.complete(ctx, prompt)
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You analyze software issue trackers. Answer exactly in the requested format."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("advisor request: status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("advisor response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("advisor response: no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
