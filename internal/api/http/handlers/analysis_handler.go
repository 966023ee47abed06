package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/impactlens/internal/api/dto"
	"github.com/spec-kit/impactlens/internal/domain"
	"github.com/spec-kit/impactlens/internal/service"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// AnalysisHandler manages impact analysis endpoints.
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: analysisService}
}

// Analyze POST /api/analysis/analyze.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketKey == "" {
		return apperrors.NewValidationError("ticket_key required", nil)
	}

	opts := service.AnalysisOptions{}
	if req.Options != nil {
		opts = service.AnalysisOptions{
			IncludeComments:    req.Options.IncludeComments,
			IncludeAttachments: req.Options.IncludeAttachments,
			AnalysisDepth:      service.AnalysisDepth(req.Options.AnalysisDepth),
			MaxRelatedTickets:  req.Options.MaxRelatedTickets,
			MinRelevanceScore:  req.Options.MinRelevanceScore,
		}
	}

	result, err := h.service.Analyze(c.UserContext(), req.TicketKey, opts)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAnalysisResult(result)})
}

// GetStatus GET /api/analysis/status/:id.
func (h *AnalysisHandler) GetStatus(c *fiber.Ctx) error {
	result, err := h.service.GetAnalysis(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAnalysisResult(result)})
}

// History GET /api/analysis/history.
func (h *AnalysisHandler) History(c *fiber.Ctx) error {
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100
	}

	results, err := h.service.ListAnalyses(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.AnalysisSummary, 0, len(results))
	for i := range results {
		items = append(items, analysisSummary(&results[i]))
	}
	return c.JSON(fiber.Map{"data": dto.AnalysisListResponse{
		Analyses: items,
		Page:     page,
		PageSize: pageSize,
	}})
}

// Delete DELETE /api/analysis/:id.
func (h *AnalysisHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.DeleteAnalysis(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func analysisSummary(result *domain.AnalysisResult) dto.AnalysisSummary {
	return dto.AnalysisSummary{
		AnalysisID:      result.AnalysisID,
		TicketKey:       result.TicketKey,
		Status:          result.Status,
		TicketsAnalyzed: result.Metadata.TicketsAnalyzed,
		CompletedAt:     result.Metadata.CompletedAt.Format(time.RFC3339),
		ModelUsed:       result.Metadata.ModelUsed,
	}
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
