package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/impactlens/internal/api/dto"
	"github.com/spec-kit/impactlens/internal/auth"
	apperrors "github.com/spec-kit/impactlens/pkg/util"
)

// TokenHandler exchanges a service API key for a bearer token.
type TokenHandler struct {
	tokens *auth.TokenManager
	apiKey string
}

// NewTokenHandler constructs handler.
func NewTokenHandler(tokens *auth.TokenManager, apiKey string) *TokenHandler {
	return &TokenHandler{tokens: tokens, apiKey: apiKey}
}

// Issue POST /auth/token.
func (h *TokenHandler) Issue(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.APIKey == "" {
		return apperrors.NewValidationError("api_key required", nil)
	}
	if h.apiKey == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		return apperrors.NewUnauthorized("invalid api key")
	}

	clientName := req.ClientName
	if clientName == "" {
		clientName = "default"
	}
	token, expiresAt, err := h.tokens.GenerateToken(clientName)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}})
}
