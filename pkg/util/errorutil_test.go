package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("ticket source unreachable", cause)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeUpstreamFailure, domainErr.Code)
	assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus)
	assert.ErrorIs(t, err, cause)
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	plain := errors.New("something broke")

	domainErr := ToDomainError(plain)
	require.NotNil(t, domainErr)
	assert.Equal(t, CodeInternal, domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}

func TestHasCodeAndCodeOf(t *testing.T) {
	err := NewValidationError("bad input", map[string]any{"field": "ticket_key"})

	assert.True(t, HasCode(err, CodeValidationFailed))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, CodeValidationFailed, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestNotFoundCarriesResourceName(t *testing.T) {
	err := NewNotFound("ticket", map[string]any{"ticket_key": "ZZZ-9"})

	domainErr := ToDomainError(err)
	assert.Equal(t, "ticket not found", domainErr.Message)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
	assert.Equal(t, "ZZZ-9", domainErr.Details["ticket_key"])
}
