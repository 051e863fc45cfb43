package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapToStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("listing", "lst-1").Status)
	assert.Equal(t, http.StatusBadRequest, InvalidInput("bad").Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("nope").Status)
	assert.Equal(t, http.StatusTooManyRequests, RateLimited("slow down").Status)
	assert.Equal(t, http.StatusServiceUnavailable, Unavailable("down", errors.New("x")).Status)
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).Status)
}

func TestRateLimitedIsDistinctFromValidation(t *testing.T) {
	err := RateLimited("slow down")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "RATE_LIMITED", err.Code)
}

func TestHTTPStatusUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("listing", "lst-1"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(fmt.Errorf("x: %w", ErrRateLimited)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Unavailable("index down", errors.New("dial tcp refused"))
	assert.Contains(t, err.Error(), "SERVICE_UNAVAILABLE")
	assert.Contains(t, err.Error(), "dial tcp refused")
}
