package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validation(CodeValidation, "bad"), http.StatusBadRequest},
		{SoldOut("none left"), http.StatusBadRequest},
		{Declined("card declined", nil), http.StatusBadRequest},
		{Unauthorized(CodeUnauthorized, "no token"), http.StatusUnauthorized},
		{Forbidden("admins only"), http.StatusForbidden},
		{NotFound(CodeEventNotFound, "missing"), http.StatusNotFound},
		{Conflict(CodePaymentInProgress, "busy"), http.StatusConflict},
		{Internal("", "boom", errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Code)
	}
}

func TestFrom_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("purchase: %w", SoldOut("No tickets available for this event"))

	got := From(wrapped)
	assert.Equal(t, CodeSoldOut, got.Code)
	assert.True(t, IsKind(wrapped, KindSoldOut))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestFrom_PlainErrorBecomesOpaqueInternal(t *testing.T) {
	cause := errors.New("connection refused")
	got := From(cause)

	assert.Equal(t, KindInternal, got.Kind)
	assert.Equal(t, "Internal server error", got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestInternal_DefaultsCode(t *testing.T) {
	assert.Equal(t, CodeInternal, Internal("", "x", nil).Code)
	assert.Equal(t, CodePasswordHash, Internal(CodePasswordHash, "x", nil).Code)
}
