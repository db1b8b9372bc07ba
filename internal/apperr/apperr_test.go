package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusAndMessage(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		status  int
		message string
		is      error
	}{
		{name: "validation", err: Validation("userId is required"), status: http.StatusBadRequest, message: "userId is required", is: ErrValidation},
		{name: "not found", err: NotFound("plan %s not found", "p1"), status: http.StatusNotFound, message: "plan p1 not found", is: ErrNotFound},
		{name: "invalid state", err: InvalidState("plan is not active"), status: http.StatusBadRequest, message: "plan is not active", is: ErrInvalidState},
		{name: "out of range", err: OutOfRange("too small"), status: http.StatusBadRequest, message: "too small", is: ErrOutOfRange},
		{name: "insufficient funds", err: InsufficientFunds("insufficient balance"), status: http.StatusBadRequest, message: "insufficient balance", is: ErrInsufficientFunds},
		{name: "store error", err: fmt.Errorf("failed to load plan: %w", errors.New("connection reset")), status: http.StatusInternalServerError, message: "internal server error"},
		{name: "unclassified", err: errors.New("boom"), status: http.StatusInternalServerError, message: "internal server error"},
		{name: "wrapped", err: fmt.Errorf("create investment: %w", OutOfRange("too large")), status: http.StatusBadRequest, message: "too large", is: ErrOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
			assert.Equal(t, tc.message, PublicMessage(tc.err))
			if tc.is != nil {
				assert.ErrorIs(t, tc.err, tc.is)
			}
		})
	}
}

func TestErrorIs_DistinguishesKinds(t *testing.T) {
	err := NotFound("wallet not found")
	assert.False(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, "not_found", KindOf(err).String())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("invalid character")
	err := &Error{Kind: KindValidation, Message: "invalid request body", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid request body", PublicMessage(err))
	assert.Contains(t, err.Error(), "invalid character")
}
