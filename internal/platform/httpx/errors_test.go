package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/storefront/internal/shared"
)

func TestRespondErrorShapes(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", fmt.Errorf("%w: email is required", shared.ErrValidation), http.StatusBadRequest, "validation failed: email is required"},
		{"conflict", fmt.Errorf("account: %w", shared.ErrConflict), http.StatusBadRequest, "account: already exists"},
		{"credentials", shared.ErrInvalidCredentials, http.StatusBadRequest, MsgInvalidCredentials},
		{"forbidden", shared.ErrForbidden, http.StatusForbidden, MsgForbidden},
		{"not found", fmt.Errorf("product: %w", shared.ErrNotFound), http.StatusNotFound, "product: not found"},
		{"internal", errors.New("pool closed"), http.StatusInternalServerError, MsgInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)

			var body FailureBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

func TestRespondErrorUnauthenticatedUsesMessageOnly(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.ErrUnauthenticated)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"message": MsgUnauthenticated}, body)
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	type payload struct {
		FirstName string `json:"firstName" validate:"required"`
		Gender    string `json:"gender" validate:"required,oneof=Male Female"`
	}
	err := Validate(NewValidator(), payload{Gender: "Other"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "firstName is required")
	assert.Contains(t, err.Error(), "gender must be one of [Male Female]")
}
