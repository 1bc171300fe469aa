package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/op-ladder/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrOutOfRange, http.StatusBadRequest},
		{fmt.Errorf("%w: 21", service.ErrOutOfRange), http.StatusBadRequest},
		{service.ErrDuplicateBet, http.StatusBadRequest},
		{service.ErrIncompleteLadder, http.StatusBadRequest},
		{service.ErrConflictingLiveMatch, http.StatusConflict},
		{service.ErrBettingClosed, http.StatusConflict},
		{service.ErrAlreadySettled, http.StatusConflict},
		{service.ErrInsufficientBalance, http.StatusConflict},
		{service.ErrMatchNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: swap", service.ErrInvariantViolation), http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			serviceError(rec, "failed", tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, body["error"], "disk on fire")
			}
		})
	}
}
