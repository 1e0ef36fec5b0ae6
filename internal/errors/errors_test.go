package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Internal("x"), http.StatusInternalServerError},
		{Validation("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{MethodNotAllowed("x"), http.StatusMethodNotAllowed},
		{BadRequest("x"), http.StatusBadRequest},
		{RateLimit("x"), http.StatusTooManyRequests},
		{DataUnloaded(), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode)
		})
	}
}

func TestAs_ThroughWrapping(t *testing.T) {
	cause := stderrors.New("disk full")
	appErr := InternalWrap(cause, "save failed")
	wrapped := fmt.Errorf("handler: %w", appErr)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, appErr, got)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.False(t, HasCode(wrapped, CodeValidation))

	_, ok = As(cause)
	assert.False(t, ok)
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestAppError_Message(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: gone", NotFound("gone").Error())
	assert.Equal(t, "BAD_REQUEST: bad (caused by: boom)",
		BadRequestWrap(stderrors.New("boom"), "bad").Error())
}

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shared := DataUnloaded()

	w := httptest.NewRecorder()
	WriteError(w, logger, fmt.Errorf("views: %w", shared), "req-1")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DATA_NOT_LOADED", resp.Error.Code)
	assert.Equal(t, "dataset has not been loaded", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Empty(t, shared.RequestID, "the original error must not be stamped")
}

func TestWriteError_PlainError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := httptest.NewRecorder()
	WriteError(w, logger, stderrors.New("secret connection string"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret connection string")
	assert.Contains(t, w.Body.String(), `"INTERNAL_ERROR"`)
}

func TestWriteSuccessWithHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessWithHeaders(w, map[string]int{"rows": 3}, map[string]string{"Cache-Control": "public, max-age=300"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"success":true,"data":{"rows":3}}`, w.Body.String())
}

func TestValidationDetail(t *testing.T) {
	cause := stderrors.New("start date 2018-03-05 is after end date 2018-03-01")
	appErr := ValidationDetail(cause, "invalid date range")

	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "invalid date range", appErr.Message)
	assert.Equal(t, cause.Error(), appErr.Details)
	assert.ErrorIs(t, appErr, cause)
}
