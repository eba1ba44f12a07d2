package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenditure/internal/infrastructure"
	"expenditure/internal/operations"
	"expenditure/internal/services"
	"expenditure/internal/shared/testutil"
	"expenditure/pkg/contracts/domain"
)

func TestErrorHandler_HandleError(t *testing.T) {
	fieldErr := validator.New().Struct(domain.RunRequest{Workers: 99})
	require.Error(t, fieldErr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"api error", ErrInvalidRequest, http.StatusBadRequest, TypeValidation},
		{"decode error", InvalidRequestWithError(fmt.Errorf("unexpected EOF")), http.StatusBadRequest, TypeValidation},
		{"resource not found", NotFoundError("route /x"), http.StatusNotFound, TypeNotFound},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, TypeRateLimit},
		{"validator", operations.NewValidationError("invalid run request", fieldErr), http.StatusBadRequest, TypeValidation},
		{"invalid input", fmt.Errorf("%w: ../x", services.ErrInvalidInput), http.StatusBadRequest, TypeValidation},
		{"run not found", fmt.Errorf("%w: abc", operations.ErrRunNotFound), http.StatusNotFound, TypeRunNotFound},
		{"category not found", fmt.Errorf("%w: Roads", services.ErrCategoryNotFound), http.StatusNotFound, TypeCategoryNotFound},
		{"run in progress", operations.ErrRunInProgress, http.StatusConflict, TypeRunInProgress},
		{"manager closed", operations.ErrManagerClosed, http.StatusServiceUnavailable, TypeServiceDown},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/abc", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/runs/abc", body["instance"])
			assert.Equal(t, "trace-1", body["trace_id"])
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	h := NewErrorHandler(nil, false)
	fieldErr := validator.New().Struct(domain.RunRequest{Workers: 99})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	problem := h.ErrorToProblem(operations.NewValidationError("invalid run request", fieldErr), req)

	require.Contains(t, problem.Extensions, "errors")
	fields := problem.Extensions["errors"].([]ValidationError)
	require.Len(t, fields, 1)
	assert.Equal(t, "RunRequest.Workers", fields[0].Field)
	assert.Contains(t, fields[0].Message, "max")
}

func TestErrorHandler_NilError(t *testing.T) {
	h := NewErrorHandler(nil, false)
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)

			rec := httptest.NewRecorder()
			h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil), "kaboom")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, TypeInternal, body["type"])
			if tt.includeStack {
				assert.Equal(t, "kaboom", body["panic"])
				assert.NotEmpty(t, body["stack"])
			} else {
				assert.NotContains(t, body, "panic")
			}
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "NOT_FOUND", body["error_code"])
	assert.Equal(t, "route /nope not found", body["detail"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method DELETE is not allowed")
}

func TestProblemDetailsMarshal(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeRunInProgress, "Run In Progress", "", "/x").
		WithExtension("type", "ignored").
		WithExtension("retry_after", 5)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeRunInProgress, body["type"])
	assert.Equal(t, float64(5), body["retry_after"])
	assert.NotContains(t, body, "detail")
}
