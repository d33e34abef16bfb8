package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func ok(context.Context) error { return nil }

func TestHealthMux_Health(t *testing.T) {
	mux := newHealthMux(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestHealthMux_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]func(context.Context) error
		wantStatus int
		wantState  string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]func(context.Context) error{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name: "redis down",
			checks: map[string]func(context.Context) error{
				"postgres": ok,
				"redis":    func(context.Context) error { return stderrors.New("redis ping failed: EOF") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Equal(t, "ok", body.Checks["postgres"])
		})
	}
}

func TestHealthMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)
	attempts := 0

	err := retryWithBackoff(func() error {
		attempts++
		if attempts < 3 {
			return stderrors.New("connection refused")
		}
		return nil
	}, 5, time.Millisecond, log, "test dependency")

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	err = retryWithBackoff(func() error { return stderrors.New("down") }, 2, time.Millisecond, log, "dead dependency")
	assert.EqualError(t, err, "dead dependency failed after 2 attempts: down")
}
