package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler_Check(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		database string
	}{
		{name: "healthy", status: http.StatusOK, database: "ok"},
		{name: "database down", err: errors.New("connection refused"), status: http.StatusServiceUnavailable, database: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewHealthHandler(stubPinger{err: tt.err}).Check)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.database, body["database"])
			assert.NotEmpty(t, body["time"])
		})
	}
}
