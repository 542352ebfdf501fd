package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kneutral-org/inventory-dashboard/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID_Generated(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestID(zerolog.New(&buf)))

	var seen string
	router.GET("/devices", func(c *gin.Context) {
		seen = c.GetString(logging.RequestIDKey)
		l := logging.LoggerFromContext(c.Request.Context())
		l.Info().Msg("handled")
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, buf.String(), seen)
}

func TestRequestID_Propagated(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"client id kept", "trace-abc-123", true},
		{"oversized id replaced", strings.Repeat("x", maxRequestIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID(zerolog.Nop()))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.keep {
				assert.Equal(t, tt.incoming, got)
			} else {
				assert.NotEqual(t, tt.incoming, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestQueryLimit(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"short filter", http.MethodGet, "/devices?filter=" + strings.Repeat("a", 10), "", http.StatusOK, ""},
		{"at limit", http.MethodGet, "/devices?" + strings.Repeat("a", 64), "", http.StatusOK, ""},
		{"over limit", http.MethodGet, "/devices?" + strings.Repeat("a", 65), "", http.StatusRequestURITooLong, "queryTooLong"},
		{"body rejected", http.MethodPost, "/devices", `{"x":1}`, http.StatusRequestEntityTooLarge, "payloadTooLarge"},
		{"empty post allowed", http.MethodPost, "/devices", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			router := gin.New()
			router.Use(QueryLimit(64, zerolog.New(&buf)))
			router.Any("/devices", func(c *gin.Context) { c.Status(http.StatusOK) })

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			var req *http.Request
			if body != nil {
				req = httptest.NewRequest(tt.method, tt.target, body)
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				assert.Empty(t, buf.String())
				return
			}

			var resp QueryTooLongErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, buf.String(), `"level":"warn"`)
		})
	}
}
