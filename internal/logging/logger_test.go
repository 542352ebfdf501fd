package logging

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kneutral-org/inventory-dashboard/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-service", "info")

	assert.NotNil(t, logger)
}

func TestNewLogger_ParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"invalid", zerolog.InfoLevel}, // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger("test-service", tt.level)
			assert.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestNewPrettyLogger(t *testing.T) {
	logger := NewPrettyLogger("test-service", "debug")

	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("requestId", "req-1").Logger()
	ctx := ContextWithLogger(context.Background(), logger)

	extracted := LoggerFromContext(ctx)
	extracted.Info().Msg("from context")

	assert.Contains(t, buf.String(), "req-1")
	assert.Contains(t, buf.String(), "from context")
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		statusCode int
		level      string
	}{
		{"success", "/devices/1", http.StatusOK, "info"},
		{"client_error", "/devices/2", http.StatusNotFound, "warn"},
		{"server_error", "/devices/3", http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			router := gin.New()
			router.Use(RequestLogger(logger))
			router.GET("/devices/:id", func(c *gin.Context) {
				c.Set(RequestIDKey, "req-"+tt.name)
				c.Status(tt.statusCode)
			})

			before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/devices/:id", strconv.Itoa(tt.statusCode)))

			req := httptest.NewRequest(http.MethodGet, tt.path+"?filter=x", nil)
			req.Header.Set("User-Agent", "test-agent")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.statusCode, rec.Code)

			logOutput := buf.String()
			assert.Contains(t, logOutput, `"type":"http_request"`)
			assert.Contains(t, logOutput, `"level":"`+tt.level+`"`)
			assert.Contains(t, logOutput, tt.path)
			assert.Contains(t, logOutput, `"query":"filter=x"`)
			assert.Contains(t, logOutput, "req-"+tt.name)

			after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/devices/:id", strconv.Itoa(tt.statusCode)))
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRequestLogger_Unmatched(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	router.Use(RequestLogger(zerolog.New(&buf)))

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404"))

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("X-Request-ID", "header-id")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	assert.Contains(t, buf.String(), "header-id")
}

func TestGRPCLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	interceptor := GRPCLogger(logger)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Contains(t, buf.String(), `"code":"OK"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	before := testutil.ToFloat64(metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, "NotFound"))
	_, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"code":"NotFound"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, "NotFound")))
}

func TestGRPCLogger_PlainError(t *testing.T) {
	var buf bytes.Buffer
	interceptor := GRPCLogger(zerolog.New(&buf))
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Method"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"code":"Unknown"`)
}

func TestGRPCStreamLogger(t *testing.T) {
	var buf bytes.Buffer
	interceptor := GRPCStreamLogger(zerolog.New(&buf))
	info := &grpc.StreamServerInfo{FullMethod: "/grpc.health.v1.Health/Watch", IsServerStream: true}

	err := interceptor(nil, nil, info, func(srv interface{}, stream grpc.ServerStream) error {
		return status.Error(codes.Canceled, "client went away")
	})
	require.Error(t, err)

	logOutput := buf.String()
	assert.Contains(t, logOutput, `"type":"grpc_stream"`)
	assert.Contains(t, logOutput, `"serverStream":true`)
	assert.Contains(t, logOutput, `"level":"info"`)
}
