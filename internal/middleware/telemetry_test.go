package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/irfndi/liquidity-lens/internal/logging"
)

func tracedRouter(recorder *tracetest.SpanRecorder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	router := gin.New()
	router.Use(RequestID())
	router.Use(otelgin.Middleware("test", otelgin.WithTracerProvider(tp)))
	router.Use(TelemetryMiddleware())
	return router
}

func TestTelemetryMiddleware_EnrichesSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	router := tracedRouter(recorder)
	router.GET("/api/v1/dashboards/:version/series", func(c *gin.Context) {
		AddSpanAttribute(c, "dashboard.lag", 7)
		AddSpanAttribute(c, "dashboard.blend", true)
		AddSpanAttribute(c, "dashboard.weight", 0.7)
		AddSpanAttribute(c, "dashboard.key", "structural")
		AddSpanAttribute(c, "dashboard.n", int64(3))
		AddSpanAttribute(c, "dashboard.other", []int{1})
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboards/v2/series", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String("dashboard.version", "v2"))
	assert.Contains(t, attrs, attribute.Int("dashboard.lag", 7))
	assert.Contains(t, attrs, attribute.Bool("dashboard.blend", true))
	assert.Contains(t, attrs, attribute.String("dashboard.other", "[1]"))
	assert.Contains(t, attrs, attribute.String("request.id", w.Header().Get(RequestIDHeader)))
}

func TestTelemetryMiddleware_ServerError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	router := tracedRouter(recorder)
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("dataset unavailable"))
		RecordError(c, errors.New("dataset unavailable"), "load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events())
}

func TestTelemetryMiddleware_NoSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(TelemetryMiddleware())
	router.GET("/plain", func(c *gin.Context) {
		AddSpanAttribute(c, "ignored", 1)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plain", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("reuses valid inbound id", func(t *testing.T) {
		inbound := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(RequestIDHeader, inbound)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, inbound, w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
	})
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := logging.NewStandardLoggerWithWriter(&buf, "info")

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/api/v1/dashboards/:version/tables", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dashboards/v9/tables", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/api/v1/dashboards/:version/tables", entry["path"])
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
	assert.Equal(t, w.Header().Get(RequestIDHeader), entry["request_id"])
}
