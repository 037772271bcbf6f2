package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return sr
}

func TestTracing(t *testing.T) {
	sr := setupTestTracer(t)
	storeID := uuid.New()

	r := gin.New()
	r.Use(RequestID(), StoreScope(), Tracing("pos-test"), SpanEnricher())
	r.GET("/api/v1/sales/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/sales/:id/refunds", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	t.Run("span is named by route and enriched", func(t *testing.T) {
		serve(r, http.MethodGet, "/api/v1/sales/"+uuid.NewString(), map[string]string{
			HeaderStoreID:   storeID.String(),
			HeaderRequestID: "req-42",
		})

		spans := sr.Ended()
		require.NotEmpty(t, spans)
		span := spans[len(spans)-1]
		assert.Equal(t, "GET /api/v1/sales/:id", span.Name())

		attrs := map[string]string{}
		for _, kv := range span.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		assert.Equal(t, "req-42", attrs["request_id"])
		assert.Equal(t, storeID.String(), attrs["store_id"])
		assert.NotEqual(t, codes.Error, span.Status().Code)
	})

	t.Run("client errors mark the span", func(t *testing.T) {
		serve(r, http.MethodPost, "/api/v1/sales/"+uuid.NewString()+"/refunds", nil)

		spans := sr.Ended()
		span := spans[len(spans)-1]
		assert.Equal(t, "POST /api/v1/sales/:id/refunds", span.Name())
		assert.Equal(t, codes.Error, span.Status().Code)
	})
}

func TestTracing_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(Tracing(""), SpanEnricher())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", nil).Code)
}
