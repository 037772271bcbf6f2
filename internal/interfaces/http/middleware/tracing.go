package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin server middleware. Spans are named after the
// route pattern. An empty service name disables tracing.
func Tracing(serviceName string) gin.HandlerFunc {
	if serviceName == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName,
		otelgin.WithSpanNameFormatter(func(c *gin.Context) string {
			return c.Request.Method + " " + routePattern(c)
		}),
	)
}

// SpanEnricher tags the server span with request, store and user IDs and
// marks it failed on 4xx/5xx. Place it after Tracing and StoreScope.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		for key, value := range map[string]string{
			"request_id": GetRequestID(c),
			"store_id":   GetStoreID(c),
			"user_id":    GetUserID(c),
		} {
			if value != "" {
				span.SetAttributes(attribute.String(key, value))
			}
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			if len(c.Errors) > 0 {
				span.SetAttributes(attribute.String("error.message", c.Errors.Last().Error()))
			}
		}
	}
}
