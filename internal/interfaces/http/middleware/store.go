package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/interfaces/http/dto"
)

// Gin context keys set by StoreScope
const (
	StoreIDKey = "store_id"
	UserIDKey  = "user_id"
)

// StoreScope reads the selling store and acting user from request headers.
// Both are optional here; handlers that need them check for presence.
// Malformed IDs are rejected with 400. The values are copied into the
// request context so logger.L picks them up.
func StoreScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		base := logger.FromContext(ctx)

		for _, h := range []struct {
			header string
			key    string
			attach func(string)
		}{
			{HeaderStoreID, StoreIDKey, func(v string) { ctx, _ = logger.WithStoreID(ctx, base, v) }},
			{HeaderUserID, UserIDKey, func(v string) { ctx, _ = logger.WithUserID(ctx, base, v) }},
		} {
			raw := c.GetHeader(h.header)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeValidationFormat,
					h.header+" must be a UUID",
					GetRequestID(c),
				))
				return
			}
			c.Set(h.key, id.String())
			h.attach(id.String())
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetStoreID returns the store ID set by StoreScope, or "" when absent
func GetStoreID(c *gin.Context) string {
	return c.GetString(StoreIDKey)
}

// GetUserID returns the user ID set by StoreScope, or "" when absent
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
