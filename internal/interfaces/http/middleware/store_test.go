package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
)

func TestStoreScope(t *testing.T) {
	storeID := uuid.New()
	userID := uuid.New()

	var seenStore, seenUser, ctxStore, ctxUser string
	r := gin.New()
	r.Use(RequestID(), StoreScope())
	r.GET("/sales", func(c *gin.Context) {
		seenStore, seenUser = GetStoreID(c), GetUserID(c)
		ctxStore = logger.GetStoreID(c.Request.Context())
		ctxUser = logger.GetUserID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("copies headers into gin and request context", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/sales", map[string]string{
			HeaderStoreID: storeID.String(),
			HeaderUserID:  userID.String(),
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, storeID.String(), seenStore)
		assert.Equal(t, userID.String(), seenUser)
		assert.Equal(t, storeID.String(), ctxStore)
		assert.Equal(t, userID.String(), ctxUser)
	})

	t.Run("headers are optional", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/sales", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, seenStore)
	})

	t.Run("malformed store id is rejected", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/sales", map[string]string{HeaderStoreID: "store-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_VALIDATION_FORMAT")
		assert.Contains(t, w.Body.String(), w.Header().Get(HeaderRequestID))
	})
}
