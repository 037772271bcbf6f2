package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSystemHandler_Health(t *testing.T) {
	newRouter := func(p Pinger) *gin.Engine {
		h := NewSystemHandler("pos-backend", "1.2.0", p)
		r := gin.New()
		r.GET("/health", h.Health)
		r.GET("/api/v1/system/info", h.GetSystemInfo)
		return r
	}

	t.Run("healthy", func(t *testing.T) {
		w, resp := doJSON(t, newRouter(stubPinger{}), http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(resp.Data), `"status":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		w, resp := doJSON(t, newRouter(stubPinger{err: errors.New("dial tcp: refused")}), http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.False(t, resp.Success)
		assert.Contains(t, string(resp.Data), "unreachable")
	})

	t.Run("info", func(t *testing.T) {
		w, resp := doJSON(t, newRouter(stubPinger{}), http.MethodGet, "/api/v1/system/info", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(resp.Data), `"version":"1.2.0"`)
	})
}
