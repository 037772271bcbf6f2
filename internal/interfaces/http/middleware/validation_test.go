package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/pos/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentBody struct {
	Method string            `json:"payment_method_id" binding:"required,uuid"`
	Amount valueobject.Money `json:"amount" binding:"gt=0"`
	Lines  []int64           `json:"lines" binding:"required,min=1"`
}

func bindRouter() *gin.Engine {
	SetupValidator()
	r := gin.New()
	r.POST("/pay", func(c *gin.Context) {
		var body paymentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func post(r *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/pay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestValidation(t *testing.T) {
	r := bindRouter()

	t.Run("valid body passes", func(t *testing.T) {
		w, _ := post(r, `{"payment_method_id":"7f1c6a52-3c1e-4b0e-9f62-0d7b2b1b0c11","amount":"12.50","lines":[1]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w, resp := post(r, `{"payment_method_id":"cash","amount":"0","lines":[]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		fields := map[string]dto.ValidationDetail{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d
		}
		assert.Equal(t, "Invalid UUID format", fields["payment_method_id"].Message)
		assert.Equal(t, dto.ErrCodeValidationRange, fields["amount"].Code)
		assert.Contains(t, fields, "lines")
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := post(r, `{"amount":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})
}
