package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nonprofit-ads-analysis/internal/common/errors"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(), Logger())
	return r
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	r := newRouter()
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "given-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Body.String())
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := newRouter()
	r.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, string(errors.ErrCodeInternal), resp.Error.Code)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(errors.NewValidationError("eins", "empty")))
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(errors.NewNotFoundError("organization", "1")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatusCode(errors.NewRegistryAPIError("1", assert.AnError)))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusCode(errors.NewStreamError("xadd", assert.AnError)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New(errors.ErrCodeInternal, "x")))
}
