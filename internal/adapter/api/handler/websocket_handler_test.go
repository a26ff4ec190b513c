package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A missing token must come back as 401 through Echo's default error
// handler, not as a generic 500.
func TestHandleWebSocketRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws/inbox", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebSocketHandler(nil, nil)
	err := h.HandleWebSocket(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
