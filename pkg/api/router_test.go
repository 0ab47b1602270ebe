package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/storefront-service/models"
)

func TestRouterServesHandlers(t *testing.T) {
	h, svc := newTestHandler(t)
	seed(t, svc, "Blender", "49.99", 7, models.CategoryHomeGarden)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/products?search=blend")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var products []models.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Blender", products[0].Name)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/products/1/stock", strings.NewReader(`{"delta":3}`))
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "req-42", resp2.Header.Get(RequestIDHeader))

	var p models.Product
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&p))
	assert.Equal(t, 10, p.StockQuantity)
}

func TestRouterNotFoundOrder(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/orders/77")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProxyRequestCopiesPathParams(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/products/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var checks map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&checks))
	assert.Equal(t, "ok", checks["store"])
}
