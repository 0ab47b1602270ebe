package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/storefront-service/pkg/config"
)

func newTestHandler(t *testing.T) (*Handler, *bootstrap.Services) {
	t.Helper()
	svc, err := bootstrap.New(context.Background(), &config.Config{
		StoreBackend:      config.BackendMemory,
		LowStockThreshold: 10,
		RecentOrdersLimit: 5,
		TaxRate:           decimal.RequireFromString("0.08"),
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return New(svc), svc
}

func seed(t *testing.T, svc *bootstrap.Services, name string, price string, qty int, category models.Category) models.Product {
	t.Helper()
	p, err := svc.Catalog.Create(context.Background(), models.ProductInput{
		Name: name, Price: decimal.RequireFromString(price), StockQuantity: qty, Category: category,
	})
	require.NoError(t, err)
	return p
}

func decode(t *testing.T, resp events.APIGatewayProxyResponse, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(resp.Body), v), resp.Body)
}

func TestShopSearchAndCategories(t *testing.T) {
	h, svc := newTestHandler(t)
	seed(t, svc, "Trail Shoes", "89.99", 3, models.CategorySportsOutdoors)
	seed(t, svc, "Cookbook", "25", 40, models.CategoryBooks)

	resp, err := h.Shop(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/products",
		QueryStringParameters: map[string]string{"search": "SHOE", "category": "all"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Headers[RequestIDHeader])

	var products []map[string]any
	decode(t, resp, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Trail Shoes", products[0]["name"])
	assert.Equal(t, string(models.StockLow), products[0]["stockLevel"])

	resp, err = h.Shop(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/categories"})
	require.NoError(t, err)
	var categories []string
	decode(t, resp, &categories)
	assert.Equal(t, []string{"Books", "Sports & Outdoors"}, categories)
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestHandler(t)
	resp, err := h.Shop(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/products",
		Headers:    map[string]string{"x-request-id": "abc-123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Headers[RequestIDHeader])
}

func TestProductAdminLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/admin/products",
		Body:       `{"name":"Kettle","price":"39.50","stockQuantity":12,"category":"Home & Garden"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	var created models.Product
	decode(t, resp, &created)
	assert.Equal(t, models.PlaceholderImageURL, created.ImageURL)

	idParams := map[string]string{"id": "1"}
	resp, err = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodPost,
		Path:           "/admin/products/1/stock",
		PathParameters: idParams,
		Body:           `{"delta":-20}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)
	var adjusted models.Product
	decode(t, resp, &adjusted)
	assert.Equal(t, 0, adjusted.StockQuantity)

	resp, err = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/admin/products",
		QueryStringParameters: map[string]string{"lowStock": ""},
	})
	require.NoError(t, err)
	var low []models.Product
	decode(t, resp, &low)
	assert.Len(t, low, 1)

	resp, err = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodDelete,
		Path:           "/admin/products/1",
		PathParameters: idParams,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		Path:           "/admin/products/1",
		PathParameters: idParams,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductAdminValidationFields(t *testing.T) {
	h, _ := newTestHandler(t)

	resp, err := h.ProductAdmin(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/admin/products",
		Body:       `{"name":"","price":"-1","stockQuantity":1,"category":"Gadgets"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decode(t, resp, &body)
	assert.Contains(t, body.Fields, "name")
	assert.Contains(t, body.Fields, "price")
	assert.Contains(t, body.Fields, "category")
}

func TestProductAdminRequiresPrice(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/admin/products",
		Body:       `{"name":"Lamp","stockQuantity":2,"category":"Electronics"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	decode(t, resp, &body)
	assert.Equal(t, map[string]string{"price": "Valid price is required"}, body.Fields)

	products, err := svc.Catalog.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestProductAdminBadRequests(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	resp, _ := h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost, Path: "/admin/products", Body: "{not json",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet, Path: "/admin/products/x", PathParameters: map[string]string{"id": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.ProductAdmin(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPatch, Path: "/admin/products"})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCheckoutAndOrderAdmin(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := context.Background()
	a := seed(t, svc, "Mug", "10", 5, models.CategoryHomeGarden)
	b := seed(t, svc, "Tea", "5", 2, models.CategoryFoodBeverages)

	resp, err := h.Checkout(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/orders",
		Body: `{"customer":{"name":"Ann","email":"ann@example.com","phone":"555-1"},
			"items":[{"productId":1,"quantity":1},{"productId":2,"quantity":1},{"productId":1,"quantity":1}]}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)

	var out checkoutResponse
	decode(t, resp, &out)
	assert.Equal(t, "25", out.Order.TotalAmount.String())
	assert.Len(t, out.Order.Items, 2)
	assert.Equal(t, "2", out.Summary.Tax.String())
	assert.Equal(t, "27", out.Summary.GrandTotal.String())

	gotA, err := svc.Catalog.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, gotA.StockQuantity)
	gotB, err := svc.Catalog.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotB.StockQuantity)

	orderID := map[string]string{"id": "1"}
	resp, err = h.OrderAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPatch, Path: "/admin/orders/1", PathParameters: orderID, Body: `{"status":"completed"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	resp, err = h.OrderAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPatch, Path: "/admin/orders/1", PathParameters: orderID, Body: `{"status":"cancelled"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = h.OrderAdmin(ctx, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet, Path: "/admin/orders", QueryStringParameters: map[string]string{"status": "completed"},
	})
	require.NoError(t, err)
	var completed []models.Order
	decode(t, resp, &completed)
	assert.Len(t, completed, 1)

	resp, err = h.Dashboard(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/admin/dashboard"})
	require.NoError(t, err)
	var dash DashboardView
	decode(t, resp, &dash)
	assert.Equal(t, 2, dash.TotalProducts)
	assert.Len(t, dash.LowStockProducts, 2)
	assert.Len(t, dash.RecentOrders, 1)
	assert.Equal(t, 0, dash.PendingOrders)
	assert.Equal(t, "25", dash.TotalRevenue.String())
}

func TestCheckoutRejections(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := context.Background()
	seed(t, svc, "Lamp", "30", 1, models.CategoryElectronics)
	customer := `"customer":{"name":"Ann","email":"ann@example.com","phone":"555-1"}`

	cases := map[string]struct {
		body   string
		status int
	}{
		"empty cart":      {`{` + customer + `,"items":[]}`, http.StatusBadRequest},
		"bad email":       {`{"customer":{"name":"Ann","email":"ann","phone":"1"},"items":[{"productId":1,"quantity":1}]}`, http.StatusBadRequest},
		"over stock":      {`{` + customer + `,"items":[{"productId":1,"quantity":2}]}`, http.StatusBadRequest},
		"zero quantity":   {`{` + customer + `,"items":[{"productId":1,"quantity":0}]}`, http.StatusBadRequest},
		"unknown product": {`{` + customer + `,"items":[{"productId":9,"quantity":1}]}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, err := h.Checkout(ctx, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/orders", Body: tc.body})
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode, resp.Body)
		})
	}

	p, err := svc.Catalog.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.StockQuantity)
	all, err := svc.Orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestImportProductsBase64(t *testing.T) {
	h, svc := newTestHandler(t)
	csv := "name,price,stock_quantity,category\nGlobe,15.00,4,Books\nBroken,abc,1,Books\n"

	resp, err := h.ImportProducts(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/admin/products/import",
		Body:            base64.StdEncoding.EncodeToString([]byte(csv)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	var result map[string]any
	decode(t, resp, &result)
	assert.EqualValues(t, 1, result["created"])
	assert.Len(t, result["skipped"], 1)

	products, err := svc.Catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 1)

	resp, err = h.ImportProducts(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost, Path: "/admin/products/import", Body: "name\nonly\n",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
