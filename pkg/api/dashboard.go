package api

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
)

// DashboardView is the manager overview.
type DashboardView struct {
	TotalProducts     int                        `json:"totalProducts"`
	LowStockThreshold int                        `json:"lowStockThreshold"`
	LowStockProducts  []productView              `json:"lowStockProducts"`
	RecentOrders      []models.Order             `json:"recentOrders"`
	PendingOrders     int                        `json:"pendingOrders"`
	OrdersByStatus    map[models.OrderStatus]int `json:"ordersByStatus"`
	TotalRevenue      decimal.Decimal            `json:"totalRevenue"`
}

// Dashboard serves GET /admin/dashboard. Catalog failures fail the request;
// the order aggregates degrade to empty values.
func (h *Handler) Dashboard(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)
	if req.HTTPMethod != http.MethodGet {
		return methodNotAllowed(reqID), nil
	}

	products, err := h.catalog.List(ctx)
	if err != nil {
		return failure(reqID, err), nil
	}
	low, err := h.catalog.ListLowStock(ctx, h.lowStock)
	if err != nil {
		return failure(reqID, err), nil
	}
	counts := h.orders.CountByStatus(ctx)

	return respond(reqID, http.StatusOK, DashboardView{
		TotalProducts:     len(products),
		LowStockThreshold: h.lowStock,
		LowStockProducts:  h.views(low),
		RecentOrders:      h.orders.ListRecent(ctx, h.recentLimit),
		PendingOrders:     counts[models.OrderStatusPending],
		OrdersByStatus:    counts,
		TotalRevenue:      h.orders.TotalRevenue(ctx),
	}), nil
}
