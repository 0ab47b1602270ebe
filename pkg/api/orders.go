package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/cart"
)

type checkoutItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type checkoutRequest struct {
	Customer models.CustomerInfo `json:"customer"`
	Items    []checkoutItem      `json:"items"`
}

type checkoutResponse struct {
	Order   models.Order `json:"order"`
	Summary cart.Summary `json:"summary"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// Checkout creates an order from POST /orders. Prices come from the
// catalog, not the request, and quantities beyond current stock are
// rejected before any stock is touched.
func (h *Handler) Checkout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)
	if req.HTTPMethod != http.MethodPost {
		return methodNotAllowed(reqID), nil
	}

	var cr checkoutRequest
	if err := decodeJSON(req, &cr); err != nil {
		return failure(reqID, err), nil
	}
	if err := cr.Customer.Validate(); err != nil {
		return failure(reqID, err), nil
	}
	if len(cr.Items) == 0 {
		return failure(reqID, models.ErrEmptyCart), nil
	}

	c, err := h.fillCart(ctx, cr.Items)
	if err != nil {
		return failure(reqID, err), nil
	}

	order, err := h.orders.Create(ctx, cr.Customer, c.Items())
	if err != nil {
		return failure(reqID, err), nil
	}
	log.Printf("[%s] Checkout created order %d", reqID, order.ID)
	return respond(reqID, http.StatusCreated, checkoutResponse{Order: order, Summary: c.Summary(h.taxRate)}), nil
}

// fillCart prices the requested items from the catalog. Repeated product
// ids are merged before the stock check.
func (h *Handler) fillCart(ctx context.Context, items []checkoutItem) (*cart.Cart, error) {
	c := cart.New()
	verr := &models.ValidationError{}
	for i, item := range items {
		field := fmt.Sprintf("items[%d].quantity", i)
		if item.Quantity <= 0 {
			verr.Add(field, "Quantity must be a positive integer")
			continue
		}
		p, err := h.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if c.Quantity(p.ID)+item.Quantity > p.StockQuantity {
			verr.Add(field, fmt.Sprintf("Only %d of %s in stock", p.StockQuantity, p.Name))
			continue
		}
		if err := c.AddItem(p, item.Quantity); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

// OrderAdmin serves the manager order endpoints:
//
//	GET   /admin/orders[?status=pending|recent=N]
//	GET   /admin/orders/{id}
//	PATCH /admin/orders/{id}  {"status": "completed"}
func (h *Handler) OrderAdmin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)

	id, hasID, err := pathID(req)
	if err != nil {
		return failure(reqID, err), nil
	}

	switch {
	case req.HTTPMethod == http.MethodGet && !hasID:
		return h.listOrders(ctx, reqID, req), nil

	case req.HTTPMethod == http.MethodGet:
		o, err := h.orders.GetByID(ctx, id)
		if err != nil {
			return failure(reqID, err), nil
		}
		return respond(reqID, http.StatusOK, o), nil

	case (req.HTTPMethod == http.MethodPatch || req.HTTPMethod == http.MethodPut) && hasID:
		var sr statusRequest
		if err := decodeJSON(req, &sr); err != nil {
			return failure(reqID, err), nil
		}
		o, err := h.orders.UpdateStatus(ctx, id, sr.Status)
		if err != nil {
			return failure(reqID, err), nil
		}
		return respond(reqID, http.StatusOK, o), nil
	}
	return methodNotAllowed(reqID), nil
}

func (h *Handler) listOrders(ctx context.Context, reqID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	q := req.QueryStringParameters
	if status, ok := q["status"]; ok {
		s := models.OrderStatus(status)
		if !s.Valid() {
			verr := &models.ValidationError{}
			verr.Add("status", "Unknown order status")
			return failure(reqID, verr)
		}
		return respond(reqID, http.StatusOK, h.orders.ListByStatus(ctx, s))
	}
	if _, ok := q["recent"]; ok {
		limit, err := queryInt(req, "recent", h.recentLimit)
		if err != nil {
			return failure(reqID, err)
		}
		return respond(reqID, http.StatusOK, h.orders.ListRecent(ctx, limit))
	}

	all, err := h.orders.List(ctx)
	if err != nil {
		return failure(reqID, err)
	}
	return respond(reqID, http.StatusOK, all)
}
