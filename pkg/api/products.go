package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/catalog"
)

// Shop serves the customer catalog: GET /products with optional search and
// category query parameters, and GET /categories.
func (h *Handler) Shop(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)
	if req.HTTPMethod != http.MethodGet {
		return methodNotAllowed(reqID), nil
	}

	products, err := h.catalog.List(ctx)
	if err != nil {
		return failure(reqID, err), nil
	}

	var resp events.APIGatewayProxyResponse
	if strings.HasSuffix(req.Path, "/categories") {
		resp = respond(reqID, http.StatusOK, catalog.Categories(products))
	} else {
		q := req.QueryStringParameters
		resp = respond(reqID, http.StatusOK, h.views(catalog.Filter(products, q["search"], q["category"])))
	}
	resp.Headers["Cache-Control"] = "public, max-age=300, must-revalidate"
	return resp, nil
}

type stockRequest struct {
	Delta *int `json:"delta"`
}

// ProductAdmin serves the manager product endpoints:
//
//	GET    /admin/products[?lowStock=N]
//	GET    /admin/products/{id}
//	POST   /admin/products
//	PUT    /admin/products/{id}
//	DELETE /admin/products/{id}
//	POST   /admin/products/{id}/stock  {"delta": -3}
func (h *Handler) ProductAdmin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)

	id, hasID, err := pathID(req)
	if err != nil {
		return failure(reqID, err), nil
	}

	switch {
	case req.HTTPMethod == http.MethodGet && !hasID:
		return h.listProducts(ctx, reqID, req), nil

	case req.HTTPMethod == http.MethodGet:
		p, err := h.catalog.GetByID(ctx, id)
		if err != nil {
			return failure(reqID, err), nil
		}
		return respond(reqID, http.StatusOK, h.views([]models.Product{p})[0]), nil

	case req.HTTPMethod == http.MethodPost && hasID && strings.HasSuffix(req.Path, "/stock"):
		var sr stockRequest
		if err := decodeJSON(req, &sr); err != nil {
			return failure(reqID, err), nil
		}
		if sr.Delta == nil {
			return failure(reqID, fmt.Errorf("%w: delta is required", errBadRequest)), nil
		}
		p, err := h.catalog.AdjustStock(ctx, id, *sr.Delta)
		if err != nil {
			return failure(reqID, err), nil
		}
		log.Printf("[%s] Stock of product %d adjusted by %d to %d", reqID, id, *sr.Delta, p.StockQuantity)
		return respond(reqID, http.StatusOK, h.views([]models.Product{p})[0]), nil

	case req.HTTPMethod == http.MethodPost && !hasID:
		var in models.ProductInput
		if err := decodeJSON(req, &in); err != nil {
			return failure(reqID, err), nil
		}
		p, err := h.catalog.Create(ctx, in)
		if err != nil {
			return failure(reqID, err), nil
		}
		log.Printf("[%s] Product %d created", reqID, p.ID)
		return respond(reqID, http.StatusCreated, h.views([]models.Product{p})[0]), nil

	case req.HTTPMethod == http.MethodPut && hasID:
		var in models.ProductInput
		if err := decodeJSON(req, &in); err != nil {
			return failure(reqID, err), nil
		}
		p, err := h.catalog.Update(ctx, id, in)
		if err != nil {
			return failure(reqID, err), nil
		}
		return respond(reqID, http.StatusOK, h.views([]models.Product{p})[0]), nil

	case req.HTTPMethod == http.MethodDelete && hasID:
		if _, err := h.catalog.Delete(ctx, id); err != nil {
			return failure(reqID, err), nil
		}
		log.Printf("[%s] Product %d deleted", reqID, id)
		return respond(reqID, http.StatusOK, map[string]bool{"deleted": true}), nil
	}
	return methodNotAllowed(reqID), nil
}

func (h *Handler) listProducts(ctx context.Context, reqID string, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	if _, ok := req.QueryStringParameters["lowStock"]; ok {
		threshold, err := queryInt(req, "lowStock", h.lowStock)
		if err != nil {
			return failure(reqID, err)
		}
		low, err := h.catalog.ListLowStock(ctx, threshold)
		if err != nil {
			return failure(reqID, err)
		}
		return respond(reqID, http.StatusOK, h.views(low))
	}

	products, err := h.catalog.List(ctx)
	if err != nil {
		return failure(reqID, err)
	}
	return respond(reqID, http.StatusOK, h.views(products))
}

// ImportProducts accepts a CSV document as the request body.
func (h *Handler) ImportProducts(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	reqID := requestID(req)
	log.Printf("[%s] Received request: %s %s", reqID, req.HTTPMethod, req.Path)
	if req.HTTPMethod != http.MethodPost {
		return methodNotAllowed(reqID), nil
	}

	b, err := body(req)
	if err != nil {
		return failure(reqID, err), nil
	}
	result, err := h.catalog.ImportCSV(ctx, strings.NewReader(string(b)))
	if err != nil {
		if !errors.Is(err, models.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return failure(reqID, err), nil
	}
	return respond(reqID, http.StatusOK, result), nil
}
