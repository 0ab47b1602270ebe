// Package api adapts API Gateway proxy events to the catalog and order
// services. Every Lambda entry point and the local server share it.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/storefront-service/pkg/catalog"
	"gitlab.connectwisedev.com/storefront-service/pkg/orders"
)

const RequestIDHeader = "X-Request-Id"

var errBadRequest = errors.New("bad request")

// Handler serves the storefront endpoints.
type Handler struct {
	catalog     *catalog.Catalog
	orders      *orders.Manager
	lowStock    int
	recentLimit int
	taxRate     decimal.Decimal
	health      func(ctx context.Context) map[string]string
}

func New(svc *bootstrap.Services) *Handler {
	return &Handler{
		catalog:     svc.Catalog,
		orders:      svc.Orders,
		lowStock:    svc.Config.LowStockThreshold,
		recentLimit: svc.Config.RecentOrdersLimit,
		taxRate:     svc.Config.TaxRate,
		health:      svc.Health,
	}
}

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// productView adds the display stock level to a product.
type productView struct {
	models.Product
	StockLevel models.StockLevel `json:"stockLevel"`
}

func (h *Handler) views(products []models.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = productView{Product: p, StockLevel: p.StockLevel(h.lowStock)}
	}
	return out
}

// requestID reuses the caller's X-Request-Id, then the API Gateway request
// id, and otherwise generates one.
func requestID(req events.APIGatewayProxyRequest) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, RequestIDHeader) && v != "" {
			return v
		}
	}
	if req.RequestContext.RequestID != "" {
		return req.RequestContext.RequestID
	}
	return uuid.New().String()
}

func respond(reqID string, status int, body any) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		log.Printf("[%s] Error marshaling response: %v", reqID, err)
		status = http.StatusInternalServerError
		payload = []byte(`{"message":"Failed to format response"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type, " + RequestIDHeader,
			RequestIDHeader:                reqID,
		},
		Body: string(payload),
	}
}

// failure maps the error taxonomy onto HTTP statuses.
func failure(reqID string, err error) events.APIGatewayProxyResponse {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return respond(reqID, http.StatusBadRequest, errorBody{Message: "Validation failed", Fields: verr.Fields})
	case errors.Is(err, models.ErrEmptyCart):
		return respond(reqID, http.StatusBadRequest, errorBody{Message: "Cart is empty"})
	case errors.Is(err, errBadRequest):
		return respond(reqID, http.StatusBadRequest, errorBody{Message: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		return respond(reqID, http.StatusNotFound, errorBody{Message: err.Error()})
	case errors.Is(err, models.ErrInvalidTransition):
		return respond(reqID, http.StatusConflict, errorBody{Message: err.Error()})
	case errors.Is(err, models.ErrCatalogUnavailable), errors.Is(err, models.ErrPersistenceUnavailable):
		log.Printf("[%s] Backend unavailable: %v", reqID, err)
		return respond(reqID, http.StatusServiceUnavailable, errorBody{Message: "Service temporarily unavailable, please try again"})
	default:
		log.Printf("[%s] Unhandled error: %v", reqID, err)
		return respond(reqID, http.StatusInternalServerError, errorBody{Message: "Internal server error"})
	}
}

func methodNotAllowed(reqID string) events.APIGatewayProxyResponse {
	return respond(reqID, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed"})
}

func body(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: body is not valid base64", errBadRequest)
	}
	return b, nil
}

func decodeJSON(req events.APIGatewayProxyRequest, v any) error {
	b, err := body(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// pathID reads the {id} path parameter; ok is false when it is absent.
func pathID(req events.APIGatewayProxyRequest) (id int64, ok bool, err error) {
	raw := req.PathParameters["id"]
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, true, nil
}

func queryInt(req events.APIGatewayProxyRequest, key string, fallback int) (int, error) {
	raw, ok := req.QueryStringParameters[key]
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return n, nil
}
