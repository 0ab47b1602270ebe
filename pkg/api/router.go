package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LambdaFunc is the signature shared by every API Gateway handler.
type LambdaFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Router mounts every handler on one chi router, the way API Gateway routes
// them to the individual functions.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/products", Adapt(h.Shop))
	r.Get("/categories", Adapt(h.Shop))
	r.Post("/orders", Adapt(h.Checkout))

	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", Adapt(h.Dashboard))

		r.Get("/products", Adapt(h.ProductAdmin))
		r.Post("/products", Adapt(h.ProductAdmin))
		r.Post("/products/import", Adapt(h.ImportProducts))
		r.Get("/products/{id}", Adapt(h.ProductAdmin))
		r.Put("/products/{id}", Adapt(h.ProductAdmin))
		r.Delete("/products/{id}", Adapt(h.ProductAdmin))
		r.Post("/products/{id}/stock", Adapt(h.ProductAdmin))

		r.Get("/orders", Adapt(h.OrderAdmin))
		r.Get("/orders/{id}", Adapt(h.OrderAdmin))
		r.Patch("/orders/{id}", Adapt(h.OrderAdmin))
		r.Put("/orders/{id}", Adapt(h.OrderAdmin))
	})

	r.Get("/health", h.healthCheck)
	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	checks := h.health(r.Context())
	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}

// Adapt serves fn over plain HTTP by translating the request into an API
// Gateway proxy event and writing back its response.
func Adapt(fn LambdaFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := proxyRequest(r)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		resp, err := fn(r.Context(), req)
		if err != nil {
			log.Printf("Handler error for %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeProxyResponse(w, resp)
	}
}

func proxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	if id := middleware.GetReqID(r.Context()); id != "" && r.Header.Get(RequestIDHeader) == "" {
		headers[RequestIDHeader] = id
	}

	query := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	params := make(map[string]string)
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, key := range rctx.URLParams.Keys {
			params[key] = rctx.URLParams.Values[i]
		}
	}

	req := events.APIGatewayProxyRequest{
		Path:                  r.URL.Path,
		HTTPMethod:            r.Method,
		Headers:               headers,
		QueryStringParameters: query,
		PathParameters:        params,
		Body:                  string(raw),
	}
	if !utf8.Valid(raw) {
		req.Body = base64.StdEncoding.EncodeToString(raw)
		req.IsBase64Encoded = true
	}
	return req, nil
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if resp.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(resp.Body)
		if err == nil {
			w.Write(b)
			return
		}
	}
	io.Copy(w, strings.NewReader(resp.Body))
}
