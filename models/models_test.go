package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorKeepsFirstMessage(t *testing.T) {
	verr := &ValidationError{}
	assert.NoError(t, verr.OrNil())

	verr.Add("price", "Valid price is required")
	verr.Add("price", "second message")
	verr.Add("name", "Product name is required")

	err := verr.OrNil()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.True(t, errors.Is(fmt.Errorf("create: %w", err), ErrValidationFailed))
	assert.Equal(t, "validation failed (name: Product name is required; price: Valid price is required)", err.Error())
}

func TestProductInputValidate(t *testing.T) {
	valid := ProductInput{Name: "Scarf", Price: decimal.NewFromInt(15), StockQuantity: 0, Category: CategoryClothing}
	assert.NoError(t, valid.Validate())

	bad := ProductInput{Name: "  ", Price: decimal.NewFromInt(-1), StockQuantity: -2, Category: "Weapons"}
	var verr *ValidationError
	require.True(t, errors.As(bad.Validate(), &verr))
	assert.Equal(t, map[string]string{
		"name":          "Product name is required",
		"price":         "Valid price is required",
		"stockQuantity": "Valid stock quantity is required",
		"category":      "Unknown category",
	}, verr.Fields)

	missing := ProductInput{Name: "x", Price: decimal.Zero}
	require.True(t, errors.As(missing.Validate(), &verr))
	assert.Equal(t, "Category is required", verr.Fields["category"])
}

func TestProductInputJSONRequiresPrice(t *testing.T) {
	for name, body := range map[string]string{
		"absent": `{"name":"Lamp","category":"Electronics"}`,
		"null":   `{"name":"Lamp","price":null,"category":"Electronics"}`,
	} {
		t.Run(name, func(t *testing.T) {
			var in ProductInput
			require.NoError(t, json.Unmarshal([]byte(body), &in))
			assert.Equal(t, "Lamp", in.Name)

			var verr *ValidationError
			require.True(t, errors.As(in.Validate(), &verr))
			assert.Equal(t, map[string]string{"price": "Valid price is required"}, verr.Fields)
		})
	}

	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Lamp","price":"0","stockQuantity":3,"category":"Electronics"}`), &in))
	assert.NoError(t, in.Validate(), "an explicit zero price is allowed")
	assert.Equal(t, 3, in.StockQuantity)
	assert.Equal(t, CategoryElectronics, in.Category)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"Lamp","price":12.5,"category":"Electronics"}`), &in))
	assert.NoError(t, in.Normalized().Validate())
	assert.Equal(t, "12.5", in.Price.String())
}

func TestProductInputNormalized(t *testing.T) {
	in := ProductInput{Name: "  Hat ", ImageURL: "  "}.Normalized()
	assert.Equal(t, "Hat", in.Name)
	assert.Equal(t, PlaceholderImageURL, in.ImageURL)

	in = ProductInput{ImageURL: "https://cdn.example.com/hat.png"}.Normalized()
	assert.Equal(t, "https://cdn.example.com/hat.png", in.ImageURL)
}

func TestStockLevel(t *testing.T) {
	cases := map[int]StockLevel{0: StockOut, 1: StockLow, 10: StockLow, 11: StockIn}
	for qty, want := range cases {
		assert.Equal(t, want, Product{StockQuantity: qty}.StockLevel(10), "qty %d", qty)
	}
}

func TestCustomerInfoValidate(t *testing.T) {
	assert.NoError(t, CustomerInfo{Name: "Kai", Email: "kai@shop.io", Phone: "555"}.Validate())

	cases := []struct {
		name   string
		info   CustomerInfo
		fields []string
	}{
		{"all missing", CustomerInfo{}, []string{"name", "email", "phone"}},
		{"no domain dot", CustomerInfo{Name: "Kai", Email: "kai@shop", Phone: "1"}, []string{"email"}},
		{"spaces in email", CustomerInfo{Name: "Kai", Email: "kai @shop.io", Phone: "1"}, []string{"email"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var verr *ValidationError
			require.True(t, errors.As(tc.info.Validate(), &verr))
			assert.Len(t, verr.Fields, len(tc.fields))
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestOrderStatus(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatusPending.Terminal())
	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
}

func TestLineSubtotal(t *testing.T) {
	li := LineItem{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.Equal(t, "59.97", li.LineSubtotal().String())
}
