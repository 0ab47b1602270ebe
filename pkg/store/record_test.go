package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"stock_quantity", "stockQuantity", "stock_quantity_c", "stockQuantity_c"}, Aliases("stock_quantity"))
	assert.Equal(t, []string{"name", "name_c"}, Aliases("name"))
	assert.Equal(t, []string{"id", "id_c", "Id", "ID"}, Aliases("id"))
}

func TestRecordReadsDriftedFieldNames(t *testing.T) {
	rec := Record{
		"Id":               float64(7),
		"name_c":           "Desk",
		"price_c":          19.99,
		"stockQuantity":    json.Number("3"),
		"image_url_c":      []byte("http://img"),
		"created_at":       "2024-05-01T10:00:00Z",
		"status_c":         "completed",
		"total_amount":     []byte("25.50"),
		"unrelated_column": true,
	}

	assert.Equal(t, int64(7), rec.ID())
	assert.Equal(t, "Desk", rec.String("name"))
	assert.Equal(t, "http://img", rec.String("image_url"))
	assert.Equal(t, "completed", rec.String("status"))

	price, err := rec.Decimal("price")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("19.99")))

	total, err := rec.Decimal("total_amount")
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("25.5")))

	qty, err := rec.Int64("stock_quantity")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	created, err := rec.Time("created_at")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), created)
}

func TestRecordMissingAndMalformed(t *testing.T) {
	rec := Record{"price": "abc", "stock_quantity": 2.5}

	_, err := rec.Decimal("price")
	assert.Error(t, err)
	_, err = rec.Int64("stock_quantity")
	assert.Error(t, err)
	_, err = rec.Int64("missing")
	assert.Error(t, err)

	assert.Equal(t, "", rec.String("description"))
	assert.Equal(t, int64(0), rec.ID())

	ts, err := rec.Time("created_at")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestRecordJSON(t *testing.T) {
	raw, err := Record{"items": `[{"quantity":1}]`}.JSON("items")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"quantity":1}]`, string(raw))

	raw, err = Record{"items": []any{map[string]any{"quantity": 2}}}.JSON("items")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"quantity":2}]`, string(raw))
}

func TestCompareValues(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, -1, compareValues(early, early.Add(time.Second)))
	assert.Equal(t, 0, compareValues(int64(3), 3))
	assert.Equal(t, 0, compareValues(decimal.RequireFromString("2.50"), "2.5"))
	assert.Equal(t, 1, compareValues("pending", "completed"))
	assert.Equal(t, -1, compareValues(nil, 1))
}
