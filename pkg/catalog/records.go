package catalog

import (
	"fmt"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/store"
)

// productFromRecord normalizes a stored row, whichever field spelling its
// producer used, into a models.Product.
func productFromRecord(rec store.Record) (models.Product, error) {
	id, err := rec.Int64("id")
	if err != nil {
		return models.Product{}, fmt.Errorf("product record: %w", err)
	}
	price, err := rec.Decimal("price")
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	qty, err := rec.Int64("stock_quantity")
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	created, err := rec.Time("created_at")
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	updated, err := rec.Time("updated_at")
	if err != nil {
		return models.Product{}, fmt.Errorf("product %d: %w", id, err)
	}

	p := models.Product{
		ID:            id,
		Name:          rec.String("name"),
		Description:   rec.String("description"),
		Price:         price,
		StockQuantity: int(qty),
		Category:      models.Category(rec.String("category")),
		ImageURL:      rec.String("image_url"),
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
	if p.ImageURL == "" {
		p.ImageURL = models.PlaceholderImageURL
	}
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	return p, nil
}

func productRecord(in models.ProductInput) store.Record {
	return store.Record{
		"name":           in.Name,
		"description":    in.Description,
		"price":          in.Price,
		"stock_quantity": in.StockQuantity,
		"category":       string(in.Category),
		"image_url":      in.ImageURL,
	}
}
