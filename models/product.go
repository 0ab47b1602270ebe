package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlaceholderImageURL is used for products saved without an image.
const PlaceholderImageURL = "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?w=400&h=400&fit=crop&crop=center"

// Category is one of the fixed storefront product categories
type Category string

const (
	CategoryElectronics    Category = "Electronics"
	CategoryClothing       Category = "Clothing"
	CategoryHomeGarden     Category = "Home & Garden"
	CategorySportsOutdoors Category = "Sports & Outdoors"
	CategoryBooks          Category = "Books"
	CategoryToysGames      Category = "Toys & Games"
	CategoryHealthBeauty   Category = "Health & Beauty"
	CategoryFoodBeverages  Category = "Food & Beverages"
)

// Categories lists every category a manager can assign, in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryClothing,
	CategoryHomeGarden,
	CategorySportsOutdoors,
	CategoryBooks,
	CategoryToysGames,
	CategoryHealthBeauty,
	CategoryFoodBeverages,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StockLevel buckets a product's stock for display
type StockLevel string

const (
	StockOut StockLevel = "out_of_stock"
	StockLow StockLevel = "low_stock"
	StockIn  StockLevel = "in_stock"
)

// Product represents a product in the catalog and cache
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      Category        `json:"category"`
	ImageURL      string          `json:"imageUrl"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// StockLevel classifies the product against a low-stock threshold.
func (p Product) StockLevel(threshold int) StockLevel {
	switch {
	case p.StockQuantity <= 0:
		return StockOut
	case p.StockQuantity <= threshold:
		return StockLow
	default:
		return StockIn
	}
}

// ProductInput carries the manager-editable fields of a product
type ProductInput struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      Category        `json:"category"`
	ImageURL      string          `json:"imageUrl"`

	// priceMissing is set when decoded JSON had no usable price.
	priceMissing bool
}

// UnmarshalJSON decodes the editable fields, noting an absent or null price
// so Validate can report it instead of saving a zero price.
func (in *ProductInput) UnmarshalJSON(data []byte) error {
	type fields ProductInput
	var raw struct {
		fields
		Price decimal.NullDecimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = ProductInput(raw.fields)
	in.Price = raw.Price.Decimal
	in.priceMissing = !raw.Price.Valid
	return nil
}

// Validate checks required fields and ranges, returning a *ValidationError
// naming every offending field.
func (in ProductInput) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "Product name is required")
	}
	if in.priceMissing || in.Price.IsNegative() {
		verr.Add("price", "Valid price is required")
	}
	if in.StockQuantity < 0 {
		verr.Add("stockQuantity", "Valid stock quantity is required")
	}
	if in.Category == "" {
		verr.Add("category", "Category is required")
	} else if !in.Category.Valid() {
		verr.Add("category", "Unknown category")
	}
	return verr.OrNil()
}

// Normalized trims text fields and fills in the placeholder image.
func (in ProductInput) Normalized() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if in.ImageURL == "" {
		in.ImageURL = PlaceholderImageURL
	}
	return in
}

// ProductCSV represents a product as read from a CSV file
type ProductCSV struct {
	ID            string `csv:"id"` // Optional: existing products are updated, others created
	Name          string `csv:"name"`
	Description   string `csv:"description"`
	Price         string `csv:"price"`
	StockQuantity string `csv:"stock_quantity"`
	Category      string `csv:"category"`
	ImageURL      string `csv:"image_url"`
}
