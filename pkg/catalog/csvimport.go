package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
)

var requiredColumns = []string{"name", "price", "stock_quantity", "category"}

// RowError describes a CSV row that was not imported. Row is 1-based and
// counts the header line.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one CSV import.
type ImportResult struct {
	BatchID string     `json:"batchId"`
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped []RowError `json:"skipped"`
}

// ImportCSV upserts products from CSV with a header row naming the columns
// id, name, description, price, stock_quantity, category, image_url.
// A row updates the product with its id, or else the product with the same
// name; otherwise it creates a product. Bad rows are skipped and reported.
func (c *Catalog) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	result := ImportResult{BatchID: uuid.New().String(), Skipped: []RowError{}}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return result, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return result, fmt.Errorf("CSV is empty or has only headers")
	}

	index := make(map[string]int)
	for i, name := range records[0] {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return result, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	existing, err := c.List(ctx)
	if err != nil {
		return result, err
	}
	byName := make(map[string]int64, len(existing))
	for _, p := range existing {
		byName[strings.ToLower(p.Name)] = p.ID
	}

	for i, row := range records[1:] {
		rowNum := i + 2
		skip := func(reason string) {
			log.Printf("Import %s: skipping row %d: %s", result.BatchID, rowNum, reason)
			result.Skipped = append(result.Skipped, RowError{Row: rowNum, Reason: reason})
		}

		parsed := parseRow(row, index)
		in, err := csvInput(parsed)
		if err != nil {
			skip(err.Error())
			continue
		}

		id, err := c.resolveImportID(ctx, parsed.ID, in.Name, byName)
		if err != nil {
			skip(err.Error())
			continue
		}

		if id == 0 {
			p, err := c.Create(ctx, in)
			if err != nil {
				skip(err.Error())
				continue
			}
			byName[strings.ToLower(p.Name)] = p.ID
			result.Created++
			continue
		}
		if _, err := c.Update(ctx, id, in); err != nil {
			skip(err.Error())
			continue
		}
		result.Updated++
	}

	log.Printf("Import %s finished: %d created, %d updated, %d skipped.",
		result.BatchID, result.Created, result.Updated, len(result.Skipped))
	return result, nil
}

// resolveImportID returns the id of the product a row should update, or 0
// to create one.
func (c *Catalog) resolveImportID(ctx context.Context, rawID, name string, byName map[string]int64) (int64, error) {
	if rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid id %q", rawID)
		}
		_, err = c.GetByID(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return 0, err
		}
	}
	return byName[strings.ToLower(strings.TrimSpace(name))], nil
}

func parseRow(row []string, index map[string]int) models.ProductCSV {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	return models.ProductCSV{
		ID:            get("id"),
		Name:          get("name"),
		Description:   get("description"),
		Price:         get("price"),
		StockQuantity: get("stock_quantity"),
		Category:      get("category"),
		ImageURL:      get("image_url"),
	}
}

func csvInput(p models.ProductCSV) (models.ProductInput, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("invalid price %q", p.Price)
	}
	qty, err := strconv.Atoi(p.StockQuantity)
	if err != nil {
		return models.ProductInput{}, fmt.Errorf("invalid stock quantity %q", p.StockQuantity)
	}
	return models.ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		Price:         price,
		StockQuantity: qty,
		Category:      models.Category(p.Category),
		ImageURL:      p.ImageURL,
	}, nil
}
