package catalog

import (
	"sort"
	"strings"

	"gitlab.connectwisedev.com/storefront-service/models"
)

// AllCategories is the category filter value that matches every product.
const AllCategories = "all"

// Filter keeps products whose name or description contains term
// (case-insensitive) and whose category equals category. An empty term or
// a category of "" or "all" does not filter.
func Filter(products []models.Product, term, category string) []models.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		if category != "" && category != AllCategories && string(p.Category) != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns the distinct categories present in products, sorted.
func Categories(products []models.Product) []models.Category {
	seen := make(map[models.Category]bool)
	out := []models.Category{}
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
