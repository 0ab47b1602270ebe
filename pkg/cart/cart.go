// Package cart holds a shopper's line items between browsing and checkout.
//
// A Cart belongs to a single session and is not safe for concurrent use;
// every mutation is expected to come from that session's one event loop.
package cart

import (
	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
)

// Cart is an insertion-ordered set of line items keyed by product id.
type Cart struct {
	order []int64
	items map[int64]*models.LineItem
}

func New() *Cart {
	return &Cart{items: make(map[int64]*models.LineItem)}
}

// AddItem puts quantity units of product in the cart. A product already in
// the cart keeps its captured price and has its quantity increased. Stock is
// not checked here.
func (c *Cart) AddItem(product models.Product, quantity int) error {
	if quantity <= 0 {
		verr := &models.ValidationError{}
		verr.Add("quantity", "Quantity must be a positive integer")
		return verr
	}

	if item, ok := c.items[product.ID]; ok {
		item.Quantity += quantity
		item.Subtotal = item.LineSubtotal()
		return nil
	}

	item := &models.LineItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
		ImageURL:    product.ImageURL,
	}
	item.Subtotal = item.LineSubtotal()
	c.items[product.ID] = item
	c.order = append(c.order, product.ID)
	return nil
}

// UpdateQuantity sets the quantity of a line item. Zero or less removes the
// item; an absent product is ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	item, ok := c.items[productID]
	if !ok {
		return
	}
	item.Quantity = quantity
	item.Subtotal = item.LineSubtotal()
}

// RemoveItem deletes the line item for productID if present.
func (c *Cart) RemoveItem(productID int64) {
	if _, ok := c.items[productID]; !ok {
		return
	}
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.order = nil
	c.items = make(map[int64]*models.LineItem)
}

// Total is the sum of all subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.items[id].Subtotal)
	}
	return total
}

// Len is the number of distinct products.
func (c *Cart) Len() int {
	return len(c.order)
}

// Count is the number of units across all line items.
func (c *Cart) Count() int {
	n := 0
	for _, id := range c.order {
		n += c.items[id].Quantity
	}
	return n
}

// Quantity returns how many units of productID are in the cart.
func (c *Cart) Quantity(productID int64) int {
	if item, ok := c.items[productID]; ok {
		return item.Quantity
	}
	return 0
}

// Items returns a copy of the line items in display order. The copy is the
// snapshot handed to checkout.
func (c *Cart) Items() []models.LineItem {
	out := make([]models.LineItem, len(c.order))
	for i, id := range c.order {
		out[i] = *c.items[id]
	}
	return out
}

// Summary is the checkout breakdown shown to the shopper.
type Summary struct {
	ItemCount  int             `json:"itemCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Summary applies a flat tax rate to the cart total, rounding tax to cents.
func (c *Cart) Summary(taxRate decimal.Decimal) Summary {
	subtotal := c.Total()
	tax := subtotal.Mul(taxRate).Round(2)
	return Summary{
		ItemCount:  c.Count(),
		Subtotal:   subtotal,
		Tax:        tax,
		GrandTotal: subtotal.Add(tax),
	}
}
