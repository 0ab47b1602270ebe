package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// LineItem is one product-quantity pairing inside a cart or order snapshot.
// UnitPrice, ProductName and ImageURL are captured when the product is added.
type LineItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ImageURL    string          `json:"imageUrl"`
}

// LineSubtotal is UnitPrice * Quantity.
func (li LineItem) LineSubtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// CustomerInfo is the contact data collected at checkout
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Validate requires all three fields and a local@domain email.
func (c CustomerInfo) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "Name is required")
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		verr.Add("email", "Email is required")
	} else if !emailPattern.MatchString(email) {
		verr.Add("email", "Email is invalid")
	}
	if strings.TrimSpace(c.Phone) == "" {
		verr.Add("phone", "Phone is required")
	}
	return verr.OrNil()
}

// Order is an immutable snapshot of a checked-out cart plus its status
type Order struct {
	ID            int64           `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	CustomerPhone string          `json:"customerPhone"`
	Items         []LineItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}
