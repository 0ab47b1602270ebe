// Package shell runs a line-oriented shopping session: browse the catalog,
// fill a cart and check out.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"gitlab.connectwisedev.com/storefront-service/models"
	"gitlab.connectwisedev.com/storefront-service/pkg/cart"
	"gitlab.connectwisedev.com/storefront-service/pkg/catalog"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Products is the catalog view a session needs.
type Products interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (models.Product, error)
}

// Checkout places orders. *orders.Manager satisfies it.
type Checkout interface {
	Create(ctx context.Context, customer models.CustomerInfo, items []models.LineItem) (models.Order, error)
}

// Session is one shopper's cart plus the collaborators it talks to.
type Session struct {
	products Products
	checkout Checkout
	cart     *cart.Cart
	taxRate  decimal.Decimal
	out      io.Writer
}

func NewSession(products Products, checkout Checkout, taxRate decimal.Decimal, out io.Writer) *Session {
	return &Session{
		products: products,
		checkout: checkout,
		cart:     cart.New(),
		taxRate:  taxRate,
		out:      out,
	}
}

// Cart exposes the session cart for inspection.
func (s *Session) Cart() *cart.Cart {
	return s.cart
}

const usage = `commands:
  list [search] [@category]    browse products
  add <id> [qty]               add to cart (default 1)
  update <id> <qty>            set quantity, 0 removes
  remove <id>                  remove from cart
  clear                        empty the cart
  show                         cart contents and totals
  checkout <name> | <email> | <phone>
  help
  quit`

// Exec runs one command line. User mistakes and failed checkouts are
// reported on the output and yield a nil error; catalog failures are
// returned.
func (s *Session) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, usage)
		return nil
	case "quit", "exit":
		return ErrQuit
	case "list":
		return s.list(ctx, args)
	case "add":
		return s.add(ctx, args)
	case "update":
		return s.update(ctx, args)
	case "remove":
		id, ok := s.parseID(args)
		if !ok {
			return nil
		}
		s.cart.RemoveItem(id)
		fmt.Fprintf(s.out, "Removed product %d. Cart has %d items.\n", id, s.cart.Count())
		return nil
	case "clear":
		s.cart.Clear()
		fmt.Fprintln(s.out, "Cart cleared.")
		return nil
	case "show":
		s.show()
		return nil
	case "checkout":
		return s.placeOrder(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0])))
	}
	fmt.Fprintf(s.out, "Unknown command %q. Type help.\n", cmd)
	return nil
}

func (s *Session) list(ctx context.Context, args []string) error {
	products, err := s.products.List(ctx)
	if err != nil {
		return err
	}
	var terms []string
	category := catalog.AllCategories
	for _, a := range args {
		if strings.HasPrefix(a, "@") {
			category = strings.ReplaceAll(strings.TrimPrefix(a, "@"), "_", " ")
			continue
		}
		terms = append(terms, a)
	}

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range catalog.Filter(products, strings.Join(terms, " "), category) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.StockQuantity)
	}
	return w.Flush()
}

func (s *Session) add(ctx context.Context, args []string) error {
	id, ok := s.parseID(args)
	if !ok {
		return nil
	}
	qty := 1
	if len(args) > 1 {
		if qty, ok = s.parseQty(args[1]); !ok {
			return nil
		}
	}

	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		fmt.Fprintf(s.out, "No product %d.\n", id)
		return nil
	}
	if err != nil {
		return err
	}
	if s.cart.Quantity(id)+qty > p.StockQuantity {
		fmt.Fprintf(s.out, "Only %d of %s in stock.\n", p.StockQuantity, p.Name)
		return nil
	}
	if err := s.cart.AddItem(p, qty); err != nil {
		fmt.Fprintln(s.out, err)
		return nil
	}
	fmt.Fprintf(s.out, "Added %d x %s. Cart has %d items.\n", qty, p.Name, s.cart.Count())
	return nil
}

func (s *Session) update(ctx context.Context, args []string) error {
	id, ok := s.parseID(args)
	if !ok {
		return nil
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: update <id> <qty>")
		return nil
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil || qty < 0 {
		fmt.Fprintf(s.out, "Invalid quantity %q.\n", args[1])
		return nil
	}
	if s.cart.Quantity(id) == 0 {
		fmt.Fprintf(s.out, "Product %d is not in the cart.\n", id)
		return nil
	}

	if qty > 0 {
		p, err := s.products.GetByID(ctx, id)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if err == nil && qty > p.StockQuantity {
			fmt.Fprintf(s.out, "Only %d of %s in stock.\n", p.StockQuantity, p.Name)
			return nil
		}
	}
	s.cart.UpdateQuantity(id, qty)
	fmt.Fprintf(s.out, "Cart has %d items.\n", s.cart.Count())
	return nil
}

func (s *Session) show() {
	if s.cart.Len() == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return
	}
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tUNIT\tSUBTOTAL")
	for _, item := range s.cart.Items() {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice.StringFixed(2), item.Subtotal.StringFixed(2))
	}
	w.Flush()

	sum := s.cart.Summary(s.taxRate)
	fmt.Fprintf(s.out, "Items: %d  Subtotal: %s  Tax: %s  Total: %s\n",
		sum.ItemCount, sum.Subtotal.StringFixed(2), sum.Tax.StringFixed(2), sum.GrandTotal.StringFixed(2))
}

// placeOrder checks out the cart. The cart is cleared only when the order
// was created.
func (s *Session) placeOrder(ctx context.Context, rest string) error {
	parts := strings.Split(rest, "|")
	if len(parts) != 3 {
		fmt.Fprintln(s.out, "usage: checkout <name> | <email> | <phone>")
		return nil
	}
	customer := models.CustomerInfo{
		Name:  strings.TrimSpace(parts[0]),
		Email: strings.TrimSpace(parts[1]),
		Phone: strings.TrimSpace(parts[2]),
	}

	order, err := s.checkout.Create(ctx, customer, s.cart.Items())
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(s.out, verr.Error())
		return nil
	case errors.Is(err, models.ErrEmptyCart):
		fmt.Fprintln(s.out, "Your cart is empty.")
		return nil
	case err != nil:
		fmt.Fprintf(s.out, "Checkout failed, your cart was kept: %v\n", err)
		return nil
	}

	s.cart.Clear()
	fmt.Fprintf(s.out, "Order #%d placed. Total %s. Thank you, %s!\n",
		order.ID, order.TotalAmount.StringFixed(2), customer.Name)
	return nil
}

func (s *Session) parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "A product id is required.")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(s.out, "Invalid product id %q.\n", args[0])
		return 0, false
	}
	return id, true
}

func (s *Session) parseQty(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		fmt.Fprintf(s.out, "Invalid quantity %q.\n", raw)
		return 0, false
	}
	return n, true
}
