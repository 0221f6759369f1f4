package core

import (
	"errors"
	"fmt"
)

var (
	ErrCartEmpty    = errors.New("cart is empty")
	ErrOutOfStock   = errors.New("product is out of stock")
	ErrOverStock    = errors.New("quantity exceeds available stock")
	ErrNotInCart    = errors.New("product not in cart")
	ErrUnknownStock = errors.New("unknown product")
)

// CartLine is one product in the cart with the quantity chosen so far.
type CartLine struct {
	ProductID string
	Name      string
	Price     Money
	Quantity  int64
}

// Cart is the ephemeral checkout state: product id -> line. It exists only
// between "add to cart" and submit/cancel and is destroyed on either.
// Quantities are clamped to [0, stock]; zero removes the line.
type Cart struct {
	lines map[string]*CartLine
	order []string
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]*CartLine)}
}

// Add puts one unit of the product in the cart, or bumps the quantity by
// one when the line already exists. Stock is checked on every call.
func (c *Cart) Add(p Product) error {
	line, ok := c.lines[p.ID]
	if !ok {
		if p.Quantity < 1 {
			return fmt.Errorf("%s: %w", p.Name, ErrOutOfStock)
		}
		c.lines[p.ID] = &CartLine{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1}
		c.order = append(c.order, p.ID)
		return nil
	}
	if line.Quantity >= p.Quantity {
		return fmt.Errorf("%s: only %d in stock: %w", p.Name, p.Quantity, ErrOverStock)
	}
	line.Quantity++
	return nil
}

// SetQuantity updates a line. A quantity below one removes the line; a
// quantity above the available stock is rejected and the prior quantity is
// kept unchanged.
func (c *Cart) SetQuantity(productID string, quantity, stock int64) error {
	line, ok := c.lines[productID]
	if !ok {
		return ErrNotInCart
	}
	if quantity < 1 {
		c.Remove(productID)
		return nil
	}
	if quantity > stock {
		return fmt.Errorf("%s: only %d in stock: %w", line.Name, stock, ErrOverStock)
	}
	line.Quantity = quantity
	return nil
}

func (c *Cart) Remove(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Lines returns the cart content in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Total() Money {
	var sum int64
	for _, l := range c.lines {
		sum += l.Price.Amount * l.Quantity
	}
	return Money{Amount: sum}
}

// Clear empties the cart. Called on successful checkout and on cancel.
func (c *Cart) Clear() {
	c.lines = make(map[string]*CartLine)
	c.order = nil
}
