package core

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"

	StatusPending Status = "pending"
	StatusPaid    Status = "paid"

	ProductInStock    ProductStatus = "in_stock"
	ProductOutOfStock ProductStatus = "out_of_stock"

	DebtIncrease ChangeType = "increase"
	DebtDecrease ChangeType = "decrease"
)

type (
	Role          string
	Status        string
	ProductStatus string
	ChangeType    string

	Money struct {
		Amount int64
	}

	User struct {
		ID             string
		Username       string
		Email          string
		Role           Role
		DebtAmount     Money
		LastDebtUpdate *time.Time
	}

	Category struct {
		ID   string
		Name string
	}

	Product struct {
		ID       string
		SKU      string
		Name     string
		Category Category
		Price    Money
		Quantity int64
		Status   ProductStatus
	}

	// ProductRef is the subset of product data carried inside a
	// transaction line item.
	ProductRef struct {
		ID    string
		Name  string
		Price Money
	}

	Item struct {
		Product  ProductRef
		Quantity int64
	}

	Transaction struct {
		ID          string
		User        string
		Items       []Item
		TotalAmount Money
		Status      Status
		CreatedAt   time.Time
		Note        string
	}

	// DebtHistoryEntry is an append-only ledger record. Amount is the
	// running total after the entry was applied; ChangeAmount is the
	// non-negative magnitude of the change.
	DebtHistoryEntry struct {
		ID           string
		Date         time.Time
		Amount       Money
		Type         ChangeType
		ChangeAmount Money
		Note         string
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrNegativeAmount  = errors.New("amount cannot be negative")
	ErrEmptyUsername   = errors.New("empty username")
	ErrEmptyEmail      = errors.New("empty email")
	ErrEmptyPassword   = errors.New("empty password")
	ErrInvalidRole     = errors.New("invalid role")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptySKU        = errors.New("empty sku")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrPriceRange      = errors.New("minimum price cannot exceed maximum price")
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusPaid
}

// Validate reports ErrInvalidStatus for anything but the known statuses.
func (s Status) Validate() error {
	if !s.IsValid() {
		return ErrInvalidStatus
	}
	return nil
}

func (t ChangeType) IsValid() bool {
	return t == DebtIncrease || t == DebtDecrease
}

// Validate rejects negative money. Zero is a valid amount: a settled debt
// is stored as zero, not removed.
func (m Money) Validate() error {
	if m.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return u.DebtAmount.Validate()
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.SKU) == "" {
		return ErrEmptySKU
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Price.Validate(); err != nil {
		return err
	}
	if p.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.User) == "" {
		return ErrEmptyUsername
	}
	if t.Status != "" && !t.Status.IsValid() {
		return ErrInvalidStatus
	}
	for _, it := range t.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return t.TotalAmount.Validate()
}

// ItemsTotal sums price*quantity across the transaction's line items.
// A transaction without items (a manually entered debt) totals zero here;
// its TotalAmount field is what the backend recorded for it.
func (t Transaction) ItemsTotal() Money {
	var sum int64
	for _, it := range t.Items {
		sum += it.Product.Price.Amount * it.Quantity
	}
	return Money{Amount: sum}
}
