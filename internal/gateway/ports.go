// Package gateway defines the outbound ports to the shop backend. The REST
// implementation lives in gateway/rest; gateway/memory is an in-process
// fake used by tests and the development backend.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopledger/internal/core"
)

// Ports for the upstream shop API.
type (
	Authenticator interface {
		Login(ctx context.Context, creds Credentials) (LoginResult, error)
		Register(ctx context.Context, input NewUser) error
		Me(ctx context.Context) (core.User, error)
	}

	UserDirectory interface {
		Users(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id string) error
		// SetUserDebt replaces the user's absolute debt amount. The server
		// computes the resulting history entry (type and change magnitude);
		// callers must not duplicate that computation.
		SetUserDebt(ctx context.Context, id string, amount int64) (core.User, error)
	}

	Catalog interface {
		Categories(ctx context.Context) ([]core.Category, error)
		CreateCategory(ctx context.Context, name string) (core.Category, error)
		DeleteCategory(ctx context.Context, id string) error
		Products(ctx context.Context, q ProductQuery) (ProductPage, error)
		CreateProduct(ctx context.Context, input ProductInput) error
		UpdateProduct(ctx context.Context, id string, input ProductInput) error
		DeleteProduct(ctx context.Context, id string) error
	}

	TransactionSource interface {
		Transactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, input TransactionInput) error
		UpdateTransaction(ctx context.Context, id string, u TransactionUpdate) error
	}

	DebtLedger interface {
		// RecordDebt submits a debt change carrying both the client-computed
		// final amount and the delta, so the server can write an accurate
		// history note even if it recomputes the total itself.
		RecordDebt(ctx context.Context, userID string, change DebtChange) error
		ClearDebt(ctx context.Context, userID string) error
		DebtHistory(ctx context.Context, userID string) ([]core.DebtHistoryEntry, error)
	}

	// Backend bundles every port; concrete backends implement all of them.
	Backend interface {
		Authenticator
		UserDirectory
		Catalog
		TransactionSource
		DebtLedger
	}

	// Binder produces a Backend bound to a bearer token. Login yields the
	// token; everything after login goes through a bound backend.
	Binder interface {
		Bind(token string) Backend
	}
)

type (
	Credentials struct {
		Email    string
		Password string
	}

	LoginResult struct {
		Token    string
		Username string
		Role     core.Role
	}

	NewUser struct {
		Username string
		Email    string
		Password string
		Role     core.Role
	}

	ProductQuery struct {
		Search   string
		Category string
		Status   core.ProductStatus
		MinPrice *int64
		MaxPrice *int64
		SortBy   string
		Order    string
		Page     int
		Limit    int
	}

	ProductPage struct {
		Products   []core.Product
		TotalPages int
	}

	ProductInput struct {
		SKU      string
		Name     string
		Category string
		Price    int64
		Quantity int64
		Status   core.ProductStatus
	}

	TransactionFilter struct {
		Status   core.Status
		User     string
		Populate bool
	}

	ItemInput struct {
		ProductID string
		Quantity  int64
	}

	// TransactionInput creates either a checkout transaction (Items set) or
	// a manually entered debt (TotalAmount set, no items).
	TransactionInput struct {
		User        string
		Items       []ItemInput
		TotalAmount *int64
		Status      core.Status
		CreatedAt   *time.Time
		Note        string
	}

	TransactionUpdate struct {
		Status      *core.Status
		TotalAmount *int64
		CreatedAt   *time.Time
		Note        *string
	}

	DebtChange struct {
		DebtAmount    int64 // final absolute amount
		NewDebtAmount int64 // delta, kept for the history note
		Note          string
	}
)

// APIError is a normalized upstream failure. Message carries the
// server-supplied error text when the response had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request failed (status %d)", e.StatusCode)
}

var ErrUnauthorized = errors.New("not authorized")

// IsUnauthorized reports whether err is a 401/403 upstream response.
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// Validate checks the query before any request is sent: negative bounds and
// an inverted price range are client-side validation errors.
func (q ProductQuery) Validate() error {
	if q.MinPrice != nil && *q.MinPrice < 0 {
		return core.ErrNegativeAmount
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		return core.ErrNegativeAmount
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return core.ErrPriceRange
	}
	return nil
}
