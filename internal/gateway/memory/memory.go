// Package memory implements the gateway ports against an in-process store.
// It backs the development backend and the service tests; debt history is
// computed here the way the real server computes it, so callers can rely on
// the server being authoritative for history entries.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
)

type userRecord struct {
	user     core.User
	password string
}

type Store struct {
	mu           sync.Mutex
	seq          int
	users        []*userRecord
	tokens       map[string]string // token -> user id
	categories   []core.Category
	products     []core.Product
	transactions []core.Transaction
	history      map[string][]core.DebtHistoryEntry
}

func New() *Store {
	return &Store{
		tokens:  make(map[string]string),
		history: make(map[string][]core.DebtHistoryEntry),
	}
}

// NewSeeded returns a store with a small shop: an admin, two customers,
// a few products and one pending transaction per customer.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	s.mustRegister(ports.NewUser{Username: "admin", Email: "admin@shop.local", Password: "admin", Role: core.RoleAdmin})
	s.mustRegister(ports.NewUser{Username: "alice", Email: "alice@shop.local", Password: "alice", Role: core.RoleUser})
	s.mustRegister(ports.NewUser{Username: "bob", Email: "bob@shop.local", Password: "bob", Role: core.RoleUser})

	drinks, _ := s.CreateCategory(context.Background(), "Drinks")
	food, _ := s.CreateCategory(context.Background(), "Food")

	seedProducts := []ports.ProductInput{
		{SKU: "DRK-001", Name: "Green tea", Category: drinks.Name, Price: 15000, Quantity: 40},
		{SKU: "DRK-002", Name: "Iced coffee", Category: drinks.Name, Price: 25000, Quantity: 25},
		{SKU: "FOO-001", Name: "Instant noodles", Category: food.Name, Price: 8000, Quantity: 120},
		{SKU: "FOO-002", Name: "Rice 5kg", Category: food.Name, Price: 145000, Quantity: 0},
	}
	for _, p := range seedProducts {
		_ = s.CreateProduct(context.Background(), p)
	}

	created := now.Add(-24 * time.Hour)
	_ = s.CreateTransaction(context.Background(), ports.TransactionInput{
		User:      "alice",
		Items:     []ports.ItemInput{{ProductID: s.products[0].ID, Quantity: 2}},
		CreatedAt: &created,
	})
	_ = s.CreateTransaction(context.Background(), ports.TransactionInput{
		User:      "bob",
		Items:     []ports.ItemInput{{ProductID: s.products[2].ID, Quantity: 3}},
		CreatedAt: &now,
	})
	return s
}

func (s *Store) mustRegister(u ports.NewUser) {
	if err := s.Register(context.Background(), u); err != nil {
		panic(fmt.Sprintf("seed user %s: %v", u.Username, err))
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

// --- auth ---

func (s *Store) Login(_ context.Context, creds ports.Credentials) (ports.LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if rec.user.Email == creds.Email && rec.password == creds.Password {
			token := s.nextID("tok")
			s.tokens[token] = rec.user.ID
			return ports.LoginResult{Token: token, Username: rec.user.Username, Role: rec.user.Role}, nil
		}
	}
	return ports.LoginResult{}, &ports.APIError{StatusCode: 401, Message: "invalid credentials"}
}

func (s *Store) Register(_ context.Context, input ports.NewUser) error {
	role := input.Role
	if role == "" {
		role = core.RoleUser
	}
	u := core.User{Username: input.Username, Email: input.Email, Role: role}
	if err := u.Validate(); err != nil {
		return err
	}
	if input.Password == "" {
		return core.ErrEmptyPassword
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.users {
		if rec.user.Email == input.Email {
			return &ports.APIError{StatusCode: 400, Message: "email already registered"}
		}
	}
	u.ID = s.nextID("u")
	s.users = append(s.users, &userRecord{user: u, password: input.Password})
	return nil
}

func (s *Store) Me(_ context.Context) (core.User, error) {
	return core.User{}, ports.ErrUnauthorized
}

// --- users ---

func (s *Store) Users(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, rec := range s.users {
		out = append(out, rec.user)
	}
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.users {
		if rec.user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			delete(s.history, id)
			return nil
		}
	}
	return &ports.APIError{StatusCode: 404, Message: "user not found"}
}

func (s *Store) SetUserDebt(_ context.Context, id string, amount int64) (core.User, error) {
	if amount < 0 {
		return core.User{}, core.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findUser(id)
	if rec == nil {
		return core.User{}, &ports.APIError{StatusCode: 404, Message: "user not found"}
	}
	s.applyDebt(rec, amount, "debt set")
	return rec.user, nil
}

func (s *Store) findUser(id string) *userRecord {
	for _, rec := range s.users {
		if rec.user.ID == id {
			return rec
		}
	}
	return nil
}

// applyDebt changes the stored amount and records a history entry. Setting
// the same amount again is a no-op and leaves the history untouched.
func (s *Store) applyDebt(rec *userRecord, amount int64, note string) {
	prev := rec.user.DebtAmount.Amount
	if amount == prev {
		return
	}
	kind := core.DebtIncrease
	change := amount - prev
	if amount < prev {
		kind = core.DebtDecrease
		change = prev - amount
	}
	now := time.Now().UTC()
	rec.user.DebtAmount = core.Money{Amount: amount}
	rec.user.LastDebtUpdate = &now
	s.history[rec.user.ID] = append(s.history[rec.user.ID], core.DebtHistoryEntry{
		ID:           s.nextID("h"),
		Date:         now,
		Amount:       core.Money{Amount: amount},
		Type:         kind,
		ChangeAmount: core.Money{Amount: change},
		Note:         note,
	})
}

// --- catalog ---

func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) CreateCategory(_ context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, core.ErrEmptyName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return core.Category{}, &ports.APIError{StatusCode: 400, Message: "category already exists"}
		}
	}
	c := core.Category{ID: s.nextID("c"), Name: name}
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return &ports.APIError{StatusCode: 404, Message: "category not found"}
}

func (s *Store) Products(_ context.Context, q ports.ProductQuery) (ports.ProductPage, error) {
	if err := q.Validate(); err != nil {
		return ports.ProductPage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]core.Product, 0, len(s.products))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range s.products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(p.Category.Name, q.Category) && p.Category.ID != q.Category {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.MinPrice != nil && p.Price.Amount < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price.Amount > *q.MaxPrice {
			continue
		}
		matched = append(matched, p)
	}

	desc := q.Order == "desc"
	switch q.SortBy {
	case "price":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].Price.Amount > matched[j].Price.Amount
			}
			return matched[i].Price.Amount < matched[j].Price.Amount
		})
	case "name":
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].Name > matched[j].Name
			}
			return matched[i].Name < matched[j].Name
		})
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 12
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	total := (len(matched) + limit - 1) / limit
	if total == 0 {
		total = 1
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return ports.ProductPage{Products: []core.Product{}, TotalPages: total}, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return ports.ProductPage{Products: append([]core.Product(nil), matched[start:end]...), TotalPages: total}, nil
}

func productFromInput(input ports.ProductInput) core.Product {
	status := input.Status
	if status == "" {
		status = core.ProductInStock
		if input.Quantity <= 0 {
			status = core.ProductOutOfStock
		}
	}
	return core.Product{
		SKU:      input.SKU,
		Name:     input.Name,
		Category: core.Category{Name: input.Category},
		Price:    core.Money{Amount: input.Price},
		Quantity: input.Quantity,
		Status:   status,
	}
}

func (s *Store) CreateProduct(_ context.Context, input ports.ProductInput) error {
	p := productFromInput(input)
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.SKU == p.SKU {
			return &ports.APIError{StatusCode: 400, Message: "sku already exists"}
		}
	}
	p.ID = s.nextID("p")
	s.products = append(s.products, p)
	return nil
}

func (s *Store) UpdateProduct(_ context.Context, id string, input ports.ProductInput) error {
	p := productFromInput(input)
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p.ID = id
			s.products[i] = p
			return nil
		}
	}
	return &ports.APIError{StatusCode: 404, Message: "product not found"}
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return &ports.APIError{StatusCode: 404, Message: "product not found"}
}

// --- transactions ---

func (s *Store) Transactions(_ context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := strings.ToLower(strings.TrimSpace(f.User))
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if user != "" && strings.ToLower(t.User) != user {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) CreateTransaction(_ context.Context, input ports.TransactionInput) error {
	if strings.TrimSpace(input.User) == "" {
		return core.ErrEmptyUsername
	}
	if len(input.Items) == 0 && input.TotalAmount == nil {
		return &ports.APIError{StatusCode: 400, Message: "transaction needs items or an amount"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := core.Transaction{
		User:   input.User,
		Status: core.StatusPending,
		Note:   input.Note,
	}
	if input.Status != "" {
		t.Status = input.Status
	}
	if input.CreatedAt != nil {
		t.CreatedAt = input.CreatedAt.UTC()
	} else {
		t.CreatedAt = time.Now().UTC()
	}

	var total int64
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return core.ErrInvalidQuantity
		}
		idx := s.productIndex(item.ProductID)
		if idx < 0 {
			return &ports.APIError{StatusCode: 404, Message: "product not found"}
		}
		p := &s.products[idx]
		if p.Quantity < item.Quantity {
			return &ports.APIError{StatusCode: 400, Message: "insufficient stock"}
		}
		p.Quantity -= item.Quantity
		if p.Quantity == 0 {
			p.Status = core.ProductOutOfStock
		}
		t.Items = append(t.Items, core.Item{
			Product: core.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price},
			Quantity: item.Quantity,
		})
		total += p.Price.Amount * item.Quantity
	}
	if input.TotalAmount != nil {
		total = *input.TotalAmount
	}
	t.TotalAmount = core.Money{Amount: total}
	t.ID = s.nextID("t")
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) productIndex(id string) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) UpdateTransaction(_ context.Context, id string, u ports.TransactionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID != id {
			continue
		}
		t := &s.transactions[i]
		if u.Status != nil {
			if err := u.Status.Validate(); err != nil {
				return err
			}
			t.Status = *u.Status
		}
		if u.TotalAmount != nil {
			if *u.TotalAmount < 0 {
				return core.ErrNegativeAmount
			}
			t.TotalAmount = core.Money{Amount: *u.TotalAmount}
		}
		if u.CreatedAt != nil {
			t.CreatedAt = u.CreatedAt.UTC()
		}
		if u.Note != nil {
			t.Note = *u.Note
		}
		return nil
	}
	return &ports.APIError{StatusCode: 404, Message: "transaction not found"}
}

// --- debts ---

func (s *Store) RecordDebt(_ context.Context, userID string, change ports.DebtChange) error {
	if change.DebtAmount < 0 {
		return core.ErrNegativeAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findUser(userID)
	if rec == nil {
		return &ports.APIError{StatusCode: 404, Message: "user not found"}
	}
	note := change.Note
	if note == "" {
		note = "debt recorded"
	}
	s.applyDebt(rec, change.DebtAmount, note)
	return nil
}

func (s *Store) ClearDebt(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findUser(userID)
	if rec == nil {
		return &ports.APIError{StatusCode: 404, Message: "user not found"}
	}
	s.applyDebt(rec, 0, "debt cleared")
	return nil
}

func (s *Store) DebtHistory(_ context.Context, userID string) ([]core.DebtHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findUser(userID) == nil {
		return nil, &ports.APIError{StatusCode: 404, Message: "user not found"}
	}
	return append([]core.DebtHistoryEntry(nil), s.history[userID]...), nil
}

// --- binding ---

// Bound is a token-scoped view of the store. Me resolves the bound token;
// everything else shares the store's data.
type Bound struct {
	*Store
	token string
}

func (s *Store) Bind(token string) ports.Backend {
	return &Bound{Store: s, token: token}
}

func (b *Bound) Me(_ context.Context) (core.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.tokens[b.token]
	if !ok {
		return core.User{}, ports.ErrUnauthorized
	}
	rec := b.findUser(id)
	if rec == nil {
		return core.User{}, ports.ErrUnauthorized
	}
	return rec.user, nil
}

var (
	_ ports.Backend = (*Store)(nil)
	_ ports.Binder  = (*Store)(nil)
)
