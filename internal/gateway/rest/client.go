// Package rest implements the gateway ports against the shop REST API.
// Every request except login and register carries the session bearer token.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
)

type Client struct {
	base  string
	http  *http.Client
	token string
}

// Ensure interface conformance
var (
	_ ports.Backend = (*Client)(nil)
	_ ports.Binder  = (*Client)(nil)
)

// New creates a client for the given base URL. The timeout bounds every
// request end to end; a backend that never responds must not leave the
// caller hanging.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Bind returns a copy of the client that authenticates with the given
// bearer token. The zero-token client is only good for login and register.
func (c *Client) Bind(token string) ports.Backend {
	bound := *c
	bound.token = token
	return &bound
}

// do issues a request and decodes the body into out (when non-nil). Non-2xx
// responses become *gateway.APIError preferring the server's error message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "API request failed", "method", method, "endpoint", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	slog.DebugContext(ctx, "API request completed",
		"method", method, "endpoint", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ports.APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// errorMessage extracts the server-supplied message from an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

func (c *Client) Login(ctx context.Context, creds ports.Credentials) (ports.LoginResult, error) {
	req := loginRequest{Email: creds.Email, Password: creds.Password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &resp); err != nil {
		return ports.LoginResult{}, err
	}
	if err := resp.validate(); err != nil {
		return ports.LoginResult{}, fmt.Errorf("login response: %w", err)
	}
	return ports.LoginResult{
		Token:    resp.Token,
		Username: resp.Username,
		Role:     core.Role(resp.Role),
	}, nil
}

func (c *Client) Register(ctx context.Context, input ports.NewUser) error {
	req := registerRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	}
	if input.Role != "" {
		req.Role = string(input.Role)
	}
	return c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, nil)
}

func (c *Client) Me(ctx context.Context) (core.User, error) {
	var dto userDTO
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &dto); err != nil {
		return core.User{}, err
	}
	return dto.toDomain()
}

func (c *Client) Users(ctx context.Context) ([]core.User, error) {
	var dtos []userDTO
	if err := c.do(ctx, http.MethodGet, "/api/auth/users", nil, nil, &dtos); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(dtos))
	for i, dto := range dtos {
		u, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("users response, record %d: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/auth/users/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) SetUserDebt(ctx context.Context, id string, amount int64) (core.User, error) {
	req := setDebtRequest{DebtAmount: amount}
	var resp dataEnvelope[userDTO]
	if err := c.do(ctx, http.MethodPut, "/api/auth/users/"+url.PathEscape(id)+"/debt", nil, req, &resp); err != nil {
		return core.User{}, err
	}
	return resp.Data.toDomain()
}

func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var dtos []categoryDTO
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &dtos); err != nil {
		return nil, err
	}
	cats := make([]core.Category, 0, len(dtos))
	for i, dto := range dtos {
		cat, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("categories response, record %d: %w", i, err)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	var resp dataEnvelope[categoryDTO]
	if err := c.do(ctx, http.MethodPost, "/api/categories", nil, map[string]string{"name": name}, &resp); err != nil {
		return core.Category{}, err
	}
	return resp.Data.toDomain()
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Products(ctx context.Context, q ports.ProductQuery) (ports.ProductPage, error) {
	if err := q.Validate(); err != nil {
		return ports.ProductPage{}, err
	}
	query := url.Values{}
	setIf := func(key, val string) {
		if val != "" {
			query.Set(key, val)
		}
	}
	setIf("search", q.Search)
	setIf("category", q.Category)
	setIf("status", string(q.Status))
	if q.MinPrice != nil {
		query.Set("minPrice", strconv.FormatInt(*q.MinPrice, 10))
	}
	if q.MaxPrice != nil {
		query.Set("maxPrice", strconv.FormatInt(*q.MaxPrice, 10))
	}
	setIf("sortBy", q.SortBy)
	setIf("order", q.Order)
	if q.Page > 0 {
		query.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp productPageResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", query, nil, &resp); err != nil {
		return ports.ProductPage{}, err
	}
	page := ports.ProductPage{TotalPages: resp.TotalPages}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	for i, dto := range resp.Data {
		p, err := dto.toDomain()
		if err != nil {
			return ports.ProductPage{}, fmt.Errorf("products response, record %d: %w", i, err)
		}
		page.Products = append(page.Products, p)
	}
	return page, nil
}

func (c *Client) CreateProduct(ctx context.Context, input ports.ProductInput) error {
	return c.do(ctx, http.MethodPost, "/api/products", nil, newProductRequest(input), nil)
}

func (c *Client) UpdateProduct(ctx context.Context, id string, input ports.ProductInput) error {
	return c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), nil, newProductRequest(input), nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Transactions(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", string(f.Status))
	}
	if f.User != "" {
		query.Set("user", strings.ToLower(strings.TrimSpace(f.User)))
	}
	if f.Populate {
		query.Set("populate", "true")
	}

	var resp dataEnvelope[[]transactionDTO]
	if err := c.do(ctx, http.MethodGet, "/api/transactions", query, nil, &resp); err != nil {
		return nil, err
	}
	txs := make([]core.Transaction, 0, len(resp.Data))
	for i, dto := range resp.Data {
		tx, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("transactions response, record %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *Client) CreateTransaction(ctx context.Context, input ports.TransactionInput) error {
	return c.do(ctx, http.MethodPost, "/api/transactions", nil, newTransactionRequest(input), nil)
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, u ports.TransactionUpdate) error {
	body := map[string]any{}
	if u.Status != nil {
		body["status"] = string(*u.Status)
	}
	if u.TotalAmount != nil {
		body["totalAmount"] = *u.TotalAmount
	}
	if u.CreatedAt != nil {
		body["createdAt"] = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	if u.Note != nil {
		body["note"] = *u.Note
	}
	return c.do(ctx, http.MethodPut, "/api/transactions/"+url.PathEscape(id), nil, body, nil)
}

func (c *Client) RecordDebt(ctx context.Context, userID string, change ports.DebtChange) error {
	req := recordDebtRequest{
		DebtAmount:    change.DebtAmount,
		NewDebtAmount: change.NewDebtAmount,
		Note:          change.Note,
	}
	return c.do(ctx, http.MethodPost, "/api/debts/users/"+url.PathEscape(userID)+"/debt", nil, req, nil)
}

func (c *Client) ClearDebt(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/debts/users/"+url.PathEscape(userID)+"/debt", nil, nil, nil)
}

func (c *Client) DebtHistory(ctx context.Context, userID string) ([]core.DebtHistoryEntry, error) {
	var dtos []debtHistoryDTO
	if err := c.do(ctx, http.MethodGet, "/api/debts/users/"+url.PathEscape(userID)+"/debt-history", nil, nil, &dtos); err != nil {
		return nil, err
	}
	entries := make([]core.DebtHistoryEntry, 0, len(dtos))
	for i, dto := range dtos {
		e, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("debt history response, record %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
