package rest

import (
	"errors"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
)

// Wire types for the shop API. Payloads are validated against these shapes
// at the boundary before anything reaches the domain; a response missing
// required fields is an error, not a partially filled struct.

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginResponse struct {
		Token    string `json:"token"`
		Role     string `json:"role"`
		Username string `json:"username"`
	}

	registerRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role,omitempty"`
	}

	setDebtRequest struct {
		DebtAmount int64 `json:"debtAmount"`
	}

	recordDebtRequest struct {
		DebtAmount    int64  `json:"debtAmount"`
		NewDebtAmount int64  `json:"newDebtAmount"`
		Note          string `json:"note"`
	}

	dataEnvelope[T any] struct {
		Data T `json:"data"`
	}

	userDTO struct {
		ID             string     `json:"_id"`
		Username       string     `json:"username"`
		Email          string     `json:"email"`
		Role           string     `json:"role"`
		DebtAmount     int64      `json:"debtAmount"`
		LastDebtUpdate *time.Time `json:"lastDebtUpdate"`
	}

	categoryDTO struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}

	productDTO struct {
		ID       string       `json:"_id"`
		SKU      string       `json:"sku"`
		Name     string       `json:"name"`
		Category *categoryDTO `json:"category"`
		Price    int64        `json:"price"`
		Quantity int64        `json:"quantity"`
		Status   string       `json:"status"`
	}

	productPageResponse struct {
		Data       []productDTO `json:"data"`
		TotalPages int          `json:"totalPages"`
	}

	productRequest struct {
		SKU      string `json:"sku"`
		Name     string `json:"name"`
		Category string `json:"category,omitempty"`
		Price    int64  `json:"price"`
		Quantity int64  `json:"quantity"`
		Status   string `json:"status"`
	}

	productRefDTO struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}

	itemDTO struct {
		Product  *productRefDTO `json:"product"`
		Quantity int64          `json:"quantity"`
	}

	transactionDTO struct {
		ID          string    `json:"_id"`
		User        string    `json:"user"`
		Items       []itemDTO `json:"items"`
		TotalAmount int64     `json:"totalAmount"`
		Status      string    `json:"status"`
		CreatedAt   time.Time `json:"createdAt"`
		Note        string    `json:"note"`
	}

	itemInputDTO struct {
		ProductID string `json:"productId"`
		Quantity  int64  `json:"quantity"`
	}

	transactionRequest struct {
		User        string         `json:"user"`
		Items       []itemInputDTO `json:"items,omitempty"`
		TotalAmount *int64         `json:"totalAmount,omitempty"`
		Status      string         `json:"status,omitempty"`
		CreatedAt   string         `json:"createdAt,omitempty"`
		Note        string         `json:"note,omitempty"`
	}

	debtHistoryDTO struct {
		ID           string    `json:"_id"`
		Date         time.Time `json:"date"`
		Amount       int64     `json:"amount"`
		Type         string    `json:"type"`
		ChangeAmount int64     `json:"changeAmount"`
		Note         string    `json:"note"`
	}
)

var errMalformed = errors.New("malformed response")

func (r loginResponse) validate() error {
	if r.Token == "" || r.Username == "" {
		return errMalformed
	}
	if !core.Role(r.Role).IsValid() {
		return errMalformed
	}
	return nil
}

func (d userDTO) toDomain() (core.User, error) {
	u := core.User{
		ID:             d.ID,
		Username:       d.Username,
		Email:          d.Email,
		Role:           core.Role(d.Role),
		DebtAmount:     core.Money{Amount: d.DebtAmount},
		LastDebtUpdate: d.LastDebtUpdate,
	}
	if u.ID == "" {
		return core.User{}, errMalformed
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (d categoryDTO) toDomain() (core.Category, error) {
	c := core.Category{ID: d.ID, Name: d.Name}
	if c.ID == "" {
		return core.Category{}, errMalformed
	}
	return c, c.Validate()
}

func (d productDTO) toDomain() (core.Product, error) {
	p := core.Product{
		ID:       d.ID,
		SKU:      d.SKU,
		Name:     d.Name,
		Price:    core.Money{Amount: d.Price},
		Quantity: d.Quantity,
		Status:   core.ProductStatus(d.Status),
	}
	if d.Category != nil {
		p.Category = core.Category{ID: d.Category.ID, Name: d.Category.Name}
	}
	if p.ID == "" {
		return core.Product{}, errMalformed
	}
	return p, p.Validate()
}

func (d transactionDTO) toDomain() (core.Transaction, error) {
	tx := core.Transaction{
		ID:          d.ID,
		User:        d.User,
		TotalAmount: core.Money{Amount: d.TotalAmount},
		Status:      core.Status(d.Status),
		CreatedAt:   d.CreatedAt,
		Note:        d.Note,
	}
	if tx.ID == "" || tx.CreatedAt.IsZero() {
		return core.Transaction{}, errMalformed
	}
	for _, it := range d.Items {
		item := core.Item{Quantity: it.Quantity}
		if it.Product != nil {
			item.Product = core.ProductRef{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: core.Money{Amount: it.Product.Price},
			}
		}
		tx.Items = append(tx.Items, item)
	}
	return tx, tx.Validate()
}

func (d debtHistoryDTO) toDomain() (core.DebtHistoryEntry, error) {
	e := core.DebtHistoryEntry{
		ID:           d.ID,
		Date:         d.Date,
		Amount:       core.Money{Amount: d.Amount},
		Type:         core.ChangeType(d.Type),
		ChangeAmount: core.Money{Amount: d.ChangeAmount},
		Note:         d.Note,
	}
	if e.ID == "" || e.Date.IsZero() || !e.Type.IsValid() {
		return core.DebtHistoryEntry{}, errMalformed
	}
	if e.ChangeAmount.Amount < 0 {
		return core.DebtHistoryEntry{}, core.ErrNegativeAmount
	}
	return e, nil
}

func newProductRequest(input ports.ProductInput) productRequest {
	return productRequest{
		SKU:      input.SKU,
		Name:     input.Name,
		Category: input.Category,
		Price:    input.Price,
		Quantity: input.Quantity,
		Status:   string(input.Status),
	}
}

func newTransactionRequest(input ports.TransactionInput) transactionRequest {
	req := transactionRequest{
		User:        input.User,
		TotalAmount: input.TotalAmount,
		Status:      string(input.Status),
		Note:        input.Note,
	}
	if input.CreatedAt != nil {
		req.CreatedAt = input.CreatedAt.UTC().Format(time.RFC3339)
	}
	for _, it := range input.Items {
		req.Items = append(req.Items, itemInputDTO{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return req
}
