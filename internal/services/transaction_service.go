package services

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

// TransactionService covers the transaction page: listing with filters,
// the grouped invoice view, checkout from the cart, manual debt entries and
// marking whole invoices as paid.
type TransactionService struct {
	txns   ports.TransactionSource
	logger *log.Logger
}

func NewTransactionService(backend ports.Backend, logger *log.Logger) *TransactionService {
	return &TransactionService{
		txns:   backend,
		logger: logger.WithComponent(log.ComponentTxns),
	}
}

// List fetches transactions with the given filter applied server-side.
func (s *TransactionService) List(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.txns.Transactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Invoices fetches and groups transactions into per-user per-day invoices.
func (s *TransactionService) Invoices(ctx context.Context, f ports.TransactionFilter) ([]core.Invoice, error) {
	f.Populate = true
	txs, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return core.GroupInvoices(txs), nil
}

// Checkout turns the cart into a pending transaction for the named user and
// empties the cart on success.
func (s *TransactionService) Checkout(ctx context.Context, user string, cart *core.Cart) error {
	if cart.Len() == 0 {
		return core.ErrCartEmpty
	}
	input := ports.TransactionInput{User: user, Status: core.StatusPending}
	for _, line := range cart.Lines() {
		input.Items = append(input.Items, ports.ItemInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if err := s.txns.CreateTransaction(ctx, input); err != nil {
		s.logger.WarnContext(ctx, "checkout failed",
			log.FieldOperation, log.OpCheckout,
			log.FieldUsername, user,
			log.FieldError, err.Error())
		return fmt.Errorf("checkout: %w", err)
	}
	total := cart.Total()
	cart.Clear()
	s.logger.InfoContext(ctx, "checkout complete",
		log.FieldOperation, log.OpCheckout,
		log.FieldUsername, user,
		log.FieldAmount, total.Amount)
	return nil
}

// RecordManualDebt creates an itemless pending transaction carrying only an
// amount and a note, dated as given.
func (s *TransactionService) RecordManualDebt(ctx context.Context, user, amountInput, note string, date time.Time) error {
	amount, err := core.ParseAmount(amountInput)
	if err != nil {
		return err
	}
	if amount == 0 {
		return core.ErrInvalidAmount
	}
	input := ports.TransactionInput{
		User:        user,
		TotalAmount: &amount,
		Status:      core.StatusPending,
		CreatedAt:   &date,
		Note:        note,
	}
	if err := s.txns.CreateTransaction(ctx, input); err != nil {
		return fmt.Errorf("record manual debt: %w", err)
	}
	s.logger.InfoContext(ctx, "manual debt recorded",
		log.FieldOperation, log.OpCreate,
		log.FieldUsername, user,
		log.FieldAmount, amount)
	return nil
}

// MarkInvoicePaid flips every member transaction of the invoice to paid.
// The operation is confirmed explicitly; a member failure aborts the loop
// and the next refetch shows the true mixed state.
func (s *TransactionService) MarkInvoicePaid(ctx context.Context, inv core.Invoice, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	paid := core.StatusPaid
	for _, id := range inv.Transactions {
		if err := s.txns.UpdateTransaction(ctx, id, ports.TransactionUpdate{Status: &paid}); err != nil {
			s.logger.WarnContext(ctx, "mark paid failed mid-invoice",
				log.FieldOperation, log.OpMarkPaid,
				log.FieldTransaction, id,
				log.FieldError, err.Error())
			return fmt.Errorf("mark transaction %s paid: %w", id, err)
		}
	}
	s.logger.InfoContext(ctx, "invoice marked paid",
		log.FieldOperation, log.OpMarkPaid,
		log.FieldUsername, inv.User,
		log.FieldCount, len(inv.Transactions))
	return nil
}

// UpdateStatus flips one transaction's status.
func (s *TransactionService) UpdateStatus(ctx context.Context, id string, status core.Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if err := s.txns.UpdateTransaction(ctx, id, ports.TransactionUpdate{Status: &status}); err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}
