package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/gateway/memory"
)

func TestCheckoutCreatesTransactionAndEmptiesCart(t *testing.T) {
	store := memory.NewSeeded()
	svc := NewTransactionService(store, testLogger())

	page, err := store.Products(context.Background(), ports.ProductQuery{Search: "tea"})
	if err != nil || len(page.Products) == 0 {
		t.Fatalf("seed product lookup: %v", err)
	}
	tea := page.Products[0]

	cart := core.NewCart()
	if err := cart.Add(tea); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if err := cart.SetQuantity(tea.ID, 3, tea.Quantity); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	if err := svc.Checkout(context.Background(), "alice", cart); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if cart.Len() != 0 {
		t.Error("cart not emptied after checkout")
	}

	txs, err := svc.List(context.Background(), ports.TransactionFilter{User: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found *core.Transaction
	for i := range txs {
		if len(txs[i].Items) == 1 && txs[i].Items[0].Product.ID == tea.ID && txs[i].Items[0].Quantity == 3 {
			found = &txs[i]
		}
	}
	if found == nil {
		t.Fatal("checkout transaction not recorded")
	}
	if found.TotalAmount.Amount != 3*tea.Price.Amount {
		t.Errorf("total = %d, want %d", found.TotalAmount.Amount, 3*tea.Price.Amount)
	}
	if found.Status != core.StatusPending {
		t.Errorf("status = %s, want pending", found.Status)
	}
}

func TestCheckoutEmptyCartSendsNothing(t *testing.T) {
	svc := NewTransactionService(memory.New(), testLogger())
	err := svc.Checkout(context.Background(), "alice", core.NewCart())
	if !errors.Is(err, core.ErrCartEmpty) {
		t.Fatalf("err = %v, want ErrCartEmpty", err)
	}
}

func TestRecordManualDebt(t *testing.T) {
	store := memory.NewSeeded()
	svc := NewTransactionService(store, testLogger())
	when := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	if err := svc.RecordManualDebt(context.Background(), "alice", "75.000", "borrowed cash", when); err != nil {
		t.Fatalf("record: %v", err)
	}
	txs, err := svc.List(context.Background(), ports.TransactionFilter{User: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var found bool
	for _, tx := range txs {
		if len(tx.Items) == 0 && tx.TotalAmount.Amount == 75000 && tx.Note == "borrowed cash" {
			found = true
			if !tx.CreatedAt.Equal(when) {
				t.Errorf("createdAt = %v, want %v", tx.CreatedAt, when)
			}
		}
	}
	if !found {
		t.Fatal("manual debt transaction not recorded")
	}

	if err := svc.RecordManualDebt(context.Background(), "alice", "nope", "", when); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("invalid amount: err = %v", err)
	}
}

func TestMarkInvoicePaid(t *testing.T) {
	store := memory.NewSeeded()
	svc := NewTransactionService(store, testLogger())

	invoices, err := svc.Invoices(context.Background(), ports.TransactionFilter{User: "alice", Status: core.StatusPending})
	if err != nil || len(invoices) == 0 {
		t.Fatalf("invoices: %v (%d)", err, len(invoices))
	}
	inv := invoices[0]

	if err := svc.MarkInvoicePaid(context.Background(), inv, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("unconfirmed: err = %v", err)
	}
	if err := svc.MarkInvoicePaid(context.Background(), inv, true); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	remaining, err := svc.Invoices(context.Background(), ports.TransactionFilter{User: "alice", Status: core.StatusPending})
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("pending invoices after mark paid: %+v", remaining)
	}
}

func TestInvoicesGroupPerUserPerDay(t *testing.T) {
	store := memory.New()
	day := time.Date(2024, 2, 2, 8, 0, 0, 0, time.UTC)
	amounts := []int64{100, 50}
	for _, a := range amounts {
		amount := a
		when := day.Add(time.Duration(amount) * time.Minute)
		err := store.CreateTransaction(context.Background(), ports.TransactionInput{
			User: "alice", TotalAmount: &amount, CreatedAt: &when,
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	svc := NewTransactionService(store, testLogger())
	invoices, err := svc.Invoices(context.Background(), ports.TransactionFilter{})
	if err != nil {
		t.Fatalf("invoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("got %d invoices, want one for alice's day", len(invoices))
	}
	if got := len(invoices[0].Transactions); got != 2 {
		t.Errorf("member transactions = %d, want 2", got)
	}
}

func TestUpdateStatusValidatesValue(t *testing.T) {
	store := memory.NewSeeded()
	svc := NewTransactionService(store, testLogger())

	txs, err := svc.List(context.Background(), ports.TransactionFilter{User: "alice"})
	if err != nil || len(txs) == 0 {
		t.Fatalf("seed transactions: %v", err)
	}
	target := txs[0]

	if err := svc.UpdateStatus(context.Background(), target.ID, "shipped"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Fatalf("unknown status: got %v, want ErrInvalidStatus", err)
	}
	txs, _ = svc.List(context.Background(), ports.TransactionFilter{User: "alice"})
	if txs[0].Status != core.StatusPending {
		t.Errorf("rejected update changed status to %s", txs[0].Status)
	}

	if err := svc.UpdateStatus(context.Background(), target.ID, core.StatusPaid); err != nil {
		t.Fatalf("flip to paid: %v", err)
	}
	txs, _ = svc.List(context.Background(), ports.TransactionFilter{User: "alice"})
	if txs[0].Status != core.StatusPaid {
		t.Errorf("status after update = %s, want paid", txs[0].Status)
	}
}
