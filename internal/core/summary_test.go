package core

import "testing"

func TestSummarizeDebtsSingleUser(t *testing.T) {
	latest := day(2024, 1, 7, 12)
	txs := []Transaction{
		tx("t1", "alice", day(2024, 1, 5, 9), 10),
		tx("t2", "alice", latest, 20),
		tx("t3", "alice", day(2024, 1, 6, 9), 30),
	}

	got := SummarizeDebts(txs)
	if len(got) != 1 {
		t.Fatalf("expected 1 row, got %d", len(got))
	}
	s := got[0]
	if s.TotalDebt.Amount != 60 {
		t.Errorf("totalDebt = %d, want 60", s.TotalDebt.Amount)
	}
	if s.TransactionCount != 3 {
		t.Errorf("transactionCount = %d, want 3", s.TransactionCount)
	}
	if !s.LastTransaction.Equal(latest) {
		t.Errorf("lastTransaction = %v, want %v", s.LastTransaction, latest)
	}
}

func TestSummarizeDebtsSortedByTotalDescending(t *testing.T) {
	txs := []Transaction{
		tx("t1", "small", day(2024, 1, 5, 9), 10),
		tx("t2", "big", day(2024, 1, 5, 9), 500),
		tx("t3", "mid", day(2024, 1, 5, 9), 100),
	}
	got := SummarizeDebts(txs)
	for i, want := range []string{"big", "mid", "small"} {
		if got[i].User != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].User, want)
		}
	}
}

// Equal totals keep first-seen order.
func TestSummarizeDebtsStableTies(t *testing.T) {
	txs := []Transaction{
		tx("t1", "alice", day(2024, 1, 5, 9), 100),
		tx("t2", "bob", day(2024, 1, 5, 9), 100),
		tx("t3", "carol", day(2024, 1, 5, 9), 100),
	}
	got := SummarizeDebts(txs)
	for i, want := range []string{"alice", "bob", "carol"} {
		if got[i].User != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].User, want)
		}
	}
}

func TestSummarizeDebtsCountsItemlessRecords(t *testing.T) {
	manual := Transaction{ID: "m1", User: "alice", CreatedAt: day(2024, 1, 8, 9), TotalAmount: Money{Amount: 99}}
	txs := []Transaction{tx("t1", "alice", day(2024, 1, 5, 9), 40), manual}

	got := SummarizeDebts(txs)
	if got[0].TransactionCount != 2 {
		t.Errorf("transactionCount = %d, want 2", got[0].TransactionCount)
	}
	if got[0].TotalDebt.Amount != 40 {
		t.Errorf("totalDebt = %d, want 40 (itemless record adds nothing)", got[0].TotalDebt.Amount)
	}
	if !got[0].LastTransaction.Equal(day(2024, 1, 8, 9)) {
		t.Errorf("lastTransaction should advance to the itemless record's date")
	}
}

func TestTotalOutstanding(t *testing.T) {
	rows := []UserDebtSummary{
		{User: "a", TotalDebt: Money{Amount: 100}},
		{User: "b", TotalDebt: Money{Amount: 250}},
	}
	if got := TotalOutstanding(rows); got.Amount != 350 {
		t.Errorf("TotalOutstanding = %d, want 350", got.Amount)
	}
	if got := TotalOutstanding(nil); got.Amount != 0 {
		t.Errorf("TotalOutstanding(nil) = %d, want 0", got.Amount)
	}
}
