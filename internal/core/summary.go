package core

import (
	"sort"
	"time"
)

// UserDebtSummary is the per-user reporting row derived from the flat
// transaction list.
type UserDebtSummary struct {
	User             string
	TotalDebt        Money
	TransactionCount int
	LastTransaction  time.Time
}

// SummarizeDebts aggregates transactions per distinct user: total of
// price*quantity across all line items, number of contributing records and
// the most recent CreatedAt. Rows are sorted by TotalDebt descending; equal
// totals keep the order in which the users first appeared in the input.
func SummarizeDebts(txs []Transaction) []UserDebtSummary {
	byUser := make(map[string]*UserDebtSummary)
	var order []string

	for _, tx := range txs {
		s, ok := byUser[tx.User]
		if !ok {
			s = &UserDebtSummary{User: tx.User}
			byUser[tx.User] = s
			order = append(order, tx.User)
		}
		s.TotalDebt.Amount += tx.ItemsTotal().Amount
		s.TransactionCount++
		if tx.CreatedAt.After(s.LastTransaction) {
			s.LastTransaction = tx.CreatedAt
		}
	}

	out := make([]UserDebtSummary, 0, len(order))
	for _, u := range order {
		out = append(out, *byUser[u])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalDebt.Amount > out[j].TotalDebt.Amount
	})
	return out
}

// TotalOutstanding sums the summary rows, for the report footer.
func TotalOutstanding(rows []UserDebtSummary) Money {
	var sum int64
	for _, r := range rows {
		sum += r.TotalDebt.Amount
	}
	return Money{Amount: sum}
}
