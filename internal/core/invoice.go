package core

import (
	"sort"
	"time"
)

// Invoice is a derived, client-only grouping of transactions sharing a user
// and a calendar day. It is never persisted; it is recomputed from the flat
// transaction list on every refresh.
type Invoice struct {
	User        string
	Date        time.Time // CreatedAt of the first record seen for the key
	Items       []Item
	TotalAmount Money
	Status      Status // status of the first record seen for the key
	// Transactions lists the ids of the member records, in input order.
	// Marking an invoice paid means marking each of these.
	Transactions []string
}

// invoiceKey floors CreatedAt to the calendar day in UTC.
func invoiceKey(t Transaction) string {
	return t.User + "_" + t.CreatedAt.UTC().Format("2006-01-02")
}

// Key identifies the invoice's group: user plus calendar day. Forms carry
// it so an invoice can be re-resolved against a fresh snapshot.
func (i Invoice) Key() string {
	return i.User + "_" + i.Date.UTC().Format("2006-01-02")
}

// GroupInvoices folds a flat transaction list into per-user, per-day
// invoices. Items are concatenated across members and the total is the sum
// of price*quantity per item; a record with no line items contributes zero
// but still creates or extends its group, so manually entered debts appear.
//
// The result is sorted by date descending. Groups with equal dates keep
// their relative input order, which makes membership and totals independent
// of input permutation while keeping the display order stable.
func GroupInvoices(txs []Transaction) []Invoice {
	groups := make(map[string]*Invoice)
	var order []string

	for _, tx := range txs {
		key := invoiceKey(tx)
		g, ok := groups[key]
		if !ok {
			g = &Invoice{
				User:   tx.User,
				Date:   tx.CreatedAt,
				Status: tx.Status,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.Items = append(g.Items, tx.Items...)
		g.TotalAmount.Amount += tx.ItemsTotal().Amount
		g.Transactions = append(g.Transactions, tx.ID)
	}

	out := make([]Invoice, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
