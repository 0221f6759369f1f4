package http

import (
	"errors"
	"net/http"

	"shopledger/internal/core"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

type debtListView struct {
	Invoices    []core.Invoice
	Summary     []core.UserDebtSummary
	Outstanding core.Money
}

// handleDebtList renders the per-user per-day invoice view with the summary
// panel, both derived from one snapshot so they can never disagree.
func (s *Server) handleDebtList(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	p := s.pageData(sess, nil)
	if err := ws.Debts.Refresh(r.Context()); err != nil {
		p.Error = userMessage(err)
	}
	if msg := r.URL.Query().Get("error"); p.Error == "" && msg != "" {
		p.Error = msg
	}

	summary := ws.Debts.Summary()
	p.Data = debtListView{
		Invoices:    ws.Debts.Invoices(),
		Summary:     summary,
		Outstanding: core.TotalOutstanding(summary),
	}
	s.render(w, r, "debt_list.html", p)
}

// handleInvoicePaid marks every transaction in an invoice as paid. The
// invoice is re-resolved from the current snapshot by its grouping key so a
// stale form cannot flip unrelated transactions.
func (s *Server) handleInvoicePaid(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	key := formValue(r, "invoice")

	var target *core.Invoice
	for _, inv := range ws.Debts.Invoices() {
		if inv.Key() == key {
			target = &inv
			break
		}
	}
	if target == nil {
		s.redirectWithError(w, r, "/debt-list", errors.New("invoice no longer exists"))
		return
	}

	err := ws.Txns.MarkInvoicePaid(r.Context(), *target, confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Mark this whole invoice as paid?", "/debt-list/paid")
		return
	}
	if err == nil {
		err = ws.Debts.Refresh(r.Context())
	}
	s.redirectWithError(w, r, "/debt-list", err)
}
