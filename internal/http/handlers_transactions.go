package http

import (
	"net/http"
	"strings"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

type transactionsView struct {
	Transactions []core.Transaction
	Status       core.Status
	UserFilter   string
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	q := r.URL.Query()
	filter := ports.TransactionFilter{
		Status:   core.Status(q.Get("status")),
		User:     strings.TrimSpace(q.Get("user")),
		Populate: true,
	}
	// Plain users only ever see their own transactions.
	if !sess.IsAdmin() {
		filter.User = sess.Username
	}

	p := s.pageData(sess, nil)
	txs, err := ws.Txns.List(r.Context(), filter)
	if err != nil {
		p.Error = userMessage(err)
	}
	if msg := q.Get("error"); p.Error == "" && msg != "" {
		p.Error = msg
	}
	p.Data = transactionsView{
		Transactions: txs,
		Status:       filter.Status,
		UserFilter:   filter.User,
	}
	s.render(w, r, "transactions.html", p)
}

func (s *Server) handleTransactionStatus(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Txns.UpdateStatus(r.Context(), formValue(r, "id"), core.Status(formValue(r, "status")))
	s.redirectWithError(w, r, "/transactions", err)
}

func (s *Server) handleManualDebt(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Txns.RecordManualDebt(r.Context(),
		formValue(r, "user"),
		formValue(r, "amount"),
		formValue(r, "note"),
		parseDate(formValue(r, "date")))
	s.redirectWithError(w, r, "/transactions", err)
}
