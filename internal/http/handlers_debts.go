package http

import (
	"errors"
	"net/http"

	"shopledger/internal/core"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

// debtRow pairs a user with their edit state for the debts page.
type debtRow struct {
	User core.User
	Edit services.RowEdit
}

type debtsView struct {
	Rows    []debtRow
	Loading bool
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	p := s.pageData(sess, nil)
	if err := ws.Debts.Refresh(r.Context()); err != nil {
		p.Error = userMessage(err)
	}
	if msg := r.URL.Query().Get("error"); p.Error == "" && msg != "" {
		p.Error = msg
	}

	var rows []debtRow
	for _, u := range ws.Debts.Users() {
		rows = append(rows, debtRow{User: u, Edit: ws.Edits.Row(u.ID)})
	}
	p.Data = debtsView{Rows: rows, Loading: ws.Debts.Loading()}
	s.render(w, r, "debts.html", p)
}

func (s *Server) handleDebtEdit(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	userID := formValue(r, "user")
	u, ok := ws.Debts.User(userID)
	if !ok {
		s.redirectWithError(w, r, "/debts", services.ErrUnknownUser)
		return
	}
	ws.Edits.Begin(userID, u.DebtAmount)
	http.Redirect(w, r, "/debts", http.StatusSeeOther)
}

func (s *Server) handleDebtCancel(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	ws.Edits.Cancel(formValue(r, "user"))
	http.Redirect(w, r, "/debts", http.StatusSeeOther)
}

// handleDebtSave drives an edit through the state machine: the row moves to
// submitting, the reconciler validates and sends, and the outcome lands the
// row back in viewing. The save itself needs the confirmation step first.
func (s *Server) handleDebtSave(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	userID := formValue(r, "user")

	if !confirmed(r) {
		// Keep the typed amount: it is replayed by the confirmation form.
		ws.Edits.SetInput(userID, formValue(r, "amount"))
		s.renderConfirm(w, r, sess, "Replace this user's debt amount?", "/debts/save")
		return
	}

	input, ok := ws.Edits.Submit(userID)
	if !ok {
		// Row was not in editing (stale form); fall back to the posted value.
		input = formValue(r, "amount")
	}
	err := ws.Debts.SetDebt(r.Context(), userID, input, true)
	ws.Edits.Finish(userID, err)
	http.Redirect(w, r, "/debts", http.StatusSeeOther)
}

func (s *Server) handleDebtAdd(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	userID := formValue(r, "user")
	delta := formValue(r, "amount")
	note := formValue(r, "note")

	err := ws.Debts.AddDebt(r.Context(), userID, delta, note, confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Add this amount to the user's debt?", "/debts/add")
		return
	}
	s.redirectWithError(w, r, "/debts", err)
}

func (s *Server) handleDebtDelete(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Debts.DeleteDebt(r.Context(), formValue(r, "user"), confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Clear this user's entire debt?", "/debts/delete")
		return
	}
	s.redirectWithError(w, r, "/debts", err)
}

type historyView struct {
	User    core.User
	Entries []core.DebtHistoryEntry
}

func (s *Server) handleDebtHistory(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	userID := r.URL.Query().Get("user")
	p := s.pageData(sess, nil)

	u, _ := ws.Debts.User(userID)
	entries, err := ws.Debts.History(r.Context(), userID)
	if err != nil {
		p.Error = userMessage(err)
	}
	p.Data = historyView{User: u, Entries: entries}
	s.render(w, r, "debt_history.html", p)
}
