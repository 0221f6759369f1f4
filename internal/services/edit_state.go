package services

import (
	"strconv"
	"sync"

	"shopledger/internal/core"
)

// EditPhase is the per-row debt editing state.
type EditPhase string

const (
	PhaseViewing    EditPhase = "viewing"
	PhaseEditing    EditPhase = "editing"
	PhaseSubmitting EditPhase = "submitting"
)

// RowEdit is one user row's edit state. Both success and failure end back
// in viewing; a failed submit keeps the error message but not the edits.
type RowEdit struct {
	Phase EditPhase
	Input string
	Err   string
}

// EditSet tracks the edit state of every user row on the debt page. At most
// one row at a time is away from viewing.
type EditSet struct {
	mu   sync.Mutex
	rows map[string]*RowEdit
}

func NewEditSet() *EditSet {
	return &EditSet{rows: make(map[string]*RowEdit)}
}

// Row returns the current state for a user, defaulting to viewing.
func (e *EditSet) Row(userID string) RowEdit {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.rows[userID]; ok {
		return *r
	}
	return RowEdit{Phase: PhaseViewing}
}

// Begin moves a row to editing, seeding the input with the current amount.
// Any other row that was being edited is dropped back to viewing.
func (e *EditSet) Begin(userID string, current core.Money) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.rows {
		if id != userID {
			delete(e.rows, id)
		}
	}
	e.rows[userID] = &RowEdit{Phase: PhaseEditing, Input: strconv.FormatInt(current.Amount, 10)}
}

// SetInput records the in-progress input for an editing row.
func (e *EditSet) SetInput(userID, input string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r, ok := e.rows[userID]; ok && r.Phase == PhaseEditing {
		r.Input = input
	}
}

// Cancel returns a row to viewing, discarding edits.
func (e *EditSet) Cancel(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, userID)
}

// Submit moves an editing row to submitting and returns its input. The
// second return is false when the row was not in editing.
func (e *EditSet) Submit(userID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rows[userID]
	if !ok || r.Phase != PhaseEditing {
		return "", false
	}
	r.Phase = PhaseSubmitting
	r.Err = ""
	return r.Input, true
}

// Finish resolves a submit. Success clears the row; failure returns it to
// viewing with the error shown and the edited input lost.
func (e *EditSet) Finish(userID string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.rows, userID)
		return
	}
	e.rows[userID] = &RowEdit{Phase: PhaseViewing, Err: err.Error()}
}
