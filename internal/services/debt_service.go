// Package services holds the stateful application layer between the web
// handlers and the gateway ports. Fetched data is kept as a per-service
// snapshot replaced wholesale after each successful fetch; mutations are
// confirmed, guarded against duplicates, and always followed by a refetch.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

var (
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrRequestInFlight      = errors.New("another request is in flight")
	ErrUnknownUser          = errors.New("unknown user")
)

// SnapshotStore persists the last successfully fetched lists so a failed
// refresh (or a restart) falls back to known-good data instead of nothing.
type SnapshotStore interface {
	SaveUsers(ctx context.Context, users []core.User) error
	LoadUsers(ctx context.Context) ([]core.User, error)
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
	LoadTransactions(ctx context.Context) ([]core.Transaction, error)
}

// DebtService reconciles the local debt view with the server. The server is
// authoritative: every mutation sends a request and refetches the whole user
// list; nothing is patched locally.
type DebtService struct {
	users     ports.UserDirectory
	txns      ports.TransactionSource
	ledger    ports.DebtLedger
	snapshots SnapshotStore
	logger    *log.Logger

	group singleflight.Group

	mu        sync.Mutex
	userList  []core.User
	txList    []core.Transaction
	version   uint64
	loading   bool
	inFlight  bool
	invoices  []core.Invoice
	invoiceV  uint64
	summaries []core.UserDebtSummary
	summaryV  uint64
}

// NewDebtService wires the reconciler. snapshots may be nil; persistence is
// then skipped.
func NewDebtService(backend ports.Backend, snapshots SnapshotStore, logger *log.Logger) *DebtService {
	return &DebtService{
		users:     backend,
		txns:      backend,
		ledger:    backend,
		snapshots: snapshots,
		logger:    logger.WithComponent(log.ComponentDebts),
	}
}

// Loading reports whether a fetch or mutation is currently outstanding.
func (s *DebtService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || s.inFlight
}

func (s *DebtService) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Refresh fetches users and transactions concurrently and replaces the
// snapshot with the result. Concurrent callers are collapsed onto one fetch.
// On failure the previous snapshot stays in place; if the service has no
// data at all it falls back to the persisted snapshot.
func (s *DebtService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return err
}

func (s *DebtService) refresh(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	var (
		users []core.User
		txs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.users.Users(gctx)
		if err != nil {
			return fmt.Errorf("fetch users: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.txns.Transactions(gctx, ports.TransactionFilter{Populate: true})
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "refresh failed, keeping previous snapshot",
			log.FieldOperation, log.OpRefresh, log.FieldError, err.Error())
		s.restoreFromStore(ctx)
		return err
	}

	s.mu.Lock()
	s.userList = users
	s.txList = txs
	s.version++
	s.mu.Unlock()

	s.persist(ctx, users, txs)
	s.logger.DebugContext(ctx, "snapshot replaced",
		log.FieldOperation, log.OpRefresh, log.FieldCount, len(users)+len(txs))
	return nil
}

func (s *DebtService) persist(ctx context.Context, users []core.User, txs []core.Transaction) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.SaveUsers(ctx, users); err != nil {
		s.logger.WarnContext(ctx, "persist users snapshot", log.FieldError, err.Error())
	}
	if err := s.snapshots.SaveTransactions(ctx, txs); err != nil {
		s.logger.WarnContext(ctx, "persist transactions snapshot", log.FieldError, err.Error())
	}
}

// restoreFromStore loads persisted data only when the in-memory snapshot is
// empty. A live snapshot always wins over a stored one.
func (s *DebtService) restoreFromStore(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	s.mu.Lock()
	empty := len(s.userList) == 0 && len(s.txList) == 0
	s.mu.Unlock()
	if !empty {
		return
	}
	users, uerr := s.snapshots.LoadUsers(ctx)
	txs, terr := s.snapshots.LoadTransactions(ctx)
	if uerr != nil || terr != nil {
		return
	}
	if len(users) == 0 && len(txs) == 0 {
		return
	}
	s.mu.Lock()
	s.userList = users
	s.txList = txs
	s.version++
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "restored persisted snapshot",
		log.FieldCount, len(users)+len(txs))
}

// Users returns a copy of the current user snapshot.
func (s *DebtService) Users() []core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.userList...)
}

// Transactions returns a copy of the current transaction snapshot.
func (s *DebtService) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txList...)
}

// User looks up a user in the snapshot by id.
func (s *DebtService) User(id string) (core.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.userList {
		if u.ID == id {
			return u, true
		}
	}
	return core.User{}, false
}

// Invoices returns the grouped per-user per-day view of the snapshot,
// recomputed only when the snapshot changed since the last call.
func (s *DebtService) Invoices() []core.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invoiceV != s.version || s.invoices == nil {
		s.invoices = core.GroupInvoices(s.txList)
		s.invoiceV = s.version
	}
	return s.invoices
}

// Summary returns the per-user debt totals derived from the snapshot,
// memoized like Invoices.
func (s *DebtService) Summary() []core.UserDebtSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaryV != s.version || s.summaries == nil {
		s.summaries = core.SummarizeDebts(s.txList)
		s.summaryV = s.version
	}
	return s.summaries
}

// beginMutation takes the in-flight guard. Exactly one mutation may be
// outstanding; the release func must be called on every exit path.
func (s *DebtService) beginMutation() (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return nil, ErrRequestInFlight
	}
	s.inFlight = true
	return func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}, nil
}

// SetDebt replaces a user's absolute debt. The raw input is validated before
// anything is sent; an unconfirmed call sends nothing. On success the user
// list is refetched rather than patched.
func (s *DebtService) SetDebt(ctx context.Context, userID, input string, confirmed bool) error {
	amount, err := core.ParseAmount(input)
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := s.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.users.SetUserDebt(ctx, userID, amount); err != nil {
		s.logger.WarnContext(ctx, "set debt failed",
			log.FieldOperation, log.OpSetDebt,
			log.FieldUserID, userID,
			log.FieldError, err.Error())
		return fmt.Errorf("set debt: %w", err)
	}
	s.logger.InfoContext(ctx, "debt set",
		log.FieldOperation, log.OpSetDebt,
		log.FieldUserID, userID,
		log.FieldAmount, amount)
	return s.Refresh(ctx)
}

// AddDebt records an additional debt amount. The final total is computed
// from the snapshot's current value and submitted together with the delta.
func (s *DebtService) AddDebt(ctx context.Context, userID, deltaInput, note string, confirmed bool) error {
	delta, err := core.ParseAmount(deltaInput)
	if err != nil {
		return err
	}
	if delta == 0 {
		return core.ErrInvalidAmount
	}
	current, ok := s.User(userID)
	if !ok {
		return ErrUnknownUser
	}
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := s.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	final := current.DebtAmount.Amount + delta
	change := ports.DebtChange{DebtAmount: final, NewDebtAmount: delta, Note: note}
	if err := s.ledger.RecordDebt(ctx, userID, change); err != nil {
		s.logger.WarnContext(ctx, "add debt failed",
			log.FieldOperation, log.OpAddDebt,
			log.FieldUserID, userID,
			log.FieldError, err.Error())
		return fmt.Errorf("add debt: %w", err)
	}
	s.logger.InfoContext(ctx, "debt added",
		log.FieldOperation, log.OpAddDebt,
		log.FieldUserID, userID,
		log.FieldAmount, final,
		log.FieldDelta, delta)
	return s.Refresh(ctx)
}

// DeleteDebt clears a user's debt entirely. Confirmation is mandatory.
func (s *DebtService) DeleteDebt(ctx context.Context, userID string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	release, err := s.beginMutation()
	if err != nil {
		return err
	}
	defer release()

	if err := s.ledger.ClearDebt(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "clear debt failed",
			log.FieldOperation, log.OpDelete,
			log.FieldUserID, userID,
			log.FieldError, err.Error())
		return fmt.Errorf("clear debt: %w", err)
	}
	s.logger.InfoContext(ctx, "debt cleared",
		log.FieldOperation, log.OpDelete,
		log.FieldUserID, userID)
	return s.Refresh(ctx)
}

// History returns the append-only debt ledger for a user. Entries come from
// the server as-is; the client never synthesizes them.
func (s *DebtService) History(ctx context.Context, userID string) ([]core.DebtHistoryEntry, error) {
	entries, err := s.ledger.DebtHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("debt history: %w", err)
	}
	return entries, nil
}
