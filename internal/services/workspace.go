package services

import (
	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
)

// Workspace is the per-session service set: every service talks through the
// session's token-bound backend, and the cart and edit state live and die
// with the session.
type Workspace struct {
	Debts   *DebtService
	Txns    *TransactionService
	Catalog *CatalogService
	Users   *UserService
	Cart    *core.Cart
	Edits   *EditSet
}

func NewWorkspace(backend ports.Backend, snapshots SnapshotStore, logger *log.Logger) *Workspace {
	return &Workspace{
		Debts:   NewDebtService(backend, snapshots, logger),
		Txns:    NewTransactionService(backend, logger),
		Catalog: NewCatalogService(backend, logger),
		Users:   NewUserService(backend, logger),
		Cart:    core.NewCart(),
		Edits:   NewEditSet(),
	}
}
