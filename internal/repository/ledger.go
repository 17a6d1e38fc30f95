package repository

import (
	"context"
	"errors"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

var (
	ErrAlreadyExists = errors.New("record already exists")
	ErrNotFound      = errors.New("record not found")
)

// LedgerTx is the view of the ledger inside one transaction. Getters return
// nil, nil when the record does not exist.
type LedgerTx interface {
	GetGameState(ctx context.Context) (*model.GameState, error)
	CreateGameState(ctx context.Context, state *model.GameState) error
	GetBalanceForUpdate(ctx context.Context, owner model.Identity) (*model.UserBalance, error)
	// GetBalancesForUpdate locks every existing owner in a stable order.
	// Missing owners are absent from the result.
	GetBalancesForUpdate(ctx context.Context, owners []model.Identity) (map[model.Identity]*model.UserBalance, error)
	CreateBalance(ctx context.Context, balance *model.UserBalance) error
	UpdateBalance(ctx context.Context, balance *model.UserBalance) error
	AppendEntry(ctx context.Context, entry *model.LedgerEntry) error
}

// LedgerStore persists game state, balances and the journal. WithinTx commits
// when fn returns nil and rolls back everything otherwise.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
	GetGameState(ctx context.Context) (*model.GameState, error)
	GetBalance(ctx context.Context, owner model.Identity) (*model.UserBalance, error)
	ListEntries(ctx context.Context, owner model.Identity) ([]*model.LedgerEntry, error)
}
