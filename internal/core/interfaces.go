package core

import (
	"context"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

type (
	AuthService interface {
		Register(ctx context.Context, login, password string) (*model.User, string, error)
		Login(ctx context.Context, login, password string) (*model.User, string, error)
		ValidateToken(tokenString string) (model.Identity, error)
	}

	// SettlementEngine runs every ledger operation as one all-or-nothing unit.
	// The caller identity is always passed explicitly.
	SettlementEngine interface {
		Initialize(ctx context.Context, authority model.Identity, bump uint8) (*model.GameState, error)
		CreateUserAccount(ctx context.Context, user model.Identity) (*model.UserBalance, error)
		Deposit(ctx context.Context, user model.Identity, amount uint64) (*model.UserBalance, error)
		Withdraw(ctx context.Context, user model.Identity, amount uint64) (*model.UserBalance, error)
		AttestOutcome(ctx context.Context, caller model.Identity, outcome model.Outcome) (*model.Settlement, error)
		AdminDeposit(ctx context.Context, admin model.Identity, amount uint64) (*model.UserBalance, error)
		AdminWithdraw(ctx context.Context, caller model.Identity, amount uint64) (*model.UserBalance, error)

		GetGameState(ctx context.Context) (*model.GameState, error)
		GetBalance(ctx context.Context, owner model.Identity) (*model.UserBalance, error)
		ListEntries(ctx context.Context, owner model.Identity) ([]*model.LedgerEntry, error)
	}
)
