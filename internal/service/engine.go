package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/core"
	"github.com/Evgen-Mutagen/wager-custody/internal/gateway"
	"github.com/Evgen-Mutagen/wager-custody/internal/ledger"
	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/repository"
	"github.com/Evgen-Mutagen/wager-custody/internal/treasury"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/Evgen-Mutagen/wager-custody/internal/service"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrNotInitialized     = errors.New("game is not initialized")
	ErrAlreadyInitialized = errors.New("game is already initialized")
	ErrInconsistentState  = errors.New("token transfer committed but ledger update failed")
	ErrTreasuryMismatch   = errors.New("treasury seed does not derive the stored house identity")

	ErrInsufficientFunds  = ledger.ErrInsufficientFunds
	ErrArithmeticOverflow = ledger.ErrArithmeticOverflow
	ErrTransferRejected   = gateway.ErrTransferRejected
)

type settlementEngine struct {
	store    repository.LedgerStore
	gateway  gateway.TransferGateway
	treasury *treasury.Treasury
	mint     string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSettlementEngine(
	store repository.LedgerStore,
	gw gateway.TransferGateway,
	tr *treasury.Treasury,
	mint string,
	logger *zap.Logger,
) core.SettlementEngine {
	return &settlementEngine{
		store:    store,
		gateway:  gw,
		treasury: tr,
		mint:     mint,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

func (e *settlementEngine) Initialize(ctx context.Context, authority model.Identity, bump uint8) (*model.GameState, error) {
	ctx, span := e.tracer.Start(ctx, "Initialize", trace.WithAttributes(attribute.Int("bump", int(bump))))
	defer span.End()

	state := &model.GameState{
		Authority: authority,
		Bump:      bump,
		House:     e.treasury.HouseIdentity(bump),
		CreatedAt: time.Now().UTC(),
	}

	err := e.store.WithinTx(ctx, func(tx repository.LedgerTx) error {
		if err := tx.CreateGameState(ctx, state); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyInitialized
			}
			return err
		}
		if err := tx.CreateBalance(ctx, ledger.NewAccount(state.House)); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return fmt.Errorf("%w: house %s", ErrAccountExists, state.House)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	e.logger.Info("Game initialized",
		zap.String("authority", string(state.Authority)),
		zap.String("house", string(state.House)),
		zap.Uint8("bump", bump))
	return state, nil
}

func (e *settlementEngine) CreateUserAccount(ctx context.Context, user model.Identity) (*model.UserBalance, error) {
	ctx, span := e.tracer.Start(ctx, "CreateUserAccount")
	defer span.End()

	account := ledger.NewAccount(user)
	err := e.store.WithinTx(ctx, func(tx repository.LedgerTx) error {
		if err := tx.CreateBalance(ctx, account); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAccountExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	e.logger.Info("User account created", zap.String("owner", string(user)))
	return account, nil
}

func (e *settlementEngine) Deposit(ctx context.Context, user model.Identity, amount uint64) (*model.UserBalance, error) {
	return e.transferIn(ctx, "Deposit", user, false, model.EntryDeposit, amount)
}

func (e *settlementEngine) AdminDeposit(ctx context.Context, admin model.Identity, amount uint64) (*model.UserBalance, error) {
	return e.transferIn(ctx, "AdminDeposit", admin, true, model.EntryAdminDeposit, amount)
}

func (e *settlementEngine) Withdraw(ctx context.Context, user model.Identity, amount uint64) (*model.UserBalance, error) {
	return e.transferOut(ctx, "Withdraw", user, false, model.EntryWithdraw, amount)
}

func (e *settlementEngine) AdminWithdraw(ctx context.Context, caller model.Identity, amount uint64) (*model.UserBalance, error) {
	return e.transferOut(ctx, "AdminWithdraw", caller, true, model.EntryAdminWithdraw, amount)
}

// transferIn moves amount from the payer's token account into the house token
// account, then credits either the payer's or the house's ledger record.
func (e *settlementEngine) transferIn(
	ctx context.Context,
	op string,
	payer model.Identity,
	toHouse bool,
	kind model.EntryKind,
	amount uint64,
) (*model.UserBalance, error) {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("amount", fmt.Sprint(amount))))
	defer span.End()

	var (
		account *model.UserBalance
		req     model.TransferRequest
		moved   bool
	)
	err := e.store.WithinTx(ctx, func(tx repository.LedgerTx) error {
		state, err := e.gameState(ctx, tx)
		if err != nil {
			return err
		}

		owner := payer
		if toHouse {
			owner = state.House
		}
		if account, err = e.lockAccount(ctx, tx, owner); err != nil {
			return err
		}
		if err := ledger.Credit(account, amount); err != nil {
			return err
		}

		entry := model.NewEntry(kind, owner, amount, string(payer))
		req = model.TransferRequest{
			ID:            entry.ID.String(),
			From:          e.tokenAccount(payer),
			To:            e.tokenAccount(state.House),
			Authorization: model.SignedBy(payer),
			Amount:        amount,
		}
		if err := e.gateway.Transfer(ctx, req); err != nil {
			return err
		}
		moved = true

		if err := tx.UpdateBalance(ctx, account); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, entry)
	})
	if err != nil {
		if moved {
			err = e.inconsistent(op, req, err)
		}
		return nil, fail(span, err)
	}

	e.logger.Info("Funds deposited",
		zap.String("operation", op),
		zap.String("payer", string(payer)),
		zap.String("owner", string(account.Owner)),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", account.Balance))
	return account, nil
}

// transferOut debits the ledger record first, then moves amount out of the
// house token account using the derived house signer.
func (e *settlementEngine) transferOut(
	ctx context.Context,
	op string,
	payee model.Identity,
	fromHouse bool,
	kind model.EntryKind,
	amount uint64,
) (*model.UserBalance, error) {
	ctx, span := e.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("amount", fmt.Sprint(amount))))
	defer span.End()

	var (
		account *model.UserBalance
		req     model.TransferRequest
		moved   bool
	)
	err := e.store.WithinTx(ctx, func(tx repository.LedgerTx) error {
		state, err := e.gameState(ctx, tx)
		if err != nil {
			return err
		}

		// the house identity was fixed at Initialize; a changed seed cannot sign for it
		if derived := e.treasury.HouseIdentity(state.Bump); derived != state.House {
			return fmt.Errorf("%w: derived %s, stored %s", ErrTreasuryMismatch, derived, state.House)
		}

		owner := payee
		if fromHouse {
			if payee != state.Authority {
				return ErrUnauthorized
			}
			owner = state.House
		}
		if account, err = e.lockAccount(ctx, tx, owner); err != nil {
			return err
		}
		if err := ledger.Debit(account, amount); err != nil {
			return err
		}

		entry := model.NewEntry(kind, owner, amount, string(payee))
		req = model.TransferRequest{
			ID:            entry.ID.String(),
			From:          e.tokenAccount(state.House),
			To:            e.tokenAccount(payee),
			Authorization: e.treasury.DeriveSigner(state.Bump),
			Amount:        amount,
		}
		if err := e.gateway.Transfer(ctx, req); err != nil {
			return err
		}
		moved = true

		if err := tx.UpdateBalance(ctx, account); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, entry)
	})
	if err != nil {
		if moved {
			err = e.inconsistent(op, req, err)
		}
		return nil, fail(span, err)
	}

	e.logger.Info("Funds withdrawn",
		zap.String("operation", op),
		zap.String("payee", string(payee)),
		zap.String("owner", string(account.Owner)),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", account.Balance))
	return account, nil
}

// AttestOutcome settles a match on the ledger only; no tokens move. The loser
// is debited the full stake with checked arithmetic but without a prior
// sufficiency check, so a short loser fails with ErrArithmeticOverflow.
func (e *settlementEngine) AttestOutcome(ctx context.Context, caller model.Identity, outcome model.Outcome) (*model.Settlement, error) {
	ctx, span := e.tracer.Start(ctx, "AttestOutcome", trace.WithAttributes(
		attribute.String("stake", fmt.Sprint(outcome.Stake)),
		attribute.Bool("winner", outcome.Winner != nil),
		attribute.Bool("loser", outcome.Loser != nil),
	))
	defer span.End()

	fee, net := ledger.SplitStake(outcome.Stake)
	settlement := &model.Settlement{ID: uuid.NewString(), Fee: fee, Net: net}

	err := e.store.WithinTx(ctx, func(tx repository.LedgerTx) error {
		state, err := e.gameState(ctx, tx)
		if err != nil {
			return err
		}
		if caller != state.Authority {
			return ErrUnauthorized
		}

		owners := []model.Identity{state.House}
		if outcome.Winner != nil {
			owners = append(owners, *outcome.Winner)
		}
		if outcome.Loser != nil {
			owners = append(owners, *outcome.Loser)
		}
		accounts, err := tx.GetBalancesForUpdate(ctx, owners)
		if err != nil {
			return err
		}
		lookup := func(owner model.Identity) (*model.UserBalance, error) {
			account, ok := accounts[owner]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, owner)
			}
			return account, nil
		}

		var entries []*model.LedgerEntry
		if outcome.Winner != nil {
			winner, err := lookup(*outcome.Winner)
			if err != nil {
				return err
			}
			if err := ledger.Credit(winner, net); err != nil {
				return fmt.Errorf("credit winner %s: %w", winner.Owner, err)
			}
			settlement.Winner = winner
			entries = append(entries, model.NewEntry(model.EntryOutcomeWin, winner.Owner, net, settlement.ID))
		}
		if outcome.Loser != nil {
			loser, err := lookup(*outcome.Loser)
			if err != nil {
				return err
			}
			if err := ledger.Subtract(loser, outcome.Stake); err != nil {
				return fmt.Errorf("debit loser %s: %w", loser.Owner, err)
			}
			settlement.Loser = loser
			entries = append(entries, model.NewEntry(model.EntryOutcomeLoss, loser.Owner, outcome.Stake, settlement.ID))
		}

		house, err := lookup(state.House)
		if err != nil {
			return err
		}
		if err := ledger.Credit(house, fee); err != nil {
			return fmt.Errorf("credit house fee: %w", err)
		}
		settlement.House = house
		entries = append(entries, model.NewEntry(model.EntryFee, house.Owner, fee, settlement.ID))

		for _, account := range accounts {
			if err := tx.UpdateBalance(ctx, account); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			if entry.Amount == 0 {
				continue
			}
			if err := tx.AppendEntry(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}

	fields := []zap.Field{
		zap.String("settlement_id", settlement.ID),
		zap.Uint64("stake", outcome.Stake),
		zap.Uint64("fee", fee),
		zap.Uint64("net", net),
	}
	if settlement.Winner != nil {
		fields = append(fields, zap.String("winner", string(settlement.Winner.Owner)))
	}
	if settlement.Loser != nil {
		fields = append(fields, zap.String("loser", string(settlement.Loser.Owner)))
	}
	e.logger.Info("Outcome attested", fields...)
	return settlement, nil
}

func (e *settlementEngine) GetGameState(ctx context.Context) (*model.GameState, error) {
	state, err := e.store.GetGameState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNotInitialized
	}
	return state, nil
}

func (e *settlementEngine) GetBalance(ctx context.Context, owner model.Identity) (*model.UserBalance, error) {
	account, err := e.store.GetBalance(ctx, owner)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (e *settlementEngine) ListEntries(ctx context.Context, owner model.Identity) ([]*model.LedgerEntry, error) {
	return e.store.ListEntries(ctx, owner)
}

func (e *settlementEngine) gameState(ctx context.Context, tx repository.LedgerTx) (*model.GameState, error) {
	state, err := tx.GetGameState(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNotInitialized
	}
	return state, nil
}

func (e *settlementEngine) lockAccount(ctx context.Context, tx repository.LedgerTx, owner model.Identity) (*model.UserBalance, error) {
	account, err := tx.GetBalanceForUpdate(ctx, owner)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, owner)
	}
	return account, nil
}

func (e *settlementEngine) tokenAccount(owner model.Identity) model.TokenAccount {
	return model.TokenAccount{Owner: owner, Mint: e.mint}
}

func (e *settlementEngine) inconsistent(op string, req model.TransferRequest, err error) error {
	e.logger.Error("Token transfer committed but ledger update failed",
		zap.String("operation", op),
		zap.String("transfer_id", req.ID),
		zap.String("from", string(req.From.Owner)),
		zap.String("to", string(req.To.Owner)),
		zap.Uint64("amount", req.Amount),
		zap.Error(err))
	return fmt.Errorf("%w: %s transfer %s: %v", ErrInconsistentState, op, req.ID, err)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
