package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type ledgerStore struct {
	db *Database
}

func NewLedgerStore(db *Database) LedgerStore {
	return &ledgerStore{db: db}
}

func (s *ledgerStore) WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&ledgerTx{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *ledgerStore) GetGameState(ctx context.Context) (*model.GameState, error) {
	return getGameState(ctx, s.db.db)
}

func (s *ledgerStore) GetBalance(ctx context.Context, owner model.Identity) (*model.UserBalance, error) {
	query := `SELECT owner, balance, created_at, updated_at FROM user_balances WHERE owner = $1`
	return scanBalance(s.db.db.QueryRowContext(ctx, query, string(owner)))
}

func (s *ledgerStore) ListEntries(ctx context.Context, owner model.Identity) ([]*model.LedgerEntry, error) {
	query := `SELECT id, kind, owner, amount, reference, created_at
              FROM ledger_entries
              WHERE owner = $1
              ORDER BY created_at DESC, seq DESC`
	rows, err := s.db.db.QueryContext(ctx, query, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var (
			e      model.LedgerEntry
			amount string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Owner, &amount, &e.Reference, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if e.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid entry amount %q: %w", amount, err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return entries, nil
}

type ledgerTx struct {
	q queryer
}

func (t *ledgerTx) GetGameState(ctx context.Context) (*model.GameState, error) {
	return getGameState(ctx, t.q)
}

func (t *ledgerTx) CreateGameState(ctx context.Context, state *model.GameState) error {
	query := `INSERT INTO game_state (id, authority, bump, house, created_at)
              VALUES (1, $1, $2, $3, $4)`
	_, err := t.q.ExecContext(ctx, query, string(state.Authority), int16(state.Bump), string(state.House), state.CreatedAt)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create game state: %w", err)
	}
	return nil
}

func (t *ledgerTx) GetBalanceForUpdate(ctx context.Context, owner model.Identity) (*model.UserBalance, error) {
	query := `SELECT owner, balance, created_at, updated_at FROM user_balances WHERE owner = $1 FOR UPDATE`
	return scanBalance(t.q.QueryRowContext(ctx, query, string(owner)))
}

func (t *ledgerTx) GetBalancesForUpdate(ctx context.Context, owners []model.Identity) (map[model.Identity]*model.UserBalance, error) {
	keys := make([]string, 0, len(owners))
	for _, o := range owners {
		keys = append(keys, string(o))
	}
	// sorted and unique so concurrent settlements lock rows in the same order
	sort.Strings(keys)
	keys = slices.Compact(keys)

	query := `SELECT owner, balance, created_at, updated_at
              FROM user_balances
              WHERE owner = ANY($1)
              ORDER BY owner
              FOR UPDATE`
	rows, err := t.q.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	result := make(map[model.Identity]*model.UserBalance, len(keys))
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		result[b.Owner] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (t *ledgerTx) CreateBalance(ctx context.Context, balance *model.UserBalance) error {
	query := `INSERT INTO user_balances (owner, balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4)`
	_, err := t.q.ExecContext(ctx, query,
		string(balance.Owner),
		strconv.FormatUint(balance.Balance, 10),
		balance.CreatedAt,
		balance.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

func (t *ledgerTx) UpdateBalance(ctx context.Context, balance *model.UserBalance) error {
	query := `UPDATE user_balances SET balance = $1, updated_at = $2 WHERE owner = $3`
	res, err := t.q.ExecContext(ctx, query,
		strconv.FormatUint(balance.Balance, 10),
		balance.UpdatedAt,
		string(balance.Owner),
	)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update balance of %s: %w", balance.Owner, ErrNotFound)
	}
	return nil
}

func (t *ledgerTx) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (id, kind, owner, amount, reference, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := t.q.ExecContext(ctx, query,
		entry.ID,
		string(entry.Kind),
		string(entry.Owner),
		strconv.FormatUint(entry.Amount, 10),
		entry.Reference,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBalance(row rowScanner) (*model.UserBalance, error) {
	var (
		b      model.UserBalance
		amount string
	)
	err := row.Scan(&b.Owner, &amount, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if b.Balance, err = strconv.ParseUint(amount, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid balance %q for %s: %w", amount, b.Owner, err)
	}
	return &b, nil
}

func getGameState(ctx context.Context, q queryer) (*model.GameState, error) {
	var (
		state model.GameState
		bump  int16
	)
	query := `SELECT authority, bump, house, created_at FROM game_state WHERE id = 1`
	err := q.QueryRowContext(ctx, query).Scan(&state.Authority, &bump, &state.House, &state.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game state: %w", err)
	}
	state.Bump = uint8(bump)
	return &state, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
