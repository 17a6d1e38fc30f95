package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

func TestMemoryLedgerStoreCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	err := store.WithinTx(ctx, func(tx LedgerTx) error {
		require.NoError(t, tx.CreateGameState(ctx, &model.GameState{Authority: "root", Bump: 1, House: "house:x"}))
		require.NoError(t, tx.CreateBalance(ctx, &model.UserBalance{Owner: "alice", Balance: 5}))
		return tx.AppendEntry(ctx, model.NewEntry(model.EntryDeposit, "alice", 5, ""))
	})
	require.NoError(t, err)

	state, err := store.GetGameState(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, model.Identity("root"), state.Authority)

	b, err := store.GetBalance(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.EqualValues(t, 5, b.Balance)

	entries, err := store.ListEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMemoryLedgerStoreRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	require.NoError(t, store.WithinTx(ctx, func(tx LedgerTx) error {
		return tx.CreateBalance(ctx, &model.UserBalance{Owner: "alice", Balance: 5})
	}))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx LedgerTx) error {
		b, err := tx.GetBalanceForUpdate(ctx, "alice")
		require.NoError(t, err)
		b.Balance = 500
		require.NoError(t, tx.UpdateBalance(ctx, b))
		require.NoError(t, tx.CreateBalance(ctx, &model.UserBalance{Owner: "bob"}))
		require.NoError(t, tx.CreateGameState(ctx, &model.GameState{Authority: "root"}))
		require.NoError(t, tx.AppendEntry(ctx, model.NewEntry(model.EntryDeposit, "alice", 495, "")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := store.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 5, b.Balance)

	missing, err := store.GetBalance(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)

	state, err := store.GetGameState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)

	entries, err := store.ListEntries(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryLedgerStoreDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	err := store.WithinTx(ctx, func(tx LedgerTx) error {
		require.NoError(t, tx.CreateBalance(ctx, &model.UserBalance{Owner: "alice"}))
		return tx.CreateBalance(ctx, &model.UserBalance{Owner: "alice"})
	})
	require.ErrorIs(t, err, ErrAlreadyExists)

	err = store.WithinTx(ctx, func(tx LedgerTx) error {
		return tx.UpdateBalance(ctx, &model.UserBalance{Owner: "ghost"})
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryGetBalancesForUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	err := store.WithinTx(ctx, func(tx LedgerTx) error {
		require.NoError(t, tx.CreateBalance(ctx, &model.UserBalance{Owner: "alice", Balance: 1}))
		require.NoError(t, tx.CreateBalance(ctx, &model.UserBalance{Owner: "bob", Balance: 2}))

		got, err := tx.GetBalancesForUpdate(ctx, []model.Identity{"bob", "carol", "alice"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.EqualValues(t, 1, got["alice"].Balance)
		assert.EqualValues(t, 2, got["bob"].Balance)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := &model.User{Login: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, u))
	assert.EqualValues(t, 1, u.ID)
	require.ErrorIs(t, repo.Create(ctx, &model.User{Login: "alice"}), ErrAlreadyExists)

	got, err := repo.GetByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	missing, err := repo.GetByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
