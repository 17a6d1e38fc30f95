package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

// MemoryLedgerStore keeps the ledger in process. Transactions are serialised
// and a failed transaction restores the snapshot taken when it started.
type MemoryLedgerStore struct {
	mu       sync.Mutex
	game     *model.GameState
	balances map[model.Identity]model.UserBalance
	entries  []model.LedgerEntry
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		balances: make(map[model.Identity]model.UserBalance),
	}
}

func (s *MemoryLedgerStore) WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game := s.game
	balances := make(map[model.Identity]model.UserBalance, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	entries := len(s.entries)

	if err := fn(&memoryTx{s: s}); err != nil {
		s.game = game
		s.balances = balances
		s.entries = s.entries[:entries]
		return err
	}
	return nil
}

func (s *MemoryLedgerStore) GetGameState(ctx context.Context) (*model.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameState(), nil
}

func (s *MemoryLedgerStore) GetBalance(ctx context.Context, owner model.Identity) (*model.UserBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance(owner), nil
}

func (s *MemoryLedgerStore) ListEntries(ctx context.Context, owner model.Identity) ([]*model.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*model.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Owner == owner {
			e := s.entries[i]
			entries = append(entries, &e)
		}
	}
	return entries, nil
}

func (s *MemoryLedgerStore) gameState() *model.GameState {
	if s.game == nil {
		return nil
	}
	g := *s.game
	return &g
}

func (s *MemoryLedgerStore) balance(owner model.Identity) *model.UserBalance {
	b, ok := s.balances[owner]
	if !ok {
		return nil
	}
	return &b
}

// memoryTx runs with the store mutex held.
type memoryTx struct {
	s *MemoryLedgerStore
}

func (t *memoryTx) GetGameState(ctx context.Context) (*model.GameState, error) {
	return t.s.gameState(), nil
}

func (t *memoryTx) CreateGameState(ctx context.Context, state *model.GameState) error {
	if t.s.game != nil {
		return ErrAlreadyExists
	}
	g := *state
	t.s.game = &g
	return nil
}

func (t *memoryTx) GetBalanceForUpdate(ctx context.Context, owner model.Identity) (*model.UserBalance, error) {
	return t.s.balance(owner), nil
}

func (t *memoryTx) GetBalancesForUpdate(ctx context.Context, owners []model.Identity) (map[model.Identity]*model.UserBalance, error) {
	sorted := append([]model.Identity(nil), owners...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	result := make(map[model.Identity]*model.UserBalance, len(sorted))
	for _, owner := range sorted {
		if b := t.s.balance(owner); b != nil {
			result[owner] = b
		}
	}
	return result, nil
}

func (t *memoryTx) CreateBalance(ctx context.Context, balance *model.UserBalance) error {
	if _, ok := t.s.balances[balance.Owner]; ok {
		return ErrAlreadyExists
	}
	t.s.balances[balance.Owner] = *balance
	return nil
}

func (t *memoryTx) UpdateBalance(ctx context.Context, balance *model.UserBalance) error {
	if _, ok := t.s.balances[balance.Owner]; !ok {
		return ErrNotFound
	}
	t.s.balances[balance.Owner] = *balance
	return nil
}

func (t *memoryTx) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	t.s.entries = append(t.s.entries, *entry)
	return nil
}

// MemoryUserRepository is the in-process counterpart of the users table.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]model.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Login]; ok {
		return ErrAlreadyExists
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.users[user.Login] = *user
	return nil
}

func (r *MemoryUserRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[login]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
