package gateway

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"github.com/Evgen-Mutagen/wager-custody/internal/treasury"
	"go.uber.org/zap"
)

// Memory is an in-process custodial facility. It backs local runs that have
// no external custody service configured.
type Memory struct {
	mu       sync.Mutex
	accounts map[model.TokenAccount]uint64
	logger   *zap.Logger
}

func NewMemory(logger *zap.Logger) *Memory {
	return &Memory{
		accounts: make(map[model.TokenAccount]uint64),
		logger:   logger,
	}
}

// Mint credits token value out of thin air.
func (m *Memory) Mint(account model.TokenAccount, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum, carry := bits.Add64(m.accounts[account], amount, 0)
	if carry != 0 {
		return fmt.Errorf("mint to %s: %w", account.Owner, ErrSupplyOverflow)
	}
	m.accounts[account] = sum
	return nil
}

func (m *Memory) BalanceOf(account model.TokenAccount) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[account]
}

func (m *Memory) Transfer(ctx context.Context, req model.TransferRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := authorize(req); err != nil {
		return err
	}
	if req.From.Mint != req.To.Mint {
		return fmt.Errorf("%w: mint mismatch %q != %q", ErrTransferRejected, req.From.Mint, req.To.Mint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.accounts[req.From]
	if from < req.Amount {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrTransferRejected, req.From.Owner, from, req.Amount)
	}
	to, carry := bits.Add64(m.accounts[req.To], req.Amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: destination overflow", ErrTransferRejected)
	}

	m.accounts[req.From] = from - req.Amount
	m.accounts[req.To] = to

	m.logger.Debug("Token transfer applied",
		zap.String("from", string(req.From.Owner)),
		zap.String("to", string(req.To.Owner)),
		zap.Uint64("amount", req.Amount))
	return nil
}

// authorize checks that the authorizer controls the source account.
func authorize(req model.TransferRequest) error {
	auth := req.Authorization
	if auth.Signer != req.From.Owner {
		return fmt.Errorf("%w: %s does not own source account of %s", ErrTransferRejected, auth.Signer, req.From.Owner)
	}

	switch auth.Kind {
	case model.AuthorizationSignature:
		return nil
	case model.AuthorizationDerived:
		if err := treasury.Verify(auth); err != nil {
			return fmt.Errorf("%w: %v", ErrTransferRejected, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown authorization kind %q", ErrTransferRejected, auth.Kind)
	}
}
