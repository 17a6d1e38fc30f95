package model

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	EntryDeposit       EntryKind = "deposit"
	EntryWithdraw      EntryKind = "withdraw"
	EntryOutcomeWin    EntryKind = "outcome_win"
	EntryOutcomeLoss   EntryKind = "outcome_loss"
	EntryFee           EntryKind = "fee"
	EntryAdminDeposit  EntryKind = "admin_deposit"
	EntryAdminWithdraw EntryKind = "admin_withdraw"
)

// Credit reports whether entries of this kind increase the owner's balance.
func (k EntryKind) Credit() bool {
	switch k {
	case EntryDeposit, EntryOutcomeWin, EntryFee, EntryAdminDeposit:
		return true
	}
	return false
}

// LedgerEntry is one journaled balance mutation.
type LedgerEntry struct {
	ID        uuid.UUID `json:"id"`
	Kind      EntryKind `json:"kind"`
	Owner     Identity  `json:"owner"`
	Amount    uint64    `json:"amount"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEntry(kind EntryKind, owner Identity, amount uint64, reference string) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.New(),
		Kind:      kind,
		Owner:     owner,
		Amount:    amount,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}
}
