// Package ledger holds the balance arithmetic shared by every operation that
// moves custodial funds. All arithmetic is checked: nothing wraps.
package ledger

import (
	"errors"
	"math/bits"
	"time"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

// FeeDivisor splits a stake into the house fee (stake / FeeDivisor) and the
// winner's net share.
const FeeDivisor = 10

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

func NewAccount(owner model.Identity) *model.UserBalance {
	now := time.Now().UTC()
	return &model.UserBalance{
		Owner:     owner,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Credit adds amount to the account. The account is untouched on error.
func Credit(account *model.UserBalance, amount uint64) error {
	sum, carry := bits.Add64(account.Balance, amount, 0)
	if carry != 0 {
		return ErrArithmeticOverflow
	}
	account.Balance = sum
	account.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit removes amount from the account after checking the balance covers it.
func Debit(account *model.UserBalance, amount uint64) error {
	if account.Balance < amount {
		return ErrInsufficientFunds
	}
	return Subtract(account, amount)
}

// Subtract removes amount without a sufficiency check. An underflow is
// reported as ErrArithmeticOverflow and leaves the account untouched.
func Subtract(account *model.UserBalance, amount uint64) error {
	diff, borrow := bits.Sub64(account.Balance, amount, 0)
	if borrow != 0 {
		return ErrArithmeticOverflow
	}
	account.Balance = diff
	account.UpdatedAt = time.Now().UTC()
	return nil
}

// SplitStake returns the house fee (floor of stake/10) and the remainder.
func SplitStake(stake uint64) (fee, net uint64) {
	fee = stake / FeeDivisor
	return fee, stake - fee
}
