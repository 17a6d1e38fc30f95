package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	acc := NewAccount("alice")
	assert.Equal(t, "alice", string(acc.Owner))
	assert.Zero(t, acc.Balance)
	assert.False(t, acc.CreatedAt.IsZero())
}

func TestCredit(t *testing.T) {
	acc := NewAccount("alice")
	require.NoError(t, Credit(acc, 40))
	require.NoError(t, Credit(acc, 2))
	assert.EqualValues(t, 42, acc.Balance)
}

func TestCreditOverflow(t *testing.T) {
	acc := NewAccount("alice")
	acc.Balance = math.MaxUint64 - 1

	err := Credit(acc, 2)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
	assert.EqualValues(t, uint64(math.MaxUint64-1), acc.Balance)

	require.NoError(t, Credit(acc, 1))
	assert.EqualValues(t, uint64(math.MaxUint64), acc.Balance)
}

func TestDebit(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		amount  uint64
		want    uint64
		wantErr error
	}{
		{name: "partial", balance: 100, amount: 30, want: 70},
		{name: "exact", balance: 100, amount: 100, want: 0},
		{name: "zero amount", balance: 5, amount: 0, want: 5},
		{name: "insufficient", balance: 10, amount: 11, want: 10, wantErr: ErrInsufficientFunds},
		{name: "empty account", balance: 0, amount: 1, want: 0, wantErr: ErrInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := NewAccount("bob")
			acc.Balance = tt.balance

			err := Debit(acc, tt.amount)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, acc.Balance)
		})
	}
}

func TestSubtractUnderflow(t *testing.T) {
	acc := NewAccount("bob")
	acc.Balance = 50

	err := Subtract(acc, 100)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
	assert.EqualValues(t, 50, acc.Balance)
}

func TestSplitStake(t *testing.T) {
	tests := []struct {
		stake, fee, net uint64
	}{
		{stake: 0, fee: 0, net: 0},
		{stake: 9, fee: 0, net: 9},
		{stake: 100, fee: 10, net: 90},
		{stake: 105, fee: 10, net: 95},
		{stake: 119, fee: 11, net: 108},
		{stake: math.MaxUint64, fee: math.MaxUint64 / 10, net: math.MaxUint64 - math.MaxUint64/10},
	}

	for _, tt := range tests {
		fee, net := SplitStake(tt.stake)
		assert.Equal(t, tt.fee, fee, "fee for stake %d", tt.stake)
		assert.Equal(t, tt.net, net, "net for stake %d", tt.stake)
		assert.Equal(t, tt.stake, fee+net)
	}
}
