package treasury

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

func TestHouseIdentityDeterministic(t *testing.T) {
	tr := New("")
	assert.Equal(t, DefaultSeed, tr.Seed())

	a := tr.HouseIdentity(254)
	b := New(DefaultSeed).HouseIdentity(254)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(string(a), "house:"))

	assert.NotEqual(t, a, tr.HouseIdentity(253))
	assert.NotEqual(t, a, New("other").HouseIdentity(254))
}

func TestDeriveSignerVerifies(t *testing.T) {
	tr := New("game")
	auth := tr.DeriveSigner(7)

	assert.Equal(t, model.AuthorizationDerived, auth.Kind)
	assert.Equal(t, tr.HouseIdentity(7), auth.Signer)
	require.NoError(t, Verify(auth))
}

func TestVerifyRejectsTampering(t *testing.T) {
	tr := New("game")

	wrongBump := tr.DeriveSigner(7)
	wrongBump.Bump = 8
	require.ErrorIs(t, Verify(wrongBump), ErrInvalidSigner)

	forged := tr.DeriveSigner(7)
	forged.Proof = strings.Repeat("0", len(forged.Proof))
	require.ErrorIs(t, Verify(forged), ErrInvalidSigner)

	signed := model.SignedBy(tr.HouseIdentity(7))
	require.ErrorIs(t, Verify(signed), ErrInvalidSigner)
}

func TestLongSeed(t *testing.T) {
	tr := New(strings.Repeat("s", 100))
	require.NoError(t, Verify(tr.DeriveSigner(1)))
}
