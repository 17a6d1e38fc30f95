package treasury

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultSeed = "game"

	housePrefix = "house:"
)

var ErrInvalidSigner = errors.New("invalid derived signer")

// Treasury derives the house identity and its signing capability from a
// fixed seed and the bump stored in GameState. No private key is held.
type Treasury struct {
	seed string
}

func New(seed string) *Treasury {
	if seed == "" {
		seed = DefaultSeed
	}
	return &Treasury{seed: seed}
}

func (t *Treasury) Seed() string {
	return t.seed
}

// HouseIdentity is deterministic for a given seed and bump.
func (t *Treasury) HouseIdentity(bump uint8) model.Identity {
	return HouseIdentity(t.seed, bump)
}

// DeriveSigner returns the authorization presented to a gateway for
// transfers out of the house token account.
func (t *Treasury) DeriveSigner(bump uint8) model.Authorization {
	signer := HouseIdentity(t.seed, bump)
	return model.Authorization{
		Kind:   model.AuthorizationDerived,
		Signer: signer,
		Seed:   t.seed,
		Bump:   bump,
		Proof:  proof(t.seed, signer),
	}
}

func HouseIdentity(seed string, bump uint8) model.Identity {
	sum := blake2b.Sum256(append([]byte(seed), bump))
	return model.Identity(housePrefix + hex.EncodeToString(sum[:]))
}

// Verify re-derives the signer from the seed and bump carried in auth.
func Verify(auth model.Authorization) error {
	if auth.Kind != model.AuthorizationDerived {
		return fmt.Errorf("%w: kind %q", ErrInvalidSigner, auth.Kind)
	}
	expected := HouseIdentity(auth.Seed, auth.Bump)
	if auth.Signer != expected {
		return fmt.Errorf("%w: signer does not match seed and bump", ErrInvalidSigner)
	}
	if subtle.ConstantTimeCompare([]byte(auth.Proof), []byte(proof(auth.Seed, expected))) != 1 {
		return fmt.Errorf("%w: bad proof", ErrInvalidSigner)
	}
	return nil
}

func proof(seed string, signer model.Identity) string {
	h, err := blake2b.New256([]byte(seed))
	if err != nil {
		// keys longer than 64 bytes are rejected by blake2b
		sum := blake2b.Sum256([]byte(seed))
		h, _ = blake2b.New256(sum[:])
	}
	h.Write([]byte(signer))
	return hex.EncodeToString(h.Sum(nil))
}
