package model

// TokenAccount is the custodial token account an identity holds for a mint.
type TokenAccount struct {
	Owner Identity `json:"owner"`
	Mint  string   `json:"mint"`
}

type AuthorizationKind string

const (
	// AuthorizationSignature means the owner of the source account signed the call.
	AuthorizationSignature AuthorizationKind = "signature"
	// AuthorizationDerived means the signer was re-derived from a seed and bump.
	AuthorizationDerived AuthorizationKind = "derived"
)

type Authorization struct {
	Kind   AuthorizationKind `json:"kind"`
	Signer Identity          `json:"signer"`
	Seed   string            `json:"seed,omitempty"`
	Bump   uint8             `json:"bump,omitempty"`
	Proof  string            `json:"proof,omitempty"`
}

func SignedBy(signer Identity) Authorization {
	return Authorization{Kind: AuthorizationSignature, Signer: signer}
}

// TransferRequest.ID lets the custody service drop replays of the same move.
type TransferRequest struct {
	ID            string        `json:"id"`
	From          TokenAccount  `json:"from"`
	To            TokenAccount  `json:"to"`
	Authorization Authorization `json:"authorization"`
	Amount        uint64        `json:"amount"`
}
