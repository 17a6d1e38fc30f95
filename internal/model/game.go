package model

import "time"

// GameState is the house configuration. Authority is fixed at creation.
type GameState struct {
	Authority Identity  `json:"authority"`
	Bump      uint8     `json:"bump"`
	House     Identity  `json:"house"`
	CreatedAt time.Time `json:"created_at"`
}

type Outcome struct {
	Winner *Identity `json:"winner,omitempty"`
	Loser  *Identity `json:"loser,omitempty"`
	Stake  uint64    `json:"stake"`
}

type Settlement struct {
	ID     string       `json:"id"`
	Fee    uint64       `json:"fee"`
	Net    uint64       `json:"net"`
	Winner *UserBalance `json:"winner,omitempty"`
	Loser  *UserBalance `json:"loser,omitempty"`
	House  *UserBalance `json:"house"`
}
