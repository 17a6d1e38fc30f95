package model

import "time"

// Identity is an opaque caller identity. Registered users use their login.
type Identity string

type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}

func (u *User) Identity() Identity {
	return Identity(u.Login)
}

// UserBalance is the custodial holding of a single owner.
type UserBalance struct {
	Owner     Identity  `json:"owner"`
	Balance   uint64    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
