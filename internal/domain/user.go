// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const MaxUsernameLen = 36

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

type UserID string

// Identity is the authenticated username attached to a connection.
// It is resolved outside the realtime path and treated as opaque here.
type Identity string

func (i Identity) String() string { return string(i) }

// User is the account record provisioned by the login side.
type User struct {
	ID        UserID    `json:"id"`
	Username  Identity  `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string, now time.Time) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	return &User{
		ID:        UserID(uuid.NewString()),
		Username:  Identity(username),
		CreatedAt: now.UTC(),
	}, nil
}
