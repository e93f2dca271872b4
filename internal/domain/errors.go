package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrIdentityNotFound = errors.New("identity not found")
	ErrUserExists       = errors.New("user already exists")
	ErrPersistence      = errors.New("persistence failed")
	ErrSessionClosed    = errors.New("session closed")

	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
	ErrRateLimited    = errors.New("rate limited")
)
