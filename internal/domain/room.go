package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type (
	RoomName string
	RoomID   string
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameInvalid = errors.New("room name must be letters, digits, '_' or '-'")

	roomNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type Room struct {
	ID        RoomID    `json:"id"`
	Name      RoomName  `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidateRoomName(name string) error {
	if name == "" {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen || !roomNameRe.MatchString(name) {
		return ErrRoomNameInvalid
	}
	return nil
}

func NewRoom(name RoomName, now time.Time) (*Room, error) {
	if err := ValidateRoomName(string(name)); err != nil {
		return nil, err
	}
	return &Room{ID: RoomID(uuid.NewString()), Name: name, CreatedAt: now.UTC()}, nil
}
