// Package core holds the room membership engine: who is in which room and
// how a frame reaches every member.
package core

import (
	"context"
	"errors"

	"github.com/dkeye/Parley/internal/domain"
)

// Frame is one encoded outbound message.
type Frame []byte

type SessionID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
	ErrRoomStopped  = errors.New("room stopped")
	ErrSendPanic    = errors.New("send panicked")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend never blocks: a full queue yields ErrBackpressure, a closed one
// ErrConnClosed.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds domain.Member and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	ID() SessionID
	Meta() *domain.Member
	Signal() SignalConnection
}

// Delivery is one recipient a broadcast could not reach.
type Delivery struct {
	SID    SessionID
	Member MemberSession
	Err    error
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []Delivery
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID      SessionID       `json:"sid"`
	Username domain.Identity `json:"username"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
// All methods are serialized through the room's own goroutine.
type RoomService interface {
	Name() domain.RoomName
	MemberCount(ctx context.Context) (int, error)
	MembersSnapshot(ctx context.Context) ([]MemberDTO, error)

	AddMember(ctx context.Context, ms MemberSession) error
	RemoveMember(ctx context.Context, sid SessionID) error
	Broadcast(ctx context.Context, data Frame, exclude ...SessionID) (PublishResult, error)

	Stop()
	Done() <-chan struct{}
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"member_count"`
}

type RoomManager interface {
	GetOrCreate(name domain.RoomName) RoomService
	Get(name domain.RoomName) (RoomService, bool)
	List(ctx context.Context) []RoomInfo
	StopAll()
}
