package app

import (
	"errors"

	"github.com/dkeye/Parley/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	// DropFrame loses this frame for the recipient and keeps it in the room.
	DropFrame
	// KickMember removes the recipient from the room. Its connection is left
	// to its owner.
	KickMember
)

type Policy interface {
	OnDeliveryFailure(room core.RoomService, d core.Delivery) BackpressureAction
}

// SimplePolicy kicks recipients that can no longer receive anything and
// drops frames for the ones that are merely slow.
type SimplePolicy struct{}

func (SimplePolicy) OnDeliveryFailure(_ core.RoomService, d core.Delivery) BackpressureAction {
	switch {
	case errors.Is(d.Err, core.ErrBackpressure):
		return DropFrame
	case errors.Is(d.Err, core.ErrConnClosed), errors.Is(d.Err, core.ErrSendPanic):
		return KickMember
	default:
		return NoAction
	}
}
