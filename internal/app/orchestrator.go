package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the group broadcaster: it keeps the registry and the
// room goroutines in step and applies the delivery policy.
type Orchestrator struct {
	Registry *Registry
	Rooms    core.RoomManager
	Policy   Policy
}

func NewOrchestrator(reg *Registry, rooms core.RoomManager, policy Policy) *Orchestrator {
	return &Orchestrator{Registry: reg, Rooms: rooms, Policy: policy}
}

// Join adds the session to the room, starting the room if needed.
func (o *Orchestrator) Join(ctx context.Context, roomName domain.RoomName, ms core.MemberSession, cancel context.CancelFunc) error {
	room := o.Rooms.GetOrCreate(roomName)
	if err := room.AddMember(ctx, ms); err != nil {
		return fmt.Errorf("join %s: %w", roomName, err)
	}
	o.Registry.Bind(roomName, ms, cancel)
	log.Info().Str("module", "app.orch").Str("sid", string(ms.ID())).Str("room", string(roomName)).Msg("added to room")
	return nil
}

// Leave removes the session from the room. Leaving a room one is not in
// is a no-op.
func (o *Orchestrator) Leave(ctx context.Context, roomName domain.RoomName, sid core.SessionID) {
	o.Registry.Unbind(sid)
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return
	}
	if err := room.RemoveMember(ctx, sid); err != nil && !errors.Is(err, core.ErrRoomStopped) {
		log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("leave")
		return
	}
	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(roomName)).Msg("left room")
}

// Broadcast fans data out to the room, skipping exclude. Recipients that
// failed are handed to the policy; callers never see their errors.
func (o *Orchestrator) Broadcast(ctx context.Context, roomName domain.RoomName, data core.Frame, exclude ...core.SessionID) core.PublishResult {
	room, ok := o.Rooms.Get(roomName)
	if !ok {
		return core.PublishResult{}
	}
	res, err := room.Broadcast(ctx, data, exclude...)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("room", string(roomName)).Msg("broadcast")
		return res
	}
	if o.Policy == nil {
		return res
	}
	for _, d := range res.Dropped {
		switch o.Policy.OnDeliveryFailure(room, d) {
		case KickMember:
			log.Warn().Err(d.Err).Str("module", "app.orch").Str("sid", string(d.SID)).Str("room", string(roomName)).Msg("kicking member")
			if err := room.RemoveMember(ctx, d.SID); err != nil {
				log.Warn().Err(err).Str("module", "app.orch").Str("sid", string(d.SID)).Msg("kick")
			}
		case DropFrame:
			log.Debug().Str("module", "app.orch").Str("sid", string(d.SID)).Msg("frame dropped")
		case NoAction:
		}
	}
	return res
}

// Shutdown cancels every live session and stops all rooms.
func (o *Orchestrator) Shutdown() {
	n := o.Registry.CancelAll()
	o.Rooms.StopAll()
	log.Info().Str("module", "app.orch").Int("sessions", n).Msg("orchestrator stopped")
}
