package core

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// roomImpl is an in-memory room driven by a single goroutine.
// Membership is only touched inside run, so join, leave and broadcast on
// the same room are applied one at a time in arrival order.
// It never closes adapter-owned resources.
type roomImpl struct {
	name domain.RoomName
	ops  chan func()
	stop chan struct{}
	done chan struct{}
	once sync.Once
	log  zerolog.Logger

	// owned by run
	members []MemberSession
}

// NewRoomService starts the room goroutine. It runs until Stop is called
// or ctx is cancelled.
func NewRoomService(ctx context.Context, name domain.RoomName) RoomService {
	r := &roomImpl{
		name: name,
		ops:  make(chan func()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		log:  log.With().Str("module", "core.room").Str("room", string(name)).Logger(),
	}
	go r.run(ctx)
	return r
}

func (r *roomImpl) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.stop:
			r.log.Debug().Int("members", len(r.members)).Msg("room stopped")
			return
		case <-ctx.Done():
			r.log.Debug().Int("members", len(r.members)).Msg("room ctx done")
			return
		}
	}
}

// exec hands fn to the room goroutine and waits until it has run.
func (r *roomImpl) exec(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	select {
	case r.ops <- func() { fn(); close(reply) }:
	case <-r.done:
		return ErrRoomStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-reply
	return nil
}

func (r *roomImpl) Name() domain.RoomName { return r.name }

func (r *roomImpl) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *roomImpl) Done() <-chan struct{} { return r.done }

func (r *roomImpl) MemberCount(ctx context.Context) (int, error) {
	var n int
	err := r.exec(ctx, func() { n = len(r.members) })
	return n, err
}

func (r *roomImpl) AddMember(ctx context.Context, ms MemberSession) error {
	return r.exec(ctx, func() {
		sid := ms.ID()
		if i := r.indexOf(sid); i >= 0 {
			r.members[i] = ms
			return
		}
		r.members = append(r.members, ms)
		r.log.Info().Str("sid", string(sid)).Str("user", string(ms.Meta().Identity)).Int("members", len(r.members)).Msg("member added")
	})
}

// RemoveMember is a no-op for a session that is not a member.
func (r *roomImpl) RemoveMember(ctx context.Context, sid SessionID) error {
	return r.exec(ctx, func() {
		i := r.indexOf(sid)
		if i < 0 {
			return
		}
		r.members = slices.Delete(r.members, i, i+1)
		r.log.Info().Str("sid", string(sid)).Int("members", len(r.members)).Msg("member removed")
	})
}

// Broadcast offers data to every member not listed in exclude, in join
// order. A recipient that fails is reported in PublishResult.Dropped and
// does not stop delivery to the rest.
func (r *roomImpl) Broadcast(ctx context.Context, data Frame, exclude ...SessionID) (PublishResult, error) {
	res := PublishResult{}
	err := r.exec(ctx, func() {
		for _, m := range r.members {
			sid := m.ID()
			if slices.Contains(exclude, sid) {
				continue
			}
			if err := trySend(m, data); err != nil {
				res.Dropped = append(res.Dropped, Delivery{SID: sid, Member: m, Err: err})
				continue
			}
			res.SendTo++
		}
	})
	r.log.Debug().Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res, err
}

func (r *roomImpl) MembersSnapshot(ctx context.Context) ([]MemberDTO, error) {
	var out []MemberDTO
	err := r.exec(ctx, func() {
		out = make([]MemberDTO, 0, len(r.members))
		for _, ms := range r.members {
			out = append(out, MemberDTO{SID: ms.ID(), Username: ms.Meta().Identity})
		}
	})
	return out, err
}

func (r *roomImpl) indexOf(sid SessionID) int {
	return slices.IndexFunc(r.members, func(m MemberSession) bool { return m.ID() == sid })
}

func trySend(m MemberSession, data Frame) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrSendPanic, rec)
		}
	}()
	return m.Signal().TrySend(data)
}
