package app

import (
	"context"
	"sync"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type sessionEntry struct {
	RoomName domain.RoomName
	Session  core.MemberSession
	Cancel   context.CancelFunc
}

// Registry tracks every live session on this node by sid.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) Bind(
	roomName domain.RoomName,
	sess core.MemberSession,
	cancel context.CancelFunc,
) {
	sid := sess.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		RoomName: roomName,
		Session:  sess,
		Cancel:   cancel,
	}
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomName)).Msg("bound session")
}

func (r *Registry) Unbind(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sid]; !ok {
		return
	}
	delete(r.sessions, sid)
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind session")
}

type regSnap struct {
	SID      core.SessionID
	RoomName domain.RoomName
	Session  core.MemberSession
}

func (r *Registry) Snapshot() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.MapToSlice(r.sessions, func(sid core.SessionID, e *sessionEntry) regSnap {
		return regSnap{SID: sid, RoomName: e.RoomName, Session: e.Session}
	})
}

// Count is the number of live sessions on this node.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

// CancelAll cancels every bound session and reports how many there were.
func (r *Registry) CancelAll() int {
	snap := r.Snapshot()
	for _, s := range snap {
		r.Cancel(s.SID)
	}
	return len(snap)
}
