package app

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

// RoomManagerImpl lazily starts one room goroutine per room name.
type RoomManagerImpl struct {
	ctx   context.Context
	mu    sync.RWMutex
	rooms map[domain.RoomName]core.RoomService
}

func NewRoomManager(ctx context.Context) core.RoomManager {
	return &RoomManagerImpl{ctx: ctx, rooms: make(map[domain.RoomName]core.RoomService)}
}

func stopped(r core.RoomService) bool {
	select {
	case <-r.Done():
		return true
	default:
		return false
	}
}

func (f *RoomManagerImpl) GetOrCreate(name domain.RoomName) core.RoomService {
	f.mu.RLock()
	room, ok := f.rooms[name]
	f.mu.RUnlock()
	if ok && !stopped(room) {
		return room
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok = f.rooms[name]; ok && !stopped(room) {
		return room
	}
	room = core.NewRoomService(f.ctx, name)
	f.rooms[name] = room
	return room
}

func (f *RoomManagerImpl) Get(name domain.RoomName) (core.RoomService, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	room, ok := f.rooms[name]
	return room, ok
}

// List reports live rooms sorted by name.
func (f *RoomManagerImpl) List(ctx context.Context) []core.RoomInfo {
	f.mu.RLock()
	rooms := make([]core.RoomService, 0, len(f.rooms))
	for _, r := range f.rooms {
		rooms = append(rooms, r)
	}
	f.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		n, err := r.MemberCount(ctx)
		if err != nil {
			continue
		}
		out = append(out, core.RoomInfo{Name: r.Name(), MemberCount: n})
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return strings.Compare(string(a.Name), string(b.Name)) })
	return out
}

func (f *RoomManagerImpl) StopAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, room := range f.rooms {
		room.Stop()
		delete(f.rooms, name)
	}
}
