package app

import (
	"context"
	"sync"
	"testing"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/storage"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	err    error
	closed int
	// reject is how many upcoming frames fail with core.ErrBackpressure.
	reject int
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.reject > 0 {
		f.reject--
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

// received decodes every frame sent so far.
func (f *fakeConn) received(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func newTestOrch(t *testing.T) *Orchestrator {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewOrchestrator(NewRegistry(), NewRoomManager(ctx), SimplePolicy{})
}

func newTestStore(t *testing.T, room domain.RoomName, users ...string) *storage.Store {
	t.Helper()
	db, err := storage.Open("", true, zerolog.Nop())
	require.NoError(t, err)
	key, err := cryptox.GenerateKey()
	require.NoError(t, err)
	codec, err := cryptox.NewCodecFromString(key)
	require.NoError(t, err)
	s := storage.New(db, codec, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	_, _, err = s.GetOrCreateRoom(ctx, room)
	require.NoError(t, err)
	for _, u := range users {
		_, err := s.CreateUser(ctx, u)
		require.NoError(t, err)
	}
	return s
}

func connect(t *testing.T, chat *Chat, who string, room domain.RoomName) (*Session, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	s := chat.NewSession(domain.Identity(who), room, conn, nil)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { s.Disconnect("test cleanup") })
	return s, conn
}
