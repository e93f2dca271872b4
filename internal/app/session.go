package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type SessionState int32

const (
	StateConnecting SessionState = iota
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ReasonNotSaved is the error frame reason sent when persistence fails.
const ReasonNotSaved = "Message not saved"

var ErrUnknownFrame = errors.New("unknown frame type")

// Chat holds what every session on this node shares.
type Chat struct {
	Orch            *Orchestrator
	Store           MessageStore
	Limiter         *RateLimiter
	MaxMessageRunes int
}

// Session is one client connection bound to one room.
// Frames are handled one at a time in the order they are received.
type Session struct {
	id       core.SessionID
	identity domain.Identity
	room     domain.RoomName
	conn     core.SignalConnection
	member   core.MemberSession
	cancel   context.CancelFunc

	chat *Chat
	log  zerolog.Logger

	state     atomic.Int32
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewSession prepares a session in the connecting state. cancel, if set, is
// what shutdown uses to tear the connection down.
func (c *Chat) NewSession(identity domain.Identity, room domain.RoomName, conn core.SignalConnection, cancel context.CancelFunc) *Session {
	sid := core.SessionID(uuid.NewString())
	s := &Session{
		id:       sid,
		identity: identity,
		room:     room,
		conn:     conn,
		member:   core.NewMemberSession(sid, domain.NewMember(identity, room), conn),
		cancel:   cancel,
		chat:     c,
		log: log.With().Str("module", "app.session").Str("sid", string(sid)).
			Str("user", string(identity)).Str("room", string(room)).Logger(),
	}
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) ID() core.SessionID          { return s.id }
func (s *Session) Identity() domain.Identity   { return s.identity }
func (s *Session) Room() domain.RoomName       { return s.room }
func (s *Session) State() SessionState         { return SessionState(s.state.Load()) }
func (s *Session) Member() core.MemberSession  { return s.member }
func (s *Session) setState(state SessionState) { s.state.Store(int32(state)) }

// Connect admits the session into its room. Without an identity the
// session is refused with domain.ErrUnauthenticated and never joins.
func (s *Session) Connect(ctx context.Context) error {
	if s.identity == "" {
		s.setState(StateClosed)
		s.log.Warn().Msg("rejected unauthenticated connection")
		return domain.ErrUnauthenticated
	}
	if s.State() != StateConnecting {
		return nil
	}
	if err := s.chat.Orch.Join(ctx, s.room, s.member, s.cancel); err != nil {
		s.setState(StateClosed)
		return err
	}
	if !s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive)) {
		// Disconnected while joining.
		s.chat.Orch.Leave(context.Background(), s.room, s.id)
		return domain.ErrSessionClosed
	}
	s.log.Info().Msg("session active")
	return nil
}

// Receive handles one inbound text frame. The returned error only explains
// why a frame was dropped; the connection stays open either way.
func (s *Session) Receive(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateActive {
		s.log.Debug().Str("state", s.State().String()).Msg("frame ignored")
		return nil
	}

	in, err := protocol.Decode(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("bad frame")
		return err
	}

	switch m := in.(type) {
	case protocol.ChatMessage:
		return s.handleChat(ctx, m.Text)
	case protocol.Typing:
		s.handleTyping(ctx, m.IsTyping)
		return nil
	case protocol.Unknown:
		s.log.Warn().Str("type", m.Type).Msg("unknown frame")
		return ErrUnknownFrame
	default:
		return ErrUnknownFrame
	}
}

func (s *Session) validate(text string) error {
	if text == "" {
		return domain.ErrEmptyMessage
	}
	if limit := s.chat.MaxMessageRunes; limit > 0 && utf8.RuneCountInString(text) > limit {
		return domain.ErrMessageTooLong
	}
	return nil
}

// handleChat persists first, then acks the sender, then broadcasts to the
// whole room including the sender. The ack and the echo share the
// sender's queue, so the ack is always seen first.
func (s *Session) handleChat(ctx context.Context, text string) error {
	if err := s.validate(text); err != nil {
		s.log.Warn().Err(err).Int("len", len(text)).Msg("message rejected")
		return err
	}
	if !s.chat.Limiter.Allow(s.identity) {
		s.log.Warn().Msg("message rate limited")
		return domain.ErrRateLimited
	}

	// The message must land even if the sender is gone by now.
	ctx = context.WithoutCancel(ctx)

	if _, err := s.chat.Store.CreateMessage(ctx, s.room, s.identity, text); err != nil {
		s.log.Error().Err(err).Msg("message not persisted")
		_ = s.send(protocol.NewError(ReasonNotSaved))
		return err
	}

	// A sender whose ack did not fit in its queue does not get the echo
	// either, so an echo is never seen without its ack.
	var exclude []core.SessionID
	if err := s.send(protocol.NewAck(text)); err != nil {
		exclude = append(exclude, s.id)
	}

	frame, err := protocol.Encode(protocol.NewChatBroadcast(text, string(s.identity)))
	if err != nil {
		s.log.Error().Err(err).Msg("encode broadcast")
		return err
	}
	res := s.chat.Orch.Broadcast(ctx, s.room, frame, exclude...)
	s.log.Debug().Int("sent_to", res.SendTo).Msg("message relayed")
	return nil
}

func (s *Session) handleTyping(ctx context.Context, typing bool) {
	frame, err := protocol.Encode(protocol.NewTypingBroadcast(string(s.identity), typing))
	if err != nil {
		s.log.Error().Err(err).Msg("encode typing")
		return
	}
	s.chat.Orch.Broadcast(ctx, s.room, frame, s.id)
}

func (s *Session) send(v any) error {
	b, err := protocol.Encode(v)
	if err != nil {
		s.log.Error().Err(err).Msg("send marshal")
		return err
	}
	if err := s.conn.TrySend(b); err != nil {
		s.log.Debug().Err(err).Msg("send")
		return err
	}
	return nil
}

// Disconnect leaves the room and marks the session closed. Only the first
// call does anything. It does not close the connection; its owner does.
func (s *Session) Disconnect(reason string) {
	s.closeOnce.Do(func() {
		prev := s.State()
		s.setState(StateClosing)
		if prev == StateActive {
			s.chat.Orch.Leave(context.Background(), s.room, s.id)
		}
		s.setState(StateClosed)
		s.log.Info().Str("reason", reason).Msg("session closed")
	})
}
