// Package signal is the websocket transport of a chat session.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.PongWait <= o.PingPeriod {
		o.PongWait = o.PingPeriod * 10 / 9
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	return o
}

type SignalWSController struct {
	Chat     *app.Chat
	opts     Options
	upgrader websocket.Upgrader
	pumps    conc.WaitGroup
}

func NewSignalWSController(chat *app.Chat, opts Options) *SignalWSController {
	opts = opts.withDefaults()
	return &SignalWSController{
		Chat: chat,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newOriginChecker(opts.AllowedOrigins),
		},
	}
}

// WsSignalConn is the outbound half of a websocket: a bounded queue
// drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleChat upgrades the request and runs a session for identity in room
// until either side goes away or ctx is cancelled. Requests without an
// identity are refused before the upgrade.
func (ctl *SignalWSController) HandleChat(ctx context.Context, c *gin.Context, identity domain.Identity, room domain.RoomName) {
	if identity == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthenticated.Error()})
		return
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := newWsSignalConn(ws, ctl.opts.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	sess := ctl.Chat.NewSession(identity, room, conn, cancel)

	if err := sess.Connect(ctx); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room", string(room)).Msg("session connect")
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "join failed"),
			time.Now().Add(ctl.opts.WriteWait))
		cancel()
		conn.Close()
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sess.ID())).Str("user", string(identity)).Str("room", string(room)).Msg("new WS connection")

	ctl.pumps.Go(func() { ctl.writePump(ctx, conn) })
	ctl.pumps.Go(func() { ctl.readPump(ctx, cancel, sess, conn) })
}

// Wait blocks until every pump started by HandleChat has returned.
func (ctl *SignalWSController) Wait() {
	ctl.pumps.Wait()
}
