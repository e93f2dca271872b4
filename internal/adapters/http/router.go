package http

import (
	"context"
	"os"

	"github.com/dkeye/Parley/internal/adapters/signal"
	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/auth"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "ParleySessions"

// RoomStore is the slice of persistence the HTTP side needs.
type RoomStore interface {
	GetOrCreateRoom(ctx context.Context, name domain.RoomName) (*domain.Room, bool, error)
	GetRoom(ctx context.Context, name domain.RoomName) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
}

type Deps struct {
	Cfg     *config.Config
	Orch    *app.Orchestrator
	Rooms   RoomStore
	History *app.HistoryLoader
	Signal  *signal.SignalWSController
}

// SetupRouter wires HTTP routes (REST + WS).
//   - REST lives under /api/*
//   - the chat websocket lives at /ws/rooms/:name
//   - both require an identity (JWT or cookie session)
func SetupRouter(ctx context.Context, d Deps) *gin.Engine {
	cfg := d.Cfg
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionCookie, store))

	h := &handlers{deps: d}
	requireIdentity := auth.RequireIdentity(auth.NewJWTResolver(cfg.Auth.JWTSecret), auth.SessionResolver{})

	r.GET("/healthz", h.health)

	if st, err := os.Stat(cfg.StaticPath); err == nil && st.IsDir() {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	api := r.Group("/api", requireIdentity)
	api.POST("/session", h.login)
	api.DELETE("/session", h.logout)
	api.GET("/rooms", h.listRooms)
	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:name", h.getRoom)
	api.GET("/rooms/:name/history", h.history)

	ws := r.Group("/ws", requireIdentity)
	ws.GET("/rooms/:name", func(c *gin.Context) {
		h.chat(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
