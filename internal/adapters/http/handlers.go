package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkeye/Parley/internal/auth"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	deps Deps
}

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

type RoomResponse struct {
	Name        domain.RoomName   `json:"name"`
	MemberCount int               `json:"member_count"`
	Members     []domain.Identity `json:"members,omitempty"`
}

type HistoryMessage struct {
	Author    domain.Identity `json:"author"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

type HistoryResponse struct {
	Room     domain.RoomName  `json:"room"`
	Messages []HistoryMessage `json:"messages"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.deps.Orch.Registry.Count()})
}

func (h *handlers) memberCount(ctx context.Context, name domain.RoomName) int {
	room, ok := h.deps.Orch.Rooms.Get(name)
	if !ok {
		return 0
	}
	n, err := room.MemberCount(ctx)
	if err != nil {
		return 0
	}
	return n
}

// members lists who is connected to name right now, in join order.
func (h *handlers) members(ctx context.Context, name domain.RoomName) []domain.Identity {
	room, ok := h.deps.Orch.Rooms.Get(name)
	if !ok {
		return nil
	}
	snap, err := room.MembersSnapshot(ctx)
	if err != nil {
		return nil
	}
	out := make([]domain.Identity, 0, len(snap))
	for _, m := range snap {
		out = append(out, m.Username)
	}
	return out
}

// roomParam validates :name and writes a 400 when it is unusable.
func roomParam(c *gin.Context) (domain.RoomName, bool) {
	name := c.Param("name")
	if err := domain.ValidateRoomName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return domain.RoomName(name), true
}

// login turns the caller's identity (usually a bearer token) into a cookie
// session, so browsers can open the websocket without a query token.
func (h *handlers) login(c *gin.Context) {
	id := auth.IdentityFrom(c)
	if err := auth.Login(c, id); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": id})
}

func (h *handlers) logout(c *gin.Context) {
	if err := auth.Logout(c); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not end session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) listRooms(c *gin.Context) {
	rooms, err := h.deps.Rooms.ListRooms(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list rooms"})
		return
	}
	live := make(map[domain.RoomName]int)
	for _, info := range h.deps.Orch.Rooms.List(c.Request.Context()) {
		live[info.Name] = info.MemberCount
	}
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomResponse{Name: r.Name, MemberCount: live[r.Name]})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

func (h *handlers) createRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid name"})
		return
	}
	if err := domain.ValidateRoomName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, created, err := h.deps.Rooms.GetOrCreateRoom(c.Request.Context(), domain.RoomName(req.Name))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", req.Name).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, RoomResponse{Name: room.Name, MemberCount: h.memberCount(c.Request.Context(), room.Name)})
}

func (h *handlers) getRoom(c *gin.Context) {
	name, ok := roomParam(c)
	if !ok {
		return
	}
	room, err := h.deps.Rooms.GetRoom(c.Request.Context(), name)
	if errors.Is(err, domain.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(name)).Msg("get room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load room"})
		return
	}
	members := h.members(c.Request.Context(), room.Name)
	c.JSON(http.StatusOK, RoomResponse{Name: room.Name, MemberCount: len(members), Members: members})
}

// history mirrors opening a room page: the room is created if missing and
// its latest messages are returned oldest first.
func (h *handlers) history(c *gin.Context) {
	name, ok := roomParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, _, err := h.deps.Rooms.GetOrCreateRoom(ctx, name); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(name)).Msg("history room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load room"})
		return
	}
	entries, err := h.deps.History.GetHistory(ctx, name)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(name)).Msg("history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load history"})
		return
	}
	out := HistoryResponse{Room: name, Messages: make([]HistoryMessage, 0, len(entries))}
	for _, e := range entries {
		out.Messages = append(out.Messages, HistoryMessage{Author: e.Author, Message: e.Text, CreatedAt: e.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) chat(ctx context.Context, c *gin.Context) {
	name, ok := roomParam(c)
	if !ok {
		return
	}
	if _, _, err := h.deps.Rooms.GetOrCreateRoom(c.Request.Context(), name); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(name)).Msg("chat room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load room"})
		return
	}
	h.deps.Signal.HandleChat(ctx, c, auth.IdentityFrom(c), name)
}
