package app

import (
	"context"

	"github.com/dkeye/Parley/internal/domain"
)

// HistoryLimit caps how many past messages a room view gets.
const HistoryLimit = 50

type HistoryLoader struct {
	store HistoryStore
}

func NewHistoryLoader(store HistoryStore) *HistoryLoader {
	return &HistoryLoader{store: store}
}

// GetHistory returns the latest HistoryLimit messages of room, oldest first.
func (h *HistoryLoader) GetHistory(ctx context.Context, room domain.RoomName) ([]domain.HistoryEntry, error) {
	return h.store.ListRecent(ctx, room, HistoryLimit)
}
