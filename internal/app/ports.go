//go:generate go run go.uber.org/mock/mockgen -source=ports.go -destination=../mocks/mock_store.go -package=mocks
package app

import (
	"context"

	"github.com/dkeye/Parley/internal/domain"
)

// MessageStore persists chat text. Implementations encrypt before writing.
type MessageStore interface {
	CreateMessage(ctx context.Context, room domain.RoomName, author domain.Identity, plaintext string) (domain.Message, error)
}

type HistoryStore interface {
	ListRecent(ctx context.Context, room domain.RoomName, limit int) ([]domain.HistoryEntry, error)
}
