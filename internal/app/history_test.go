package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHistoryLoader_AsksForFifty(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockHistoryStore(ctrl)
	want := []domain.HistoryEntry{{Author: "alice", Text: "hi"}}
	store.EXPECT().ListRecent(gomock.Any(), domain.RoomName("lobby"), 50).Return(want, nil)

	got, err := NewHistoryLoader(store).GetHistory(context.Background(), "lobby")
	req.NoError(err)
	req.Equal(want, got)
}

func TestHistoryLoader_PropagatesStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockHistoryStore(ctrl)
	boom := errors.New("boom")
	store.EXPECT().ListRecent(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := NewHistoryLoader(store).GetHistory(context.Background(), "lobby")
	require.ErrorIs(t, err, boom)
}

func TestHistoryLoader_SixtyMessagesGiveLatestFifty(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := newTestStore(t, "lobby", "alice")

	for i := range 60 {
		_, err := store.CreateMessage(ctx, "lobby", "alice", fmt.Sprintf("m%02d", i))
		req.NoError(err)
	}

	history, err := NewHistoryLoader(store).GetHistory(ctx, "lobby")
	req.NoError(err)
	req.Len(history, HistoryLimit)
	req.Equal("m10", history[0].Text)
	req.Equal("m59", history[len(history)-1].Text)
	for i := 1; i < len(history); i++ {
		req.True(history[i].CreatedAt.After(history[i-1].CreatedAt))
		req.NotEqual(cryptox.Sentinel, history[i].Text)
	}
}
