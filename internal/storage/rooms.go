package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/goccy/go-json"
)

func getRoom(txn *badger.Txn, name domain.RoomName) (domain.Room, error) {
	return getJSON[domain.Room](txn, roomKey(name), domain.ErrRoomNotFound)
}

func (s *Store) GetRoom(ctx context.Context, name domain.RoomName) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var room domain.Room
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		room, err = getRoom(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom fails with domain.ErrRoomExists when the name is taken.
func (s *Store) CreateRoom(ctx context.Context, name domain.RoomName) (*domain.Room, error) {
	room, created, err := s.GetOrCreateRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrRoomExists
	}
	return room, nil
}

// GetOrCreateRoom returns the room with this name, creating it first if
// needed. Room names stay unique under concurrent callers.
func (s *Store) GetOrCreateRoom(ctx context.Context, name domain.RoomName) (*domain.Room, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	fresh, err := domain.NewRoom(name, s.now())
	if err != nil {
		return nil, false, err
	}

	var (
		room    domain.Room
		created bool
	)
	err = s.update(func(txn *badger.Txn) error {
		existing, err := getRoom(txn, name)
		if err == nil {
			room, created = existing, false
			return nil
		}
		if !errors.Is(err, domain.ErrRoomNotFound) {
			return err
		}
		room, created = *fresh, true
		return setJSON(txn, roomKey(name), room)
	})
	if err != nil {
		return nil, false, persistenceErr(err)
	}
	if created {
		s.log.Info().Str("room", string(name)).Str("room_id", string(room.ID)).Msg("room created")
	}
	return &room, created, nil
}

// ListRooms returns every room ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(roomPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r domain.Room
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			rooms = append(rooms, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
