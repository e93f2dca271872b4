package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type messageRecord struct {
	ID         domain.MessageID `json:"id"`
	RoomID     domain.RoomID    `json:"room_id"`
	UserID     domain.UserID    `json:"user_id"`
	Author     domain.Identity  `json:"author"`
	Ciphertext string           `json:"ciphertext"`
	CreatedAt  int64            `json:"created_at"`
}

func toRecord(m domain.Message) messageRecord {
	return messageRecord{
		ID:         m.ID,
		RoomID:     m.RoomID,
		UserID:     m.UserID,
		Author:     m.Author,
		Ciphertext: m.Ciphertext,
		CreatedAt:  m.CreatedAt.UnixNano(),
	}
}

// nextTimestamp hands out strictly increasing times within one room.
// The sequence key is read inside the caller's transaction, so two
// concurrent writers to the same room conflict and one of them retries.
func nextTimestamp(txn *badger.Txn, roomID domain.RoomID, now time.Time) (time.Time, error) {
	at := now.UnixNano()
	item, err := txn.Get(seqKey(roomID))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return time.Time{}, err
	default:
		var last int64
		err = item.Value(func(val []byte) error {
			last, err = decodeNanos(val)
			return err
		})
		if err != nil {
			return time.Time{}, err
		}
		if at <= last {
			at = last + 1
		}
	}
	if err := txn.Set(seqKey(roomID), encodeNanos(at)); err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, at).UTC(), nil
}

// CreateMessage encrypts plaintext and stores it as authored by author in
// room. Either the whole record is written or nothing is.
//
// Errors: domain.ErrRoomNotFound and domain.ErrIdentityNotFound when the
// references do not resolve; everything returned also matches
// domain.ErrPersistence.
func (s *Store) CreateMessage(ctx context.Context, room domain.RoomName, author domain.Identity, plaintext string) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, persistenceErr(err)
	}
	ciphertext, err := s.codec.Encrypt([]byte(plaintext))
	if err != nil {
		return domain.Message{}, persistenceErr(err)
	}

	var msg domain.Message
	err = s.update(func(txn *badger.Txn) error {
		r, err := getRoom(txn, room)
		if err != nil {
			return err
		}
		u, err := getUser(txn, author)
		if err != nil {
			return err
		}
		at, err := nextTimestamp(txn, r.ID, s.now())
		if err != nil {
			return err
		}
		msg = domain.Message{
			ID:         domain.MessageID(uuid.NewString()),
			RoomID:     r.ID,
			UserID:     u.ID,
			Author:     u.Username,
			Ciphertext: ciphertext,
			CreatedAt:  at,
		}
		return setJSON(txn, messageKey(r.ID, at, msg.ID), toRecord(msg))
	})
	if err != nil {
		s.log.Error().Err(err).Str("room", string(room)).Str("author", string(author)).Msg("store message")
		return domain.Message{}, persistenceErr(err)
	}
	s.log.Debug().Str("room", string(room)).Str("id", string(msg.ID)).Msg("message stored")
	return msg, nil
}

// ListRecent returns the newest limit messages of room, oldest first,
// decrypted. Entries that cannot be decrypted or decoded carry
// cryptox.Sentinel as their text; they never fail the read.
// An unknown room has no history.
func (s *Store) ListRecent(ctx context.Context, room domain.RoomName, limit int) ([]domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}

	var records []messageRecord
	err := s.db.View(func(txn *badger.Txn) error {
		r, err := getRoom(txn, room)
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		prefix := messagePrefix(r.ID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// 0xff sorts after every digit, so the reverse seek lands on the newest key.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(records) < limit; it.Next() {
			item := it.Item()
			var rec messageRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				s.log.Warn().Err(err).Str("key", string(item.Key())).Msg("undecodable message record")
				at, _ := keyTime(item.KeyCopy(nil), prefix)
				rec = messageRecord{CreatedAt: at.UnixNano()}
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		text, ok := s.codec.DecryptOrSentinel(rec.Ciphertext)
		if !ok {
			s.log.Warn().Str("room", string(room)).Str("id", string(rec.ID)).Msg("message could not be decrypted")
		}
		entries = append(entries, domain.HistoryEntry{
			Author:    rec.Author,
			Text:      text,
			CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
		})
	}
	return entries, nil
}
