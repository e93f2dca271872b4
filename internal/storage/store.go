package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const maxTxnRetries = 32

// Store is the Badger backed persistence layer. It owns the database handle.
type Store struct {
	db    *badger.DB
	codec *cryptox.Codec
	log   zerolog.Logger
	now   func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(db *badger.DB, codec *cryptox.Codec, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		db:    db,
		codec: codec,
		log:   logger.With().Str("module", "storage").Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying when Badger reports
// a conflict with a concurrent writer.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		if err = s.db.Update(fn); !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debug().Msg("txn conflict, retrying")
	}
	return err
}

func getJSON[T any](txn *badger.Txn, key []byte, notFound error) (T, error) {
	var out T
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return out, notFound
	}
	if err != nil {
		return out, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	})
	if err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// persistenceErr keeps domain sentinels visible while marking everything
// that failed on the write path as a persistence failure.
func persistenceErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
