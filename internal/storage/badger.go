// Package storage is the durable side of the chat: rooms, accounts and
// encrypted messages kept in BadgerDB.
package storage

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// Open opens (or creates) the Badger database. An empty path or inMemory
// keeps everything in RAM, which is what tests use.
func Open(path string, inMemory bool, logger zerolog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if inMemory || path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{log: logger.With().Str("module", "storage.badger").Logger()}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// badgerLogger routes Badger's printf-style logging into zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func trim(format string) string { return strings.TrimRight(format, "\n") }

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Error().Msgf(trim(f), v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warn().Msgf(trim(f), v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Info().Msgf(trim(f), v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Debug().Msgf(trim(f), v...) }
