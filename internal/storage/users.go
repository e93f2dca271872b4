package storage

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/dkeye/Parley/internal/domain"
)

func getUser(txn *badger.Txn, name domain.Identity) (domain.User, error) {
	return getJSON[domain.User](txn, userKey(name), domain.ErrIdentityNotFound)
}

// CreateUser provisions an account. Accounts are normally created by the
// login side; the chat path only checks that they exist.
func (s *Store) CreateUser(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := domain.NewUser(username, s.now())
	if err != nil {
		return nil, err
	}
	err = s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, userKey(u.Username))
		if err != nil {
			return err
		}
		if found {
			return domain.ErrUserExists
		}
		return setJSON(txn, userKey(u.Username), u)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user", username).Msg("user created")
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, username domain.Identity) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u domain.User
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, username)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes the account. Messages already written keep their
// author name.
func (s *Store) DeleteUser(ctx context.Context, username domain.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, userKey(username))
		if err != nil {
			return err
		}
		if !found {
			return domain.ErrIdentityNotFound
		}
		return txn.Delete(userKey(username))
	})
}
