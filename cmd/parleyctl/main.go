// Command parleyctl is the operator tool: keys, tokens, accounts and rooms.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dkeye/Parley/internal/auth"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/dkeye/Parley/internal/logging"
	"github.com/dkeye/Parley/internal/storage"
)

const usage = `usage: parleyctl <command> [flags]

commands:
  genkey                      print a new message encryption key
  token --user NAME [--ttl]   print a signed access token
  adduser --name NAME         create an account
  deluser --name NAME         delete an account
  mkroom --name NAME          create a room
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := logging.Setup("warn", "console", os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "parleyctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch cmd {
	case "genkey":
		key, err := cryptox.GenerateKey()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, key)
		return err

	case "token":
		user := fs.String("user", "", "username the token is issued for")
		ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		tok, err := auth.IssueToken(cfg.Auth.JWTSecret, domain.Identity(*user), *ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, tok)
		return err

	case "adduser", "deluser", "mkroom":
		name := fs.String("name", "", "account or room name")
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if *name == "" {
			return fmt.Errorf("%w: --name is required", errUsage)
		}
		return withStore(func(s *storage.Store) error {
			switch cmd {
			case "adduser":
				u, err := s.CreateUser(ctx, *name)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "user %s created (%s)\n", u.Username, u.ID)
				return err
			case "deluser":
				if err := s.DeleteUser(ctx, domain.Identity(*name)); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "user %s deleted\n", *name)
				return err
			default:
				if err := domain.ValidateRoomName(*name); err != nil {
					return err
				}
				r, err := s.CreateRoom(ctx, domain.RoomName(*name))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "room %s created (%s)\n", r.Name, r.ID)
				return err
			}
		})
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func withStore(fn func(*storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	codec, err := cryptox.NewCodecFromString(cfg.Crypto.Key)
	if err != nil {
		return err
	}
	db, err := storage.Open(cfg.Storage.Path, cfg.Storage.InMemory, log.Logger)
	if err != nil {
		return err
	}
	s := storage.New(db, codec, log.Logger)
	defer func() {
		if err := s.Close(); err != nil {
			log.Error().Err(err).Msg("store close")
		}
	}()
	return fn(s)
}
