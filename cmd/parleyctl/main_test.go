package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dkeye/Parley/internal/auth"
	"github.com/dkeye/Parley/internal/cryptox"
	"github.com/dkeye/Parley/internal/domain"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "jwt-secret-for-tests"

func setEnv(t *testing.T) {
	t.Helper()
	key, err := cryptox.GenerateKey()
	require.NoError(t, err)
	t.Setenv("CONFIG_ENV", "none")
	t.Setenv("PARLEY_SECRET", "cookie-secret-for-tests")
	t.Setenv("PARLEY_CRYPTO_KEY", key)
	t.Setenv("PARLEY_AUTH_JWT_SECRET", jwtSecret)
	t.Setenv("PARLEY_STORAGE_IN_MEMORY", "true")
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.ErrorIs(t, run(context.Background(), nil, &out), errUsage)
	require.ErrorIs(t, run(context.Background(), []string{"nope"}, &out), errUsage)
	require.ErrorIs(t, run(context.Background(), []string{"adduser"}, &out), errUsage)
	require.ErrorIs(t, run(context.Background(), []string{"token", "--bogus"}, &out), errUsage)
}

func TestRun_GenKey(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"genkey"}, &out))

	_, err := cryptox.NewCodecFromString(strings.TrimSpace(out.String()))
	require.NoError(t, err)
}

func TestRun_Token(t *testing.T) {
	setEnv(t)
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"token", "--user", "alice", "--ttl", "1h"}, &out))

	id, err := auth.ParseToken(jwtSecret, strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Equal(t, domain.Identity("alice"), id)
}

func TestRun_StoreCommands(t *testing.T) {
	setEnv(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, []string{"adduser", "--name", "alice"}, &out))
	require.Contains(t, out.String(), "user alice created")

	require.NoError(t, run(ctx, []string{"mkroom", "--name", "lobby"}, &out))
	require.Contains(t, out.String(), "room lobby created")

	require.Error(t, run(ctx, []string{"mkroom", "--name", "not valid"}, &out))

	// every invocation opens a fresh in-memory store
	require.ErrorIs(t, run(ctx, []string{"deluser", "--name", "alice"}, &out), domain.ErrIdentityNotFound)
}
