package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join("testdata", "config.test.yaml"))
	req.NoError(err)
	req.Equal("test", cfg.Mode)
	req.Equal(9090, cfg.Port)
	req.True(cfg.Storage.InMemory)
	req.Equal([]string{"http://localhost:3000"}, cfg.AllowedOrigins)
	req.Equal(500, cfg.Chat.MaxMessageRunes)
	req.Equal(5, cfg.Chat.RateLimit)
	req.Equal(2*time.Second, cfg.Chat.RateInterval)
	req.Equal("json", cfg.Log.Format)

	// untouched keys keep their defaults
	req.Equal(int64(16384), cfg.ReadLimit)
	req.Equal(54*time.Second, cfg.PingPeriod)
	req.Equal(256, cfg.SendBuffer)
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("PARLEY_PORT", "7070")
	t.Setenv("PARLEY_CHAT_RATE_LIMIT", "9")
	t.Setenv("PARLEY_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFile(filepath.Join("testdata", "config.test.yaml"))
	req.NoError(err)
	req.Equal(7070, cfg.Port)
	req.Equal(9, cfg.Chat.RateLimit)
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadFile_MissingFileNeedsSecrets(t *testing.T) {
	req := require.New(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	req.Error(err)
	req.Contains(err.Error(), "invalid config")

	t.Setenv("PARLEY_SECRET", "0123456789abcdef0123")
	t.Setenv("PARLEY_CRYPTO_KEY", "ZmFrZS1rZXktZm9yLXRlc3RzLW9ubHktMzItYnl0ZXM=")
	t.Setenv("PARLEY_AUTH_JWT_SECRET", "jwt-secret-for-tests")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	req.NoError(err)
	req.Equal("release", cfg.Mode)
	req.Equal(8080, cfg.Port)
	req.Equal("./data/badger", cfg.Storage.Path)
	req.Equal(2000, cfg.Chat.MaxMessageRunes)
	req.Equal(20, cfg.Chat.RateLimit)
	req.Equal(10*time.Second, cfg.Chat.RateInterval)
}
