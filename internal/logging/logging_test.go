package logging

import (
	"bytes"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	req := require.New(t)
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	req.NoError(Setup("warn", "json", &buf))

	log.Info().Msg("hidden")
	log.Warn().Str("module", "test").Msg("shown")

	var entry map[string]any
	req.NoError(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	req.Equal("shown", entry["message"])
	req.Equal("test", entry["module"])
	req.Equal("warn", entry["level"])
}

func TestSetup_Errors(t *testing.T) {
	req := require.New(t)
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	req.Error(Setup("loud", "json", nil))
	req.Error(Setup("info", "xml", nil))
}
