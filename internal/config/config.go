package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath     string        `mapstructure:"static_path"`
	Secret         string        `mapstructure:"secret" validate:"required,min=16"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadLimit      int64         `mapstructure:"read_limit" validate:"min=512"`
	PingPeriod     time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	PongWait       time.Duration `mapstructure:"pong_wait" validate:"gtfield=PingPeriod"`
	WriteWait      time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	SendBuffer     int           `mapstructure:"send_buffer" validate:"min=1"`

	Storage StorageConfig `mapstructure:"storage"`
	Crypto  CryptoConfig  `mapstructure:"crypto"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Log     LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	Path     string `mapstructure:"path" validate:"required_without=InMemory"`
	InMemory bool   `mapstructure:"in_memory"`
}

type CryptoConfig struct {
	// Key is 32 random bytes, url-safe base64 encoded.
	Key string `mapstructure:"key" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`
}

type ChatConfig struct {
	MaxMessageRunes int           `mapstructure:"max_message_runes" validate:"min=1"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"min=0"`
	RateInterval    time.Duration `mapstructure:"rate_interval" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

const envPrefix = "PARLEY"

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("read_limit", 16384)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "10s")
	v.SetDefault("send_buffer", 256)

	v.SetDefault("storage.path", "./data/badger")
	v.SetDefault("storage.in_memory", false)
	v.SetDefault("crypto.key", "")
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("chat.max_message_runes", 2000)
	v.SetDefault("chat.rate_limit", 20)
	v.SetDefault("chat.rate_interval", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default), lets
// PARLEY_* environment variables override any key and validates the result.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(cfg.AllowedOrigins)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Msg("config ready")
	return &cfg, nil
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
