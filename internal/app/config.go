package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"e2egateway/internal/crypto"
	"e2egateway/internal/domain"
	"e2egateway/internal/gateway"
	"e2egateway/internal/protocol/wire"
	"e2egateway/internal/services/blob"
	"e2egateway/internal/util/validate"
)

// EnvPrefix prefixes every environment variable, e.g. GATEWAY_IDENTITY.
const EnvPrefix = "GATEWAY"

// Config holds everything needed to open a Connection.
type Config struct {
	Identity       string `envconfig:"IDENTITY" validate:"required,gateway_identity"`
	Secret         string `envconfig:"SECRET" validate:"required"`
	PrivateKey     string `envconfig:"PRIVATE_KEY" validate:"omitempty,private_key"` // "private:<hex>"
	PrivateKeyFile string `envconfig:"PRIVATE_KEY_FILE"`
	Passphrase     string `envconfig:"PRIVATE_KEY_PASSPHRASE"` // for sealed key files

	BaseURL        string        `envconfig:"BASE_URL" default:"https://msgapi.threema.ch" validate:"required,url"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s" validate:"gte=0"`
	MaxBlobSize    int64         `envconfig:"MAX_BLOB_SIZE" default:"52428800" validate:"gte=0"`
	MaxTextLength  int           `envconfig:"MAX_TEXT_LENGTH" default:"3500" validate:"gte=0"`
	MaxPayloadSize int           `envconfig:"MAX_PAYLOAD_SIZE" default:"7000" validate:"gte=0"`

	// PinnedKeys trusts fixed keys, each "ID=public:<hex>". A gateway
	// lookup never replaces them.
	PinnedKeys        []string `envconfig:"PINNED_KEYS"`
	VerifyPinnedKeys  bool     `envconfig:"VERIFY_PINNED_KEYS"`
	CheckCapabilities bool     `envconfig:"CHECK_CAPABILITIES"`

	KeyCacheRedisURL string        `envconfig:"KEY_CACHE_REDIS_URL" validate:"omitempty,url"`
	KeyCacheTTL      time.Duration `envconfig:"KEY_CACHE_TTL" validate:"gte=0"` // zero: never expire

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	HTTP   *http.Client `ignored:"true" validate:"-"` // optional
	Logger *zap.Logger  `ignored:"true" validate:"-"` // optional
}

// LoadConfig reads the environment with ReadEnv and validates the result.
func LoadConfig(files ...string) (Config, error) {
	cfg, err := ReadEnv(files...)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ReadEnv reads the environment without validating, so callers can apply
// overrides first. Variables from files (".env" when none are named) are
// applied first without overriding the real environment; a missing default
// .env is not an error.
func ReadEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg after filling in defaults for zero values.
func (c *Config) Validate() error {
	c.applyDefaults()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.PrivateKey == "" && c.PrivateKeyFile == "" {
		return errors.New("config: a private key or private key file is required")
	}
	if _, err := c.pinned(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// pinned parses PinnedKeys.
func (c *Config) pinned() (map[domain.Identity]domain.PublicKey, error) {
	out := make(map[domain.Identity]domain.PublicKey, len(c.PinnedKeys))
	for _, s := range c.PinnedKeys {
		id, key, ok := strings.Cut(strings.TrimSpace(s), "=")
		if !ok || !domain.Identity(id).Valid() {
			return nil, fmt.Errorf("pinned key %q: want ID=public:<hex>", s)
		}
		pk, err := crypto.DecodePublicKey(key)
		if err != nil {
			return nil, fmt.Errorf("pinned key for %s: %w", id, err)
		}
		if pk.IsZero() {
			return nil, fmt.Errorf("pinned key for %s is all zero", id)
		}
		out[domain.Identity(id)] = pk
	}
	return out, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = gateway.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = gateway.DefaultTimeout
	}
	if c.MaxBlobSize == 0 {
		c.MaxBlobSize = blob.DefaultMaxBlobSize
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = wire.DefaultMaxTextLength
	}
	if c.MaxPayloadSize == 0 {
		c.MaxPayloadSize = wire.DefaultMaxPayloadSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
