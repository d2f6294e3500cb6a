package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
)

// Token store backends.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Config struct {
	APIURL    string `env:"LMS_API_URL, default=http://localhost:8484/api"`
	Env       string `env:"LMS_ENV, default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Token TokenConfig
	Redis RedisConfig
	Mongo MongoConfig
	Fake  FakeAPIConfig
}

// TokenConfig selects where the bearer token survives restarts.
type TokenConfig struct {
	Store string `env:"TOKEN_STORE, default=file"`
	File  string `env:"TOKEN_FILE"`
	Key   string `env:"TOKEN_KEY, default=token"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	DB       int    `env:"REDIS_DB, default=0"`
	Password string `env:"REDIS_PASSWORD"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB, default=lms_client"`
}

// FakeAPIConfig configures the in-memory backend used for local runs.
type FakeAPIConfig struct {
	Port      string `env:"FAKEAPI_PORT, default=8484"`
	JWTSecret string `env:"JWT_SECRET, default=dev-secret"`
}

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l; tests pass a MapLookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	switch cfg.Token.Store {
	case StoreFile, StoreMemory, StoreRedis, StoreMongo:
	default:
		return nil, fmt.Errorf("config: unknown TOKEN_STORE %q", cfg.Token.Store)
	}

	if cfg.Token.Store == StoreFile && cfg.Token.File == "" {
		path, err := DefaultTokenFile()
		if err != nil {
			return nil, err
		}
		cfg.Token.File = path
	}
	return &cfg, nil
}

// DefaultTokenFile is the per-user location of the persisted token.
func DefaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "lms", "session.json"), nil
}
