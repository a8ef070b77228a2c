package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/jwt"
)

const (
	userStoreMemory   = "memory"
	userStoreSQLite   = "sqlite"
	userStorePostgres = "postgres"

	attemptStoreMemory = "memory"
	attemptStoreRedis  = "redis"
)

type serverConfig struct {
	Addr            string        `koanf:"addr"`
	Dev             bool          `koanf:"dev"`
	TrustProxy      bool          `koanf:"trust_proxy"`
	UserStore       string        `koanf:"user_store"`
	SQLitePath      string        `koanf:"sqlite_path"`
	PostgresDSN     string        `koanf:"postgres_dsn"`
	AttemptStore    string        `koanf:"attempt_store"`
	RedisAddr       string        `koanf:"redis_addr"`
	RedisPrefix     string        `koanf:"redis_prefix"`
	Secret          string        `koanf:"secret"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type appConfig struct {
	Server serverConfig    `koanf:"server"`
	Auth   authcore.Config `koanf:"auth"`
}

// registerServerFlags declares flags whose names are koanf keys, so posflag
// can layer them over the file.
func registerServerFlags(fs *pflag.FlagSet) {
	fs.String("server.addr", ":8080", "listen address")
	fs.Bool("server.dev", false, "relax security headers for local development")
	fs.Bool("server.trust_proxy", false, "take the client address from X-Forwarded-For/X-Real-IP (only behind a proxy that sets them)")
	fs.String("server.user_store", userStoreMemory, "user store: memory, sqlite or postgres")
	fs.String("server.sqlite_path", "authcore.db", "sqlite database file")
	fs.String("server.postgres_dsn", "", "postgres connection string")
	fs.String("server.attempt_store", attemptStoreMemory, "attempt store: memory or redis")
	fs.String("server.redis_addr", "localhost:6379", "redis address")
	fs.String("server.redis_prefix", "att:", "redis key prefix for attempt records")
	fs.String("server.secret", "", "hex-encoded token signing secret (generated when empty)")
	fs.Duration("server.janitor_interval", time.Minute, "prune interval for in-memory attempt records")
	fs.Duration("server.shutdown_timeout", 10*time.Second, "graceful shutdown timeout")
}

// loadConfig layers the YAML file (when path is set) and then flags over
// the defaults, and validates the auth section.
func loadConfig(path string, fs *pflag.FlagSet) (appConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return appConfig{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return appConfig{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := appConfig{Auth: authcore.DefaultConfig()}
	if err := k.Unmarshal("", &cfg); err != nil {
		return appConfig{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Auth.Validate(); err != nil {
		return appConfig{}, fmt.Errorf("invalid auth config: %w", err)
	}
	return cfg, nil
}

// validate checks the server section, which only serve uses.
func (c *serverConfig) validate() error {
	switch c.UserStore {
	case userStoreMemory, userStoreSQLite:
	case userStorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("server.postgres_dsn is required for the postgres user store")
		}
	default:
		return fmt.Errorf("unknown server.user_store %q", c.UserStore)
	}

	switch c.AttemptStore {
	case attemptStoreMemory, attemptStoreRedis:
	default:
		return fmt.Errorf("unknown server.attempt_store %q", c.AttemptStore)
	}

	return nil
}

// secret decodes server.secret. The zero Secret means generate one.
func (c *serverConfig) secret() (jwt.Secret, error) {
	if c.Secret == "" {
		return jwt.Secret{}, nil
	}
	raw, err := hex.DecodeString(c.Secret)
	if err != nil {
		return jwt.Secret{}, fmt.Errorf("server.secret is not hex: %w", err)
	}
	return jwt.SecretFromBytes(raw)
}
