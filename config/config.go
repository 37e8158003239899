// Package config loads process settings from an optional YAML file, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	userfields "github.com/reoring/userfields"
)

// Config is the complete process configuration.
type Config struct {
	Server      ServerConfig `yaml:"server"`
	Store       StoreConfig  `yaml:"store"`
	Log         LogConfig    `yaml:"log"`
	Language    string       `yaml:"language"`     // en | ja
	UnknownKeys string       `yaml:"unknown_keys"` // strip | strict
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Framework       string        `yaml:"framework"` // gin | echo | chi
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver          string        `yaml:"driver"` // memory | postgres | mysql
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Framework:       "gin",
			CORSOrigins:     []string{"*"},
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver:          "memory",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Log:         LogConfig{Level: "info", Format: "text"},
		Language:    "en",
		UnknownKeys: "strip",
	}
}

// Load reads path (skipped when empty), then .env in the working directory
// if present, then the environment, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := cfg.decodeYAML(b); err != nil {
			return Config{}, err
		}
	}
	// existing environment variables win over .env entries
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	// an empty document keeps the defaults
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from USERFIELDS_* variables, DATABASE_URL and
// PORT. DATABASE_URL switches the default memory driver to postgres.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("USERFIELDS_ADDR", &c.Server.Addr)
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Addr = ":" + v
	}
	str("USERFIELDS_FRAMEWORK", &c.Server.Framework)
	if v, ok := lookup("USERFIELDS_CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("USERFIELDS_MAX_BODY_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Server.MaxBodyBytes = n
		}
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Store.DSN = v
		if c.Store.Driver == "memory" {
			c.Store.Driver = "postgres"
		}
	}
	str("USERFIELDS_STORE_DRIVER", &c.Store.Driver)
	str("USERFIELDS_DSN", &c.Store.DSN)
	str("USERFIELDS_LOG_LEVEL", &c.Log.Level)
	str("USERFIELDS_LOG_FORMAT", &c.Log.Format)
	str("USERFIELDS_LANGUAGE", &c.Language)
	str("USERFIELDS_UNKNOWN_KEYS", &c.UnknownKeys)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate reports every invalid setting as userfields.Issues.
func (c Config) Validate() error {
	var iss userfields.Issues
	enum := func(path, got string, options ...string) {
		if !slices.Contains(options, got) {
			iss = userfields.AppendIssues(iss, userfields.Issue{
				Path:    path,
				Code:    userfields.CodeInvalidEnum,
				Message: path + ": " + strconv.Quote(got) + " is not one of " + strings.Join(options, ", "),
				Params:  map[string]any{"got": got, "options": options},
			})
		}
	}
	enum("/server/framework", c.Server.Framework, "gin", "echo", "chi")
	enum("/store/driver", c.Store.Driver, "memory", "postgres", "mysql")
	enum("/log/level", c.Log.Level, "debug", "info", "warn", "error")
	enum("/log/format", c.Log.Format, "text", "json")
	enum("/language", c.Language, "en", "ja")
	enum("/unknown_keys", c.UnknownKeys, "strip", "strict")
	if c.Server.Addr == "" {
		iss = userfields.AppendIssues(iss, userfields.Issue{Path: "/server/addr", Code: userfields.CodeRequired, Message: "/server/addr: required"})
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		iss = userfields.AppendIssues(iss, userfields.Issue{Path: "/store/dsn", Code: userfields.CodeRequired, Message: "/store/dsn: required for driver " + c.Store.Driver})
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// SlogLevel maps Log.Level to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// UnknownPolicy maps UnknownKeys to the schema policy.
func (c Config) UnknownPolicy() userfields.UnknownPolicy {
	if c.UnknownKeys == "strict" {
		return userfields.UnknownStrict
	}
	return userfields.UnknownStrip
}
