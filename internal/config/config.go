// Package config loads prism configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// PRISM_* environment variables. The merged result is validated against the
// embedded CUE schema before it is returned.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/prism/internal/dimension"
	"github.com/roach88/prism/internal/purge"
	"github.com/roach88/prism/internal/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRISM_"

//go:embed schema.cue
var schemaSource string

// Config is the complete runtime configuration.
type Config struct {
	Database store.Config         `yaml:"database" json:"database" envPrefix:"DATABASE_"`
	Cache    dimension.Capacities `yaml:"cache" json:"cache" envPrefix:"CACHE_"`
	Purge    PurgeConfig          `yaml:"purge" json:"purge" envPrefix:"PURGE_"`
	Log      LogConfig            `yaml:"log" json:"log" envPrefix:"LOG_"`
}

// PurgeConfig controls chunked deletes.
type PurgeConfig struct {
	ChunkSize  int64         `yaml:"chunk_size" json:"chunk_size" env:"CHUNK_SIZE"`
	CycleDelay time.Duration `yaml:"cycle_delay" json:"cycle_delay" env:"CYCLE_DELAY"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

// ErrInvalid wraps every schema validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: store.DefaultConfig(),
		Cache:    dimension.DefaultCapacities(),
		Purge:    PurgeConfig{ChunkSize: purge.DefaultChunkSize},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from an optional YAML file and the process
// environment. An empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, nil)
}

// load is Load with an explicit environment; nil means the process
// environment.
func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks c against the embedded schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// NewLogger builds the process logger described by c, writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
