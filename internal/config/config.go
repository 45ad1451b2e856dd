// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/peterkuimelis/pillz/internal/game"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the settings shared by every binary. Flags override it
// per invocation.
type Config struct {
	Cards     string `env:"PILLZ_CARDS"      envDefault:"assets/cards.json"`
	Abilities string `env:"PILLZ_ABILITIES"  envDefault:"assets/abilities.json"`
	Hands     string `env:"PILLZ_HANDS"      envDefault:"hands.yaml"`
	DB        string `env:"PILLZ_DB"`
	Addr      string `env:"PILLZ_ADDR"       envDefault:"localhost:9000"`
	Port      string `env:"PILLZ_PORT"       envDefault:"9000"`
	Workers   int    `env:"PILLZ_WORKERS"    envDefault:"4"`
	LogLevel  string `env:"PILLZ_LOG_LEVEL"  envDefault:"info"`
	Life      int    `env:"PILLZ_LIFE"       envDefault:"12"`
	Pillz     int    `env:"PILLZ_PILLZ"      envDefault:"12"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("PILLZ_WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Life < 1 || cfg.Pillz < 0 {
		return Config{}, fmt.Errorf("invalid starting resources: life %d, pillz %d", cfg.Life, cfg.Pillz)
	}
	return cfg, nil
}

// OpenCatalog loads the card and ability files named by the config.
func (c Config) OpenCatalog() (*game.Catalog, error) {
	cat, err := game.LoadCatalog(c.Cards, c.Abilities)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// SetupLogging points the global zerolog logger at a console writer on w
// at the configured level.
func (c Config) SetupLogging(w io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
