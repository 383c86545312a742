// Package config loads the TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ninjalooter/ninjalooter-go/internal/auction"
)

// Config is the whole configuration file. Each field is one TOML table.
type Config struct {
	Log       LogConfig       `toml:"log"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Auction   AuctionConfig   `toml:"auction"`
	LogFile   LogFileConfig   `toml:"log_file"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Broadcast BroadcastConfig `toml:"broadcast"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  slog.Level `toml:"level"`
	Format string     `toml:"format"`
}

// CatalogConfig locates the item catalog JSON file.
type CatalogConfig struct {
	Path string `toml:"path"`
}

// AuctionConfig holds the engine defaults. Rounds is the roll label pool
// in rotation order.
type AuctionConfig struct {
	MinBid             int      `toml:"min_bid"`
	MinDurationSeconds int      `toml:"min_duration_seconds"`
	Rounds             []string `toml:"rounds"`
	DefaultGroup       string   `toml:"default_group"`
}

// LogFileConfig names the game log to follow.
type LogFileConfig struct {
	Path            string `toml:"path"`
	ReplayFromStart bool   `toml:"replay_from_start"`
}

// SnapshotConfig selects where state snapshots live. Backend is file,
// sqlite or redis.
type SnapshotConfig struct {
	Backend   string `toml:"backend"`
	Path      string `toml:"path"`
	DSN       string `toml:"dsn"`
	RedisAddr string `toml:"redis_addr"`
	RedisKey  string `toml:"redis_key"`
}

// BroadcastConfig enables NATS publishing of engine events when NATSURL
// is set.
type BroadcastConfig struct {
	NATSURL       string `toml:"nats_url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: slog.LevelInfo, Format: "text"},
		Catalog: CatalogConfig{Path: "items.json"},
		Auction: AuctionConfig{
			MinDurationSeconds: int(auction.DefaultMinDuration / time.Second),
			Rounds:             append([]string(nil), auction.DefaultRounds...),
		},
		Snapshot:  SnapshotConfig{Backend: "file", Path: "state.json"},
		Broadcast: BroadcastConfig{SubjectPrefix: "ninjalooter"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := Decode(file, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r into cfg, keeping values r does not set.
// Unknown keys are an error.
func Decode(r io.Reader, cfg *Config) error {
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return fmt.Errorf("unknown configuration keys: %s", sme.String())
		}
		return err
	}
	return cfg.Validate()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Auction.MinBid < 0 {
		return fmt.Errorf("auction.min_bid must not be negative, got %d", c.Auction.MinBid)
	}
	if c.Auction.MinDurationSeconds <= 0 {
		return fmt.Errorf("auction.min_duration_seconds must be positive, got %d", c.Auction.MinDurationSeconds)
	}
	if len(c.Auction.Rounds) == 0 {
		return errors.New("auction.rounds must not be empty")
	}
	switch c.Snapshot.Backend {
	case "file", "sqlite", "redis":
	default:
		return fmt.Errorf("snapshot.backend must be file, sqlite or redis, got %q", c.Snapshot.Backend)
	}
	return nil
}

// MinDuration returns the advisory auction duration.
func (a AuctionConfig) MinDuration() time.Duration {
	return time.Duration(a.MinDurationSeconds) * time.Second
}

// NewLogger builds a logger writing to w in the configured format.
// verbose forces the Debug level.
func (l LogConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.Level}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
