package looter

import (
	"log/slog"
	"time"
)

// WatchOption configures a Watcher using the functional options pattern.
type WatchOption func(*watchConfig)

type watchConfig struct {
	replay         ReplayConfig
	maxReplayLines int
	poll           bool
	eventBuffer    int
	logger         *slog.Logger
	filter         *compiledFilter
}

func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		maxReplayLines: DefaultMaxReplayLastN,
		eventBuffer:    256,
	}
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithReplay configures how existing log lines are handled.
// Default: ReplayNone (only new lines).
func WithReplay(config ReplayConfig) WatchOption {
	return func(c *watchConfig) {
		c.replay = config
	}
}

// WithReplayFromStart processes the whole log before following it.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplayFromStart}
	}
}

// WithReplayLastN processes the last n lines before following the log.
func WithReplayLastN(n int) WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplayLastN, LastN: n}
	}
}

// WithReplaySinceTime processes lines stamped at or after since.
func WithReplaySinceTime(since time.Time) WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayConfig{Mode: ReplaySinceTime, Since: since}
	}
}

// WithMaxReplayLines caps ReplayLastN. 0 uses the default; -1 is unlimited.
func WithMaxReplayLines(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayLines = max
	}
}

// WithPoll polls the log file instead of using filesystem notifications.
func WithPoll(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.poll = poll
	}
}

// WithEventBuffer sets the engine subscription buffer. Events are dropped
// when it fills up. Default: 256.
func WithEventBuffer(n int) WatchOption {
	return func(c *watchConfig) {
		if n > 0 {
			c.eventBuffer = n
		}
	}
}

// WithLogger sets the slog logger for debug output.
// If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithIncludeTypes only delivers events of the given types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = typeSet(types)
	}
}

// WithExcludeTypes drops events of the given types.
// Exclude takes precedence over include.
func WithExcludeTypes(types ...EventType) WatchOption {
	return func(c *watchConfig) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = typeSet(types)
	}
}

// WithFilter sets both include and exclude type filters.
func WithFilter(include, exclude []EventType) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*processorConfig)

type processorConfig struct {
	location       *time.Location
	logger         *slog.Logger
	includeRawLine bool
}

func applyProcessorOptions(opts []ProcessorOption) *processorConfig {
	cfg := &processorConfig{location: time.Local}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithLocation sets the time zone log timestamps are read in.
// Default: time.Local.
func WithLocation(loc *time.Location) ProcessorOption {
	return func(c *processorConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithProcessorLogger sets the processor's logger. Nil disables logging.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(c *processorConfig) {
		c.logger = logger
	}
}

// WithProcessorRawLine keeps the raw log line on each Mention.
func WithProcessorRawLine(include bool) ProcessorOption {
	return func(c *processorConfig) {
		c.includeRawLine = include
	}
}

// ParseOption configures ScanFile.
type ParseOption func(*parseConfig)

type parseConfig struct {
	location       *time.Location
	channels       map[string]struct{}
	includeLocal   bool
	includeRawLine bool
	since          time.Time
	until          time.Time
	stopOnError    bool
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{location: time.Local}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseLocation sets the time zone log timestamps are read in.
func WithParseLocation(loc *time.Location) ParseOption {
	return func(c *parseConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithParseChannels only reports mentions made on the given chat channels
// ("guild", "ooc", "auction", ...).
func WithParseChannels(channels ...string) ParseOption {
	return func(c *parseConfig) {
		c.channels = make(map[string]struct{}, len(channels))
		for _, ch := range channels {
			c.channels[ch] = struct{}{}
		}
	}
}

// WithParseIncludeLocal also reports mentions typed by the log's owner.
func WithParseIncludeLocal(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeLocal = include
	}
}

// WithParseIncludeRawLine includes the original log line in Mention.RawLine.
func WithParseIncludeRawLine(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeRawLine = include
	}
}

// WithParseTimeRange only reports mentions within [since, until).
// Zero values are ignored.
func WithParseTimeRange(since, until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
		c.until = until
	}
}

// WithParseStopOnError stops on the first malformed line instead of
// skipping it.
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}
