package looter

import (
	"bufio"
	"context"
	"errors"
	"iter"
	"os"
	"regexp"
	"strconv"

	"github.com/ninjalooter/ninjalooter-go/internal/extract"
	"github.com/ninjalooter/ninjalooter-go/internal/logline"
)

// ParseLine parses a single game log line.
//
// Return values:
//   - (*Line, nil): a timestamped line; Kind tells chat, roll and other apart
//   - (nil, nil): the line has no timestamp prefix (not an error)
//   - (nil, error): the prefix is present but malformed
func ParseLine(line string) (*Line, error) {
	return logline.Parse(line)
}

// Mentions returns the item names x finds in a chat line, one per merged
// match, in the order they appear. Non-chat lines have no mentions.
func Mentions(x *Extractor, c *Catalog, l *Line) []Mention {
	ms, _ := mentions(x, c, l)
	return ms
}

func mentions(x *Extractor, c *Catalog, l *Line) ([]Mention, []extract.Span) {
	if l == nil || l.Kind != logline.KindChat || x == nil {
		return nil, nil
	}
	spans := extract.Merge(x.Find(l.Message))
	if len(spans) == 0 {
		return nil, nil
	}
	out := make([]Mention, len(spans))
	for i, s := range spans {
		text := l.Message[s.Start:s.End]
		out[i] = Mention{
			Timestamp: l.Timestamp,
			Speaker:   l.Speaker,
			Channel:   string(l.Channel),
			Item:      c.Canonical(text),
			Text:      text,
		}
	}
	return out, spans
}

var numberPattern = regexp.MustCompile(`\d+`)

// bidAmount returns the first whole number in msg outside the item name
// spans, or 0 when there is none.
func bidAmount(msg string, spans []extract.Span) int {
	for _, loc := range numberPattern.FindAllStringIndex(msg, -1) {
		inside := false
		for _, s := range spans {
			if loc[0] < s.End && loc[1] > s.Start {
				inside = true
				break
			}
		}
		if inside {
			continue
		}
		if n, err := strconv.Atoi(msg[loc[0]:loc[1]]); err == nil {
			return n
		}
	}
	return 0
}

// ScanFile reads a game log and returns an iterator over the item mentions
// in its chat lines. Lines typed by the log's owner are skipped unless
// WithParseIncludeLocal is set. The file is opened lazily on first iteration.
//
// The iterator yields (Mention, error) pairs. When an error occurs:
//   - File open errors: yields (Mention{}, error) once and stops
//   - Parse errors: skips the line by default, or stops if WithParseStopOnError is set
//   - Context cancellation: yields (Mention{}, ctx.Err()) and stops
//
// Example:
//
//	for m, err := range looter.ScanFile(ctx, "eqlog_Jim_P1999Green.txt", x, c) {
//	    if err != nil {
//	        log.Printf("error: %v", err)
//	        break
//	    }
//	    fmt.Printf("%s reported %s\n", m.Speaker, m.Item)
//	}
func ScanFile(ctx context.Context, path string, x *Extractor, c *Catalog, opts ...ParseOption) iter.Seq2[Mention, error] {
	if path == "" {
		return func(yield func(Mention, error) bool) {
			yield(Mention{}, errors.New("looter: path required"))
		}
	}
	if x == nil {
		return func(yield func(Mention, error) bool) {
			yield(Mention{}, errors.New("looter: extractor required"))
		}
	}

	cfg := applyParseOptions(opts)

	return func(yield func(Mention, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(Mention{}, err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 512*1024)

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Mention{}, err)
				return
			}

			raw := scanner.Text()
			l, err := logline.ParseIn(raw, cfg.location)
			if err != nil {
				if cfg.stopOnError {
					yield(Mention{}, &ParseError{Line: raw, Err: err})
					return
				}
				continue
			}
			if l == nil || l.Kind != logline.KindChat {
				continue
			}
			if l.FromLocalPlayer() && !cfg.includeLocal {
				continue
			}
			if cfg.channels != nil {
				if _, ok := cfg.channels[string(l.Channel)]; !ok {
					continue
				}
			}
			if !cfg.since.IsZero() && l.Timestamp.Before(cfg.since) {
				continue
			}
			if !cfg.until.IsZero() && !l.Timestamp.Before(cfg.until) {
				return
			}

			for _, m := range Mentions(x, c, l) {
				if cfg.includeRawLine {
					m.RawLine = raw
				}
				if !yield(m, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(Mention{}, err)
		}
	}
}

// ScanFileAll collects every mention ScanFile yields. It stops on the first
// error and returns the mentions collected so far.
func ScanFileAll(ctx context.Context, path string, x *Extractor, c *Catalog, opts ...ParseOption) ([]Mention, error) {
	var out []Mention
	for m, err := range ScanFile(ctx, path, x, c, opts...) {
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}
