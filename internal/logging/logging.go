// Package logging hands out category-tagged charmbracelet loggers that share
// one output, level and format.
//
//	logging.Init(logging.Config{Level: "debug"})
//	logger := logging.Get("HW report")
//	logger.Error("Error uploading the HW report.", "err", err)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalidFormat is returned for an unknown log format name.
var ErrInvalidFormat = errors.New("invalid log format")

// Config configures the shared logging output.
type Config struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Format is text (default), json or logfmt.
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

type state struct {
	mu      sync.Mutex
	out     io.Writer
	level   log.Level
	format  log.Formatter
	loggers map[string]*log.Logger
}

var global = &state{
	out:     os.Stderr,
	level:   log.InfoLevel,
	format:  log.TextFormatter,
	loggers: make(map[string]*log.Logger),
}

// Init applies cfg to every logger handed out so far and to later ones.
func Init(cfg Config) error {
	level := log.InfoLevel
	if cfg.Level != "" {
		l, err := log.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	global.out = out
	global.level = level
	global.format = format
	for _, l := range global.loggers {
		configure(l)
	}
	return nil
}

// Get returns the logger for category, creating it on first use.
func Get(category string) *log.Logger {
	global.mu.Lock()
	defer global.mu.Unlock()

	if l, ok := global.loggers[category]; ok {
		return l
	}
	l := log.NewWithOptions(global.out, log.Options{
		Prefix:          category,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	configure(l)
	global.loggers[category] = l
	return l
}

// configure must be called with global.mu held.
func configure(l *log.Logger) {
	l.SetOutput(global.out)
	l.SetLevel(global.level)
	l.SetFormatter(global.format)
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}
}
