// Package logging provides categorized zap loggers for tlscore.
// Every subsystem asks for its own category so log lines can be filtered by
// the "logger" field. Until Initialize (or Use) is called, all categories
// resolve to a no-op logger, which keeps library code and tests silent.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // CLI startup, config loading
	CategoryScanner    Category = "scanner"    // Transcript block extraction and validation
	CategoryScoring    Category = "scoring"    // Sub-score aggregation
	CategoryReference  Category = "reference"  // Reference solution loading
	CategoryCrossCheck Category = "crosscheck" // Mangle fact-set derivation
	CategoryBatch      Category = "batch"      // Concurrent multi-task scoring
	CategoryWatch      Category = "watch"      // Transcript file watching
)

// Formats accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the root logger.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // console, json
	Verbose bool   // forces debug level
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
)

// Initialize builds the root logger and installs it for all categories.
// Output goes to stderr; stdout is reserved for score documents.
func Initialize(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", FormatConsole:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	case FormatJSON:
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: %s, %s)", opts.Format, FormatConsole, FormatJSON)
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	Use(logger)
	return logger, nil
}

// Use installs an existing logger as the root. Passing nil resets to no-op.
func Use(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	loggers = make(map[Category]*zap.Logger)
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes the root logger. Errors from syncing stderr on some
// platforms are expected and are ignored by callers.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return root.Sync()
}

// ParseLevel maps a config level string to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(norm)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
