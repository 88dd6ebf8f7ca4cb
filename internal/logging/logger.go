// Package logging writes category-split debug logs under the user's
// config directory. Nothing is written unless debug_mode is enabled in
// the logging section of config.json, so ordinary runs leave no files
// behind.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Category names one log stream. Each enabled category appends to its
// own file under <config dir>/logs.
type Category string

const (
	CategoryBoot   Category = "boot"   // startup and config loading
	CategorySearch Category = "search" // query state and Commons requests
	CategoryAssist Category = "assist" // selection, encoding, prompt flow
	CategoryModel  Category = "model"  // Gemini requests and streaming
	CategoryUI     Category = "ui"     // key handling and pane updates
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// settings mirrors config.LoggingConfig without importing the config
// package, which would cycle.
type settings struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories"`
	Level      string          `json:"level"`
}

type configDoc struct {
	Logging settings `json:"logging"`
}

// Logger appends to one category file. A Logger without a writer is
// inert, so call sites never check whether logging is on.
type Logger struct {
	category Category
	printer  *log.Logger
	file     *os.File
}

var (
	mu      sync.RWMutex
	open    = make(map[Category]*Logger)
	logsDir string

	cfgMu    sync.RWMutex
	cfg      settings
	minLevel = LevelInfo
)

// Initialize loads the logging section of config.json under configDir
// and, when debug mode is on, creates configDir/logs. Call once at
// startup, before the first Get.
func Initialize(configDir string) error {
	if configDir == "" {
		return fmt.Errorf("config directory required")
	}
	logsDir = filepath.Join(configDir, "logs")

	if err := loadSettings(filepath.Join(configDir, "config.json")); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v, continuing without logs\n", err)
	}
	if !IsDebugMode() {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", logsDir, err)
	}

	cfgMu.RLock()
	level := cfg.Level
	cfgMu.RUnlock()

	boot := Get(CategoryBoot)
	boot.Info("commons-explorer logging initialized")
	boot.Info("writing to %s at level %q", logsDir, level)
	return nil
}

// loadSettings replaces the cached settings with the logging section of
// the file at path. A missing file disables logging entirely.
func loadSettings(path string) error {
	cfgMu.Lock()
	defer cfgMu.Unlock()

	cfg = settings{}
	minLevel = LevelInfo

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc configDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	cfg = doc.Logging
	minLevel = parseLevel(cfg.Level)
	return nil
}

func parseLevel(name string) int {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// IsDebugMode reports whether file logging is active.
func IsDebugMode() bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled reports whether a category would actually be
// written. Categories absent from the config map stay on; only an
// explicit false turns one off.
func IsCategoryEnabled(category Category) bool {
	cfgMu.RLock()
	defer cfgMu.RUnlock()

	if !cfg.DebugMode {
		return false
	}
	if on, listed := cfg.Categories[string(category)]; listed {
		return on
	}
	return true
}

// Get returns the logger for a category, opening its file on first use.
// Disabled categories get an inert logger that swallows everything.
func Get(category Category) *Logger {
	if logsDir == "" || !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	mu.RLock()
	l := open[category]
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l := open[category]; l != nil {
		return l
	}

	name := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02"), category)
	f, err := os.OpenFile(filepath.Join(logsDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: open %s: %v\n", name, err)
		return &Logger{category: category}
	}

	l = &Logger{
		category: category,
		printer:  log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		file:     f,
	}
	open[category] = l
	return l
}

func (l *Logger) emit(level int, tag, format string, args ...interface{}) {
	if l.printer == nil || level < minLevel {
		return
	}
	l.printer.Printf("[%s] %s", tag, fmt.Sprintf(format, args...))
}

// Debug writes at the lowest level, dropped unless the level is debug.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "DEBUG", format, args...)
}

// Info writes routine progress lines.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "INFO", format, args...)
}

// Warn writes recoverable problems.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(LevelWarn, "WARN", format, args...)
}

// Error writes whenever the logger has a file, regardless of level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, "ERROR", format, args...)
}

// CloseAll closes every open log file and forgets them, so a later Get
// reopens. Called at shutdown.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()

	for _, l := range open {
		if l.file != nil {
			l.file.Close()
		}
	}
	open = make(map[Category]*Logger)
}

// =============================================================================
// CATEGORY HELPERS - one-line logging without fetching a logger first
// =============================================================================

// Each helper is inert when its category is off.

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Search(format string, args ...interface{})      { Get(CategorySearch).Info(format, args...) }
func SearchDebug(format string, args ...interface{}) { Get(CategorySearch).Debug(format, args...) }
func SearchError(format string, args ...interface{}) { Get(CategorySearch).Error(format, args...) }

func Assist(format string, args ...interface{})      { Get(CategoryAssist).Info(format, args...) }
func AssistDebug(format string, args ...interface{}) { Get(CategoryAssist).Debug(format, args...) }
func AssistError(format string, args ...interface{}) { Get(CategoryAssist).Error(format, args...) }

func Model(format string, args ...interface{})      { Get(CategoryModel).Info(format, args...) }
func ModelDebug(format string, args ...interface{}) { Get(CategoryModel).Debug(format, args...) }
func ModelError(format string, args ...interface{}) { Get(CategoryModel).Error(format, args...) }

func UI(format string, args ...interface{})      { Get(CategoryUI).Info(format, args...) }
func UIDebug(format string, args ...interface{}) { Get(CategoryUI).Debug(format, args...) }
func UIError(format string, args ...interface{}) { Get(CategoryUI).Error(format, args...) }

// =============================================================================
// TIMERS - duration logging for slow paths
// =============================================================================

// Timer measures one operation for the debug log.
type Timer struct {
	category Category
	op       string
	started  time.Time
}

// StartTimer begins timing op. Pair with Stop.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, started: time.Now()}
}

// Stop logs the duration at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.started)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}
