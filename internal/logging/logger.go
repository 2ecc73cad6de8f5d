// Package logging provides config-driven, categorized file-based logging
// for the engine. Each engine component logs through its own category; logs
// are written to <workspace>/.kyua/logs/<category>.log when debug mode is
// enabled, otherwise calls are cheap no-ops.
package logging

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category identifies which engine component produced a log line.
type Category string

const (
	CategoryIsolate    Category = "isolate"
	CategorySupervisor Category = "supervisor"
	CategoryResultProto Category = "resultproto"
	CategoryRunner     Category = "runner"
	CategoryScanner    Category = "scanner"
	CategoryStore      Category = "store"
	CategoryCLI        Category = "cli"
)

var (
	mu         sync.Mutex
	debugMode  bool
	categories map[Category]bool
	workspace  string
	loggers    = map[Category]*CategoryLogger{}
)

// CategoryLogger is a thin wrapper around the standard logger that knows its
// own category and whether it is currently enabled.
type CategoryLogger struct {
	category Category
	file     *os.File
	std      *log.Logger
}

// Initialize records workspaceDir as the root for per-category log files;
// Get opens each file lazily under <workspaceDir>/.kyua/logs. It is safe to
// call multiple times; later calls are no-ops until CloseAll.
func Initialize(workspaceDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if workspace != "" {
		return nil
	}
	workspace = workspaceDir
	if categories == nil {
		categories = allCategoriesEnabled()
	}
	return nil
}

// SetDebugMode toggles whether category loggers actually write to disk.
// Driven by Config.Logging.DebugMode at CLI startup.
func SetDebugMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugMode = enabled
}

// SetCategories overrides which categories are active; nil re-enables all.
func SetCategories(enabled map[Category]bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled == nil {
		categories = allCategoriesEnabled()
		return
	}
	categories = enabled
}

func allCategoriesEnabled() map[Category]bool {
	return map[Category]bool{
		CategoryIsolate:     true,
		CategorySupervisor:  true,
		CategoryResultProto: true,
		CategoryRunner:      true,
		CategoryScanner:     true,
		CategoryStore:       true,
		CategoryCLI:         true,
	}
}

// Get returns (creating if necessary) the logger for category.
func Get(category Category) *CategoryLogger {
	mu.Lock()
	defer mu.Unlock()

	if cl, ok := loggers[category]; ok {
		return cl
	}

	cl := &CategoryLogger{category: category}
	categoryAllowed := categories == nil || categories[category]
	if debugMode && workspace != "" && categoryAllowed {
		dir := filepath.Join(workspace, ".kyua", "logs")
		if err := os.MkdirAll(dir, 0755); err == nil {
			if f, err := os.OpenFile(filepath.Join(dir, string(category)+".log"),
				os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				cl.file = f
				cl.std = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
			}
		}
	}
	loggers[category] = cl
	return cl
}

func (c *CategoryLogger) enabled() bool {
	if !debugMode || c.std == nil {
		return false
	}
	return categories == nil || categories[c.category]
}

// Debugf writes a debug-level line, a no-op unless debug mode is enabled for
// this category.
func (c *CategoryLogger) Debugf(format string, args ...interface{}) {
	if !c.enabled() {
		return
	}
	c.std.Printf("[DEBUG] "+format, args...)
}

// Infof writes an info-level line.
func (c *CategoryLogger) Infof(format string, args ...interface{}) {
	if !c.enabled() {
		return
	}
	c.std.Printf("[INFO] "+format, args...)
}

// Warnf writes a warning-level line.
func (c *CategoryLogger) Warnf(format string, args ...interface{}) {
	if !c.enabled() {
		return
	}
	c.std.Printf("[WARN] "+format, args...)
}

// Errorf writes an error-level line.
func (c *CategoryLogger) Errorf(format string, args ...interface{}) {
	if !c.enabled() {
		return
	}
	c.std.Printf("[ERROR] "+format, args...)
}

// Timer measures and logs the duration of an operation on Stop.
type Timer struct {
	cl    *CategoryLogger
	label string
	start time.Time
}

// StartTimer begins timing label under category; call Stop to log the
// elapsed duration.
func StartTimer(category Category, label string) *Timer {
	return &Timer{cl: Get(category), label: label, start: time.Now()}
}

func (t *Timer) Stop() {
	t.cl.Debugf("%s took %s", t.label, time.Since(t.start))
}

// CloseAll flushes and closes every open category log file. Called from the
// CLI's PersistentPostRun.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	for _, cl := range loggers {
		if cl.file != nil {
			_ = cl.file.Close()
			cl.file = nil
			cl.std = nil
		}
	}
	loggers = map[Category]*CategoryLogger{}
	workspace = ""
}
