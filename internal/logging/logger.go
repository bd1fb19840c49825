// Package logging provides config-driven categorized file-based logging
// for the engine. Logs are written to .golog/logs/ with separate files
// per category. Logging is controlled by debug_mode in .golog/config.yaml
// - when false, no logs are written.
package logging

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot     Category = "boot"     // process startup, config/backend selection
	CategoryEngine   Category = "engine"   // main execution loop, trans/final steps
	CategoryExog     Category = "exog"     // exogenous event queue push/drain
	CategoryHistory  Category = "history"  // append/progress of the transition log
	CategoryActivity Category = "activity" // activity lifecycle transitions
	CategoryPlatform Category = "platform" // platform backend dispatch
	CategoryReasoner Category = "reasoner" // Mangle-backed semantics factory
	CategoryCLI      Category = "cli"      // command-line entrypoint
)

// loggingConfig mirrors the relevant parts of config.LoggingConfig to
// avoid circular imports.
type loggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"` // structured JSON, one object per line
}

// configFile mirrors .golog/config.yaml's logging section.
type configFile struct {
	Logging loggingConfig `yaml:"logging"`
}

// StructuredLogEntry is a JSON log entry suitable for downstream parsing.
type StructuredLogEntry struct {
	Timestamp int64                  `json:"ts"`
	Category  string                 `json:"cat"`
	Level     string                 `json:"lvl"`
	Message   string                 `json:"msg"`
	RequestID string                 `json:"req,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers      = make(map[Category]*Logger)
	loggersMu    sync.RWMutex
	logsDir      string
	workspace    string
	config       loggingConfig
	configLoaded bool
	configMu     sync.RWMutex
	logLevel     int // 0=debug, 1=info, 2=warn, 3=error
)

const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Initialize sets up the logging directory and loads config. Should be
// called once at startup with the workspace path.
func Initialize(ws string) error {
	if ws == "" {
		return fmt.Errorf("workspace path required")
	}

	workspace = ws
	logsDir = filepath.Join(workspace, ".golog", "logs")

	if err := loadConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not load config: %v\n", err)
		config.DebugMode = false
	}

	if !config.DebugMode {
		return nil // silent no-op in production mode
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	bootLogger := Get(CategoryBoot)
	bootLogger.Info("=== golog logging initialized ===")
	bootLogger.Info("Workspace: %s", workspace)
	bootLogger.Info("Logs directory: %s", logsDir)
	bootLogger.Info("Debug mode: %v", config.DebugMode)
	bootLogger.Info("Log level: %s", config.Level)

	if len(config.Categories) > 0 {
		enabledCount := 0
		for cat, enabled := range config.Categories {
			if enabled {
				enabledCount++
			}
			bootLogger.Debug("Category '%s': %v", cat, enabled)
		}
		bootLogger.Info("Enabled categories: %d/%d", enabledCount, len(config.Categories))
	} else {
		bootLogger.Info("All categories enabled (no category filter)")
	}

	return nil
}

func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	configPath := filepath.Join(workspace, ".golog", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			config.DebugMode = false
			configLoaded = true
			return nil
		}
		return err
	}

	var cf configFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	config = cf.Logging
	configLoaded = true

	switch config.Level {
	case "debug":
		logLevel = LevelDebug
	case "info":
		logLevel = LevelInfo
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}

	return nil
}

// ReloadConfig reloads the config from disk. Call this if config changes
// at runtime.
func ReloadConfig() error {
	return loadConfig()
}

func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.DebugMode
}

func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if !config.DebugMode {
		return false
	}
	if config.Categories == nil {
		return true
	}
	enabled, exists := config.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category. Returns a
// no-op logger if debug mode is disabled or the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}
	if logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	date := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", date, category)
	logPath := filepath.Join(logsDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

func (l *Logger) logJSON(level, msg string) {
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Printf("[%s] %s", level, msg)
		return
	}
	l.logger.Printf("%s", data)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("debug", msg)
	} else {
		l.logger.Printf("[DEBUG] %s", msg)
	}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("info", msg)
	} else {
		l.logger.Printf("[INFO] %s", msg)
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("warn", msg)
	} else {
		l.logger.Printf("[WARN] %s", msg)
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if config.JSONFormat {
		l.logJSON("error", msg)
	} else {
		l.logger.Printf("[ERROR] %s", msg)
	}
}

// StructuredLog writes a fully structured log entry with custom fields.
func (l *Logger) StructuredLog(level string, msg string, fields map[string]interface{}) {
	if l.logger == nil {
		return
	}
	entry := StructuredLogEntry{
		Timestamp: time.Now().UnixMilli(),
		Category:  string(l.category),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if config.JSONFormat {
		data, err := json.Marshal(entry)
		if err == nil {
			l.logger.Printf("%s", data)
			return
		}
	}
	l.logger.Printf("[%s] %s | fields=%v", level, msg, fields)
}

func IsJSONFormat() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.JSONFormat
}

// CloseAll closes every open category log file. Called on shutdown.
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
}

// Package-level convenience wrappers, one trio per category, matching
// the direct call style used throughout the engine packages.

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }
func BootError(format string, args ...interface{}) { Get(CategoryBoot).Error(format, args...) }

func Engine(format string, args ...interface{})      { Get(CategoryEngine).Info(format, args...) }
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }
func EngineWarn(format string, args ...interface{})  { Get(CategoryEngine).Warn(format, args...) }
func EngineError(format string, args ...interface{}) { Get(CategoryEngine).Error(format, args...) }

func Exog(format string, args ...interface{})      { Get(CategoryExog).Info(format, args...) }
func ExogDebug(format string, args ...interface{}) { Get(CategoryExog).Debug(format, args...) }
func ExogWarn(format string, args ...interface{})  { Get(CategoryExog).Warn(format, args...) }

func History(format string, args ...interface{})      { Get(CategoryHistory).Info(format, args...) }
func HistoryDebug(format string, args ...interface{}) { Get(CategoryHistory).Debug(format, args...) }
func HistoryWarn(format string, args ...interface{})  { Get(CategoryHistory).Warn(format, args...) }

func Activity(format string, args ...interface{})      { Get(CategoryActivity).Info(format, args...) }
func ActivityDebug(format string, args ...interface{}) { Get(CategoryActivity).Debug(format, args...) }
func ActivityWarn(format string, args ...interface{})  { Get(CategoryActivity).Warn(format, args...) }
func ActivityError(format string, args ...interface{}) { Get(CategoryActivity).Error(format, args...) }

func Platform(format string, args ...interface{})      { Get(CategoryPlatform).Info(format, args...) }
func PlatformDebug(format string, args ...interface{}) { Get(CategoryPlatform).Debug(format, args...) }
func PlatformWarn(format string, args ...interface{})  { Get(CategoryPlatform).Warn(format, args...) }
func PlatformError(format string, args ...interface{}) { Get(CategoryPlatform).Error(format, args...) }

func Reasoner(format string, args ...interface{})      { Get(CategoryReasoner).Info(format, args...) }
func ReasonerDebug(format string, args ...interface{}) { Get(CategoryReasoner).Debug(format, args...) }
func ReasonerWarn(format string, args ...interface{})  { Get(CategoryReasoner).Warn(format, args...) }
func ReasonerError(format string, args ...interface{}) { Get(CategoryReasoner).Error(format, args...) }

func CLI(format string, args ...interface{})      { Get(CategoryCLI).Info(format, args...) }
func CLIError(format string, args ...interface{}) { Get(CategoryCLI).Error(format, args...) }

// WithContext returns a context logger for structured logging.
func (l *Logger) WithContext(ctx map[string]interface{}) *ContextLogger {
	return &ContextLogger{logger: l, context: ctx}
}

// ContextLogger provides structured logging with key-value context.
type ContextLogger struct {
	logger  *Logger
	context map[string]interface{}
}

func (c *ContextLogger) Debug(format string, args ...interface{}) {
	c.logger.StructuredLog("debug", fmt.Sprintf(format, args...), c.context)
}
func (c *ContextLogger) Info(format string, args ...interface{}) {
	c.logger.StructuredLog("info", fmt.Sprintf(format, args...), c.context)
}
func (c *ContextLogger) Warn(format string, args ...interface{}) {
	c.logger.StructuredLog("warn", fmt.Sprintf(format, args...), c.context)
}
func (c *ContextLogger) Error(format string, args ...interface{}) {
	c.logger.StructuredLog("error", fmt.Sprintf(format, args...), c.context)
}

// RequestLogger tags every line with a correlation ID, used to trace one
// Run invocation's log output.
type RequestLogger struct {
	logger    *Logger
	requestID string
	fields    map[string]interface{}
}

func WithRequestID(category Category, requestID string) *RequestLogger {
	return &RequestLogger{logger: Get(category), requestID: requestID}
}

func (r *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	if r.fields == nil {
		r.fields = make(map[string]interface{})
	}
	r.fields[key] = value
	return r
}

func (r *RequestLogger) formatMsg(format string, args ...interface{}) string {
	return fmt.Sprintf("[%s] %s", r.requestID, fmt.Sprintf(format, args...))
}

func (r *RequestLogger) Debug(format string, args ...interface{}) {
	r.logger.Debug("%s", r.formatMsg(format, args...))
}
func (r *RequestLogger) Info(format string, args ...interface{}) {
	r.logger.Info("%s", r.formatMsg(format, args...))
}
func (r *RequestLogger) Warn(format string, args ...interface{}) {
	r.logger.Warn("%s", r.formatMsg(format, args...))
}
func (r *RequestLogger) Error(format string, args ...interface{}) {
	r.logger.Error("%s", r.formatMsg(format, args...))
}

// Timer measures and logs the duration of one named operation.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	Get(t.category).Debug("%s took %s", t.operation, d)
	return d
}

func (t *Timer) StopWithInfo() time.Duration {
	d := time.Since(t.start)
	Get(t.category).Info("%s took %s", t.operation, d)
	return d
}

func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	d := time.Since(t.start)
	if d > threshold {
		Get(t.category).Warn("%s took %s (exceeds threshold %s)", t.operation, d, threshold)
	} else {
		Get(t.category).Debug("%s took %s", t.operation, d)
	}
	return d
}
