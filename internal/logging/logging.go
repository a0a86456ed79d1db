// Package logging builds the application logger and bridges it into chi's
// request logger and GORM's SQL logger.
package logging

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tomlord1122/todo-api/internal/config"
)

// New returns a leveled logger for cfg. Production logs are JSON, every other
// profile gets human-readable text.
func New(w io.Writer, cfg *config.Config) *log.Logger {
	formatter := log.TextFormatter
	if cfg.Profile == config.Production {
		formatter = log.JSONFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(cfg.LogLevel, cfg.Debug),
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "todo-api",
	})
}

// ParseLevel resolves a level name, falling back to debug or info depending
// on the debug flag when the name is empty or unknown.
func ParseLevel(name string, debug bool) log.Level {
	if lvl, err := log.ParseLevel(name); err == nil && name != "" {
		return lvl
	}
	if debug {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// RequestLogger logs one line per request through logger at info level.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}),
		NoColor: true,
	})
}

// GormLogger routes SQL logging through logger. Debug mode logs every
// statement; otherwise only slow queries and errors are reported.
func GormLogger(logger *log.Logger, debug bool) gormlogger.Interface {
	level, force := gormlogger.Warn, log.WarnLevel
	if debug {
		level, force = gormlogger.Info, log.DebugLevel
	}

	return gormlogger.New(
		logger.StandardLog(log.StandardLogOptions{ForceLevel: force}),
		gormlogger.Config{
			SlowThreshold:             config.DefaultSlowSQLThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
