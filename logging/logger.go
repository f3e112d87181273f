// Package logging wraps zerolog with the process-wide logger used by every layer of the service.
//
// Call Init once from main with the loaded LoggingConfig. Until then a JSON logger on stderr
// at info level is used, so packages can log from init paths and tests.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/amirphl/planeit/config"
	"github.com/amirphl/planeit/utils"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	log zerolog.Logger
	mu  sync.RWMutex

	// rotating file writer, kept so Close can flush it on shutdown
	fileWriter *lumberjack.Logger

	writer io.Writer = os.Stderr
)

func init() {
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init configures the global logger from cfg.
// It is safe to call more than once; each call replaces the previous writer.
func Init(cfg config.LoggingConfig) {
	mu.Lock()
	defer mu.Unlock()

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.ErrorFieldName = "error"

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}

	var out io.Writer = os.Stdout
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	switch cfg.Output {
	case "file":
		fileWriter = newFileWriter(cfg)
		out = fileWriter
	case "both":
		fileWriter = newFileWriter(cfg)
		out = zerolog.MultiLevelWriter(out, fileWriter)
	}

	writer = out
	lctx := zerolog.New(out).With().Timestamp()
	if cfg.EnableCaller {
		lctx = lctx.Caller()
	}
	log = lctx.Logger()
}

func newFileWriter(cfg config.LoggingConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
}

// Close releases the rotating file writer, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// Writer returns the sink the global logger writes to, for components that emit
// preformatted JSON lines such as the HTTP access log.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return writer
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger. Tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log.With().Str("component", name).Logger()
}

// Ctx returns a logger enriched with the request metadata stored in ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()

	if ctx == nil {
		return &l
	}

	lctx := l.With()
	if id, ok := ctx.Value(utils.RequestIDKey).(string); ok && id != "" {
		lctx = lctx.Str("request_id", id)
	}
	if ep, ok := ctx.Value(utils.EndpointKey).(string); ok && ep != "" {
		lctx = lctx.Str("endpoint", ep)
	}
	if ip, ok := ctx.Value(utils.IPAddressKey).(string); ok && ip != "" {
		lctx = lctx.Str("ip", ip)
	}
	if ua, ok := ctx.Value(utils.UserAgentKey).(string); ok && ua != "" {
		lctx = lctx.Str("user_agent", ua)
	}
	out := lctx.Logger()
	return &out
}

func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Debug()
}

func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}

// Fatal logs at fatal level and exits the process once the event is sent.
func Fatal() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Fatal()
}
