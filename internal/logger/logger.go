package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"fx-bridge-bot/internal/trace"
)

var (
	globalLogger    *slog.Logger
	logLevel        slog.Level
	detailedLogging bool
	runID           string
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level           string // DEBUG, INFO, WARN, ERROR
	Format          string // json or text
	DetailedLogging bool   // Add caller source info to each record
	FilePath        string // Optional rotating log file, empty = stdout only
	FileMaxMB       int
	FileMaxBackups  int
	FileMaxAgeDays  int
}

// Init initializes the global logger from environment variables.
func Init() error {
	return InitWithConfig(LoadConfigFromEnv())
}

// LoadConfigFromEnv loads logging configuration from environment variables.
func LoadConfigFromEnv() LogConfig {
	return LogConfig{
		Level:           getEnvOrDefault("LOG_LEVEL", "INFO"),
		Format:          getEnvOrDefault("LOG_FORMAT", "json"),
		DetailedLogging: getEnvOrDefault("LOG_DETAILED", "false") == "true",
		FilePath:        os.Getenv("LOG_FILE"),
		FileMaxMB:       getEnvInt("LOG_FILE_MAX_MB", 20),
		FileMaxBackups:  getEnvInt("LOG_FILE_MAX_BACKUPS", 5),
		FileMaxAgeDays:  getEnvInt("LOG_FILE_MAX_AGE_DAYS", 14),
	}
}

// InitWithConfig initializes the logger with a specific configuration. Each
// process gets a fresh run id so audit lines from separate restarts can be
// told apart.
func InitWithConfig(config LogConfig) error {
	logLevel = parseLogLevel(config.Level)
	detailedLogging = config.DetailedLogging
	runID = uuid.NewString()

	var out io.Writer = os.Stdout
	if config.FilePath != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.FileMaxMB,
			MaxBackups: config.FileMaxBackups,
			MaxAge:     config.FileMaxAgeDays,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: false, // source is added manually so the caller location is right
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	globalLogger = slog.New(handler).With("run_id", runID)
	slog.SetDefault(globalLogger)
	return nil
}

// RunID returns the id assigned to this process at Init time.
func RunID() string {
	return runID
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Debug logs a debug message.
func Debug(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelDebug, msg, 2, args...)
}

// Info logs an info message.
func Info(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2, args...)
}

// InfoSkip logs an info message skipping extra caller frames, for use from
// middleware wrappers.
func InfoSkip(ctx context.Context, extraSkip int, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelInfo, msg, 2+extraSkip, args...)
}

// Warn logs a warning message.
func Warn(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelWarn, msg, 2, args...)
}

// Error logs an error message.
func Error(ctx context.Context, msg string, args ...any) {
	logWithTrace(ctx, slog.LevelError, msg, 2, args...)
}

// ErrorWithErr logs an error message with an error object.
func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2, allArgs...)
}

// ErrorWithErrSkip is ErrorWithErr for middleware wrappers.
func ErrorWithErrSkip(ctx context.Context, extraSkip int, msg string, err error, args ...any) {
	allArgs := append([]any{"error", err}, args...)
	logWithTrace(ctx, slog.LevelError, msg, 2+extraSkip, allArgs...)
}

func logWithTrace(ctx context.Context, level slog.Level, msg string, skip int, args ...any) {
	if globalLogger == nil {
		return
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		args = append([]any{"trace_id", traceID, "span_id", spanID}, args...)
	}

	if detailedLogging {
		if pc, file, line, ok := runtime.Caller(skip); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				args = append(args, "source", slog.GroupValue(
					slog.String("function", fn.Name()),
					slog.String("file", file),
					slog.Int("line", line),
				))
			}
		}
	}

	globalLogger.Log(ctx, level, msg, args...)
}

// SignalEvent records an evaluated signal. Always logged at INFO: the audit
// trail must explain why every snapshot did or did not become a ticket.
func SignalEvent(ctx context.Context, timestamp, symbol, action string, reasons []string, close, ma float64) {
	logWithTrace(ctx, slog.LevelInfo, "Signal evaluated", 2,
		"type", "SIGNAL",
		"timestamp", timestamp,
		"symbol", symbol,
		"action", action,
		"reasons", strings.Join(reasons, ","),
		"close", close,
		"ma10", ma,
	)
}

// TicketEvent records a placed order ticket.
func TicketEvent(ctx context.Context, id, timestamp, symbol, action string, lot float64) {
	logWithTrace(ctx, slog.LevelInfo, "Ticket placed", 2,
		"type", "TICKET",
		"ticket_id", id,
		"timestamp", timestamp,
		"symbol", symbol,
		"action", action,
		"lot", lot,
	)
}

// Suppression records a signal or decision that was deliberately not turned
// into a ticket, with the reason code and the offending values.
func Suppression(ctx context.Context, reason, timestamp string, args ...any) {
	allArgs := append([]any{
		"type", "SUPPRESSION",
		"reason", reason,
		"timestamp", timestamp,
	}, args...)
	logWithTrace(ctx, slog.LevelWarn, "Signal suppressed", 2, allArgs...)
}

// SelfHeal records a corrupt or missing artifact that was reset to a known
// empty baseline. Losing a ledger this way means losing knowledge of open
// trades, so it is surfaced loudly rather than hidden.
func SelfHeal(ctx context.Context, artifactPath string, cause error) {
	logWithTrace(ctx, slog.LevelWarn, "Artifact self-healed to empty", 2,
		"type", "SELF_HEAL",
		"artifact", artifactPath,
		"cause", cause,
	)
}
