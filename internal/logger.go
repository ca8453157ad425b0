package internal

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logLevel = LogLevelWarn
	atom     = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger   *zap.Logger
	sugar    *zap.SugaredLogger
)

func init() {
	setLogger(newConsoleLogger(atom))
}

// setLogger installs l. The sugared logger skips the Log* frame so
// records name the caller of LogInfo and friends.
func setLogger(l *zap.Logger) {
	logger = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func newConsoleLogger(level zap.AtomicLevel) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// InitLogger rebuilds the global logger from the logging.level and
// logging.format settings. Format is "console" or "json".
func InitLogger(level, format string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", format)
	}

	atom.SetLevel(zapLevel)
	logLevel = fromZapLevel(zapLevel)
	cfg.Level = atom
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	_ = logger.Sync()
	setLogger(l)
	return nil
}

// Logger returns the underlying zap logger for structured fields
func Logger() *zap.Logger {
	return logger
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logLevel = level
	atom.SetLevel(toZapLevel(level))
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelWarn)
	}
}

// SyncLogger flushes buffered log entries
func SyncLogger() {
	// stderr sync returns EINVAL on some terminals
	_ = logger.Sync()
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func fromZapLevel(level zapcore.Level) LogLevel {
	switch {
	case level >= zapcore.ErrorLevel:
		return LogLevelError
	case level == zapcore.WarnLevel:
		return LogLevelWarn
	case level == zapcore.InfoLevel:
		return LogLevelInfo
	default:
		return LogLevelDebug
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	sugar.Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	sugar.Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	sugar.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	sugar.Debugf(format, args...)
}
