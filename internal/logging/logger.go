package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "PRINTERDISCOVERY_LOG_LEVEL"

// Initialize creates a new logger with the specified level writing to stderr.
// If level is empty, it checks the PRINTERDISCOVERY_LOG_LEVEL environment
// variable. If neither is set, logging is disabled.
func Initialize(level string) error {
	return InitializeTo(level, os.Stderr)
}

// InitializeTo is Initialize with an explicit destination.
func InitializeTo(level string, w io.Writer) error {
	level = ResolveLevel(level)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(zapLevel),
	)
	logger = zap.New(core)
	return nil
}

// ResolveLevel returns level, or the environment variable when level is empty.
func ResolveLevel(level string) string {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	return strings.ToLower(strings.TrimSpace(level))
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Enabled reports whether messages at level are written.
func Enabled(level zapcore.Level) bool {
	return GetLogger().Core().Enabled(level)
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Hook logs a printf-style library debug message at info level, tagged with
// the component that produced it.
func Hook(component, format string, args ...interface{}) {
	GetLogger().Info(fmt.Sprintf(format, args...), zap.String("component", component))
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
