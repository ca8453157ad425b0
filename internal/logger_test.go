package internal

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetLogLevel(LogLevelDebug)
	if logLevel != LogLevelDebug {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelDebug", logLevel)
	}
	if atom.Level() != zapcore.DebugLevel {
		t.Errorf("SetLogLevel() zap level = %v, want debug", atom.Level())
	}

	SetLogLevel(LogLevelError)
	if logLevel != LogLevelError {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelError", logLevel)
	}
	if atom.Level() != zapcore.ErrorLevel {
		t.Errorf("SetLogLevel() zap level = %v, want error", atom.Level())
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelWarn {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelWarn", logLevel)
	}
}

func TestInitLogger(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	tests := []struct {
		name      string
		level     string
		format    string
		wantErr   bool
		wantLevel LogLevel
	}{
		{"console info", "info", "console", false, LogLevelInfo},
		{"json debug", "debug", "json", false, LogLevelDebug},
		{"empty format", "error", "", false, LogLevelError},
		{"bad level", "loud", "console", true, 0},
		{"bad format", "info", "xml", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logLevel != tt.wantLevel {
				t.Errorf("InitLogger() logLevel = %v, want %v", logLevel, tt.wantLevel)
			}
		})
	}

	if Logger() == nil {
		t.Error("Logger() returned nil")
	}
}

func TestLogFunctions(t *testing.T) {
	LogError("test error message")
	LogWarn("test warning message")
	LogInfo("test info message")
	LogDebug("test debug message %d", 1)
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}

func TestLogFunctions_ReportCaller(t *testing.T) {
	original := logger
	defer setLogger(original)

	core, logs := observer.New(zapcore.DebugLevel)
	setLogger(zap.New(core, zap.AddCaller()))

	LogDebug("debug %d", 1)
	LogInfo("info %d", 2)
	LogWarn("warn %d", 3)
	LogError("error %d", 4)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("logged %d entries, want 4", len(entries))
	}
	for _, e := range entries {
		if file := filepath.Base(e.Caller.File); file != "logger_test.go" {
			t.Errorf("%q reported caller %s, want logger_test.go", e.Message, e.Caller.String())
		}
	}
	if entries[1].Message != "info 2" {
		t.Errorf("message = %q", entries[1].Message)
	}
}
