package config

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zapcore.Level
	}{
		{"debug lowercase", "debug", zapcore.DebugLevel},
		{"debug uppercase", "DEBUG", zapcore.DebugLevel},
		{"info", "info", zapcore.InfoLevel},
		{"warn", "warn", zapcore.WarnLevel},
		{"warning", "warning", zapcore.WarnLevel},
		{"error with spaces", " error ", zapcore.ErrorLevel},
		{"invalid string", "verbose", zapcore.InfoLevel},
		{"empty string", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name         string
		cfg          LogConfig
		enabled      zapcore.Level
		disabled     zapcore.Level
		checkDisable bool
	}{
		{"debug level", LogConfig{Level: "debug"}, zapcore.DebugLevel, 0, false},
		{"info level", LogConfig{Level: "info"}, zapcore.InfoLevel, zapcore.DebugLevel, true},
		{"warn level", LogConfig{Level: "warn"}, zapcore.WarnLevel, zapcore.InfoLevel, true},
		{"error level", LogConfig{Level: "error"}, zapcore.ErrorLevel, zapcore.WarnLevel, true},
		{"empty falls back to info", LogConfig{Level: ""}, zapcore.InfoLevel, zapcore.DebugLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			defer logger.Sync()

			if !logger.Core().Enabled(tt.enabled) {
				t.Errorf("level %v should be enabled", tt.enabled)
			}
			if tt.checkDisable && logger.Core().Enabled(tt.disabled) {
				t.Errorf("level %v should be disabled", tt.disabled)
			}
		})
	}
}
