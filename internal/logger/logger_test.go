package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Production(t *testing.T) {
	log, err := New(Config{Encoding: "json", Level: "warn"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
}

func TestNew_DevelopmentDefaultsToDebug(t *testing.T) {
	log, err := New(Config{IsDevelopment: true, Encoding: "console"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled in development")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
