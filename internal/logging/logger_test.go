package logging

import (
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	defer SetLogger(nil)

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	defer SetLogger(nil)

	if err := InitializeWithOutput("", filepath.Join(t.TempDir(), "out.log")); err != nil {
		t.Fatalf("InitializeWithOutput() error = %v", err)
	}
	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestLogPayload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogPayload("sent", []byte{0x03, 'h', 'i'})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["hex"] != "036869" {
		t.Errorf("hex = %v, want 036869", fields["hex"])
	}
	if fields["ascii"] != ".hi" {
		t.Errorf("ascii = %v, want .hi", fields["ascii"])
	}
}

func TestLogPayload_SkippedAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogPayload("sent", []byte("payload"))

	if logs.Len() != 0 {
		t.Errorf("expected no entries at info level, got %d", logs.Len())
	}
}

func TestHexDump_Truncates(t *testing.T) {
	data := make([]byte, maxDumpBytes+10)
	got := hexDump(data)
	if !strings.HasSuffix(got, "...") {
		t.Error("expected truncated dump to end with ...")
	}
	if len(got) != maxDumpBytes*2+3 {
		t.Errorf("dump length = %d, want %d", len(got), maxDumpBytes*2+3)
	}
}

func TestLogTransition(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogTransition("scanning", "connecting", "device_found")

	entries := logs.FilterMessage("Session transition").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 transition entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["to"] != "connecting" {
		t.Errorf("to = %v, want connecting", entries[0].ContextMap()["to"])
	}
}
