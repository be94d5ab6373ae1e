package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelWarn {
		t.Errorf("Expected default level %s, got %s", LevelWarn, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got '%s'", cfg.Output)
	}
	if cfg.AddSource {
		t.Error("Expected AddSource to be false by default")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{LevelError, slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stderr json logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelError, Format: FormatJSON, Output: "stderr"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil")
		}
	})

	t.Run("file logger", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "netscan.log")

		logger, err := New(Config{Level: LevelDebug, Format: FormatText, Output: logFile})
		if err != nil {
			t.Fatalf("Failed to create file logger: %v", err)
		}
		logger.Info("hello")

		if _, err := os.Stat(logFile); os.IsNotExist(err) {
			t.Error("Log file should have been created")
		}
	})

	t.Run("invalid directory for file logger", func(t *testing.T) {
		_, err := New(Config{Level: LevelInfo, Output: "/proc/invalid/path/test.log"})
		if err == nil {
			t.Error("Expected error for invalid log file path")
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: LevelWarn, Format: FormatText}, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")

	output := buf.String()
	if strings.Contains(output, "debug message") || strings.Contains(output, "info message") {
		t.Errorf("Messages below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "warn message") {
		t.Error("Warn message should be logged")
	}
}

func TestLoggerWithMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: LevelDebug, Format: FormatJSON}, &buf)

	scoped := logger.WithComponent("scanner").WithScanID("scan-123").WithTarget("10.0.0.0/30")
	if scoped == logger {
		t.Fatal("With methods should return a new logger instance")
	}
	scoped.WithError(fmt.Errorf("boom")).Info("scoped message")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line: %v", err)
	}

	expected := map[string]string{
		"component": "scanner",
		"scan_id":   "scan-123",
		"target":    "10.0.0.0/30",
		"error":     "boom",
		"msg":       "scoped message",
	}
	for key, want := range expected {
		if got, _ := entry[key].(string); got != want {
			t.Errorf("Expected %s=%q, got %v", key, want, entry[key])
		}
	}
}

func TestSpecializedLoggingMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: LevelDebug, Format: FormatText}, &buf)

	t.Run("InfoScan", func(t *testing.T) {
		buf.Reset()
		logger.InfoScan("scan started", "192.168.1.1", "ports", 3)
		output := buf.String()
		if !strings.Contains(output, "scan started") || !strings.Contains(output, "target=192.168.1.1") {
			t.Errorf("Unexpected output: %s", output)
		}
	})

	t.Run("ErrorScan", func(t *testing.T) {
		buf.Reset()
		logger.ErrorScan("scan failed", "192.168.1.2", fmt.Errorf("connection refused"))
		output := buf.String()
		if !strings.Contains(output, "connection refused") || !strings.Contains(output, "192.168.1.2") {
			t.Errorf("Unexpected output: %s", output)
		}
	})

	t.Run("DebugProbe", func(t *testing.T) {
		buf.Reset()
		logger.DebugProbe("port open", "10.0.0.1", 22, "banner", "SSH-2.0-OpenSSH_9.6")
		output := buf.String()
		if !strings.Contains(output, "port=22") || !strings.Contains(output, "address=10.0.0.1") {
			t.Errorf("Unexpected output: %s", output)
		}
	})
}

func TestGlobalLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewWithWriter(Config{Level: LevelDebug, Format: FormatText}, &buf))

	Debug("global debug")
	Warn("global warn")
	Error("global error", "error", fmt.Errorf("timeout"))

	output := buf.String()
	for _, msg := range []string{"global debug", "global warn", "global error", "timeout"} {
		if !strings.Contains(output, msg) {
			t.Errorf("Expected output to contain %q", msg)
		}
	}
}

func TestNewDiscard(t *testing.T) {
	logger := NewDiscard()
	if logger == nil {
		t.Fatal("Discard logger should not be nil")
	}
	logger.Error("dropped")
}
