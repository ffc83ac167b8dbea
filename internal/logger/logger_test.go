package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_FiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Debug("Test", "hidden debug")
	l.Info("Test", "hidden info")
	l.Warn("Test", "visible warn: code=%d", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug/info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] [Test] visible warn: code=7") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLogger_SetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelError)
	l.SetLogLevel(LevelDebug)

	l.Debug("", "now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Fatalf("expected debug line without component, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
