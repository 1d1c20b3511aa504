package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestZerologAdapterFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, "test")
	logger.Info("evaluated",
		String("algo", "matrix"),
		Int("digits", 100),
		Uint64("n", 1000),
		Float64("seconds", 0.5),
		Field{Key: "exact", Value: true},
		Field{Key: "tags", Value: []string{"a"}},
	)

	m := decodeLine(t, strings.TrimSpace(buf.String()))
	checks := map[string]any{
		"level":     "info",
		"message":   "evaluated",
		"component": "test",
		"algo":      "matrix",
		"digits":    float64(100),
		"n":         float64(1000),
		"seconds":   0.5,
		"exact":     true,
	}
	for k, want := range checks {
		if m[k] != want {
			t.Errorf("field %q = %v, want %v", k, m[k], want)
		}
	}
	if _, ok := m["tags"]; !ok {
		t.Error("interface field missing")
	}
}

func TestZerologAdapterLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf))
	logger.Debug("d")
	logger.Warn("w")
	logger.Error("e", errors.New("boom"), Err(errors.New("cause")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	wantLevels := []string{"debug", "warn", "error"}
	for i, line := range lines {
		if got := decodeLine(t, line)["level"]; got != wantLevels[i] {
			t.Errorf("line %d level = %v, want %s", i, got, wantLevels[i])
		}
	}
	last := decodeLine(t, lines[2])
	if last["error"] != "cause" {
		t.Errorf("error field = %v; the explicit field overrides Err()", last["error"])
	}
}

func TestNopLogger(t *testing.T) {
	t.Parallel()
	var l Logger = NopLogger()
	l.Info("ignored")
	l.Error("ignored", errors.New("x"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.WarnLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{" INFO ", zerolog.InfoLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// Configure mutates process-wide state, so this test is not parallel.
func TestConfigure(t *testing.T) {
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prevLevel) })

	var buf bytes.Buffer
	if err := Configure("info", &buf, true); err != nil {
		t.Fatal(err)
	}
	logger := NewDefaultLogger("app")
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=app") {
		t.Errorf("unexpected console output: %q", out)
	}

	if err := Configure("loud", &buf, true); err == nil {
		t.Error("invalid level should be rejected")
	}
}
