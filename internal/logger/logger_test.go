package logger

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/oggyb/presence-gateway/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Component: "test", Output: &buf})
	Info("user online", "user", "abc")

	out := buf.String()
	if !strings.Contains(out, "user online") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "user=abc") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatJSON, Component: "json_test", Output: &buf})
	Info("json log", "foo", "bar")

	out := buf.String()
	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "error", Format: FormatText, Output: &buf})
	Info("should not appear")
	Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Output: &buf})
	With("conn", "123").Info("gateway accepted")

	if !strings.Contains(buf.String(), "conn=123") {
		t.Errorf("expected conn field, got: %s", buf.String())
	}
}

func TestLogger_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatText, Output: &buf})
	Info("upstream call", "API-Key", "hunter2", "authorization", "Bearer abc", "player", "p1")

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "Bearer abc") {
		t.Errorf("credential leaked: %s", out)
	}
	if !strings.Contains(out, "player=p1") {
		t.Errorf("expected non-secret field, got: %s", out)
	}
}

func TestLogger_TextTimestampHasMillis(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatText, Output: &buf})
	Info("tick")

	// time=2006-01-02 15:04:05.000
	if !regexp.MustCompile(`time="\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}"`).MatchString(buf.String()) {
		t.Errorf("expected millisecond timestamp, got: %s", buf.String())
	}
}

func TestLogger_SubsystemAndSetLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatJSON, Output: &buf})
	log := Subsystem(nil, "gateway")

	log.Debug("hidden")
	SetLevel("debug")
	log.Debug("visible", Since(time.Now()))
	SetLevel("info")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked at info level: %s", out)
	}
	if !strings.Contains(out, `"subsystem":"gateway"`) || !strings.Contains(out, `"elapsed_ms":`) {
		t.Errorf("expected subsystem and elapsed fields, got: %s", out)
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	cfg := config.New()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Log.Component = "cfg_test"
	cfg.Log.Source = true

	out := captureOutput(t, func() {
		InitFromConfig(cfg)
		Debug("cfg-based log")
	})

	if !strings.Contains(out, `"msg":"cfg-based log"`) {
		t.Errorf("expected config-based JSON log, got: %s", out)
	}
	if !strings.Contains(out, `"component":"cfg_test"`) {
		t.Errorf("expected component from config, got: %s", out)
	}
}
