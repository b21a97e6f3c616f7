package cli

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level     log.Level
		wantDebug bool
	}{
		{LogInfo, false},
		{LogDebug, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := newLogger(&buf, tt.level)
		logger.Debug("cache lookup", "key", "layout:abc")
		logger.Info("computed layout", "nodes", 3)

		out := buf.String()
		if !strings.Contains(out, "computed layout") {
			t.Errorf("level %v: info line missing: %q", tt.level, out)
		}
		if got := strings.Contains(out, "cache lookup"); got != tt.wantDebug {
			t.Errorf("level %v: debug logged = %v, want %v", tt.level, got, tt.wantDebug)
		}
	}
}

func TestLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, LogInfo).Info("x")
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(buf.String()) {
		t.Errorf("log line %q should start with an HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.SetLogLevel(LogDebug)
	if got := c.Logger.GetLevel(); got != LogDebug {
		t.Errorf("level = %v, want %v", got, LogDebug)
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, LogInfo))
	prog.done("Laid out 3 endpoints")

	out := buf.String()
	if !regexp.MustCompile(`Laid out 3 endpoints \(\d+(\.\d+)?[µnm]?s\)`).MatchString(out) {
		t.Errorf("progress line = %q, want message with elapsed time", out)
	}
}
