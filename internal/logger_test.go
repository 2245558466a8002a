package internal

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

// captureLog redirects the package logger to a buffer for one test
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	originalLogger := logger
	originalLevel := logLevel
	logger = log.New(&buf, "", 0)
	t.Cleanup(func() {
		logger = originalLogger
		logLevel = originalLevel
	})
	return &buf
}

func TestLogLevelGating(t *testing.T) {
	buf := captureLog(t)

	SetLogLevel(LogLevelWarn)
	LogError("boom")
	LogWarn("careful")
	LogInfo("routine")
	LogDebug("detail")

	out := buf.String()
	if !strings.Contains(out, "[ERROR] boom") {
		t.Errorf("error line missing from output %q", out)
	}
	if !strings.Contains(out, "[WARN] careful") {
		t.Errorf("warn line missing from output %q", out)
	}
	if strings.Contains(out, "routine") || strings.Contains(out, "detail") {
		t.Errorf("lines above the level leaked into output %q", out)
	}
}

func TestLogFormatsArguments(t *testing.T) {
	buf := captureLog(t)

	SetLogLevel(LogLevelInfo)
	LogInfo("processed %d of %d", 3, 7)
	if !strings.Contains(buf.String(), "[INFO] processed 3 of 7") {
		t.Errorf("formatted line missing from output %q", buf.String())
	}
}

func TestSetVerbose(t *testing.T) {
	buf := captureLog(t)

	SetVerbose(true)
	LogDebug("visible")
	if !strings.Contains(buf.String(), "[DEBUG] visible") {
		t.Errorf("debug line missing with verbose on: %q", buf.String())
	}

	// Turning verbose off must land back on Info, not stay at Debug
	buf.Reset()
	SetVerbose(false)
	LogDebug("hidden")
	LogInfo("still shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug line leaked with verbose off: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "still shown") {
		t.Errorf("info line missing with verbose off: %q", buf.String())
	}
}

func TestLogLevelOrdering(t *testing.T) {
	if !(LogLevelError < LogLevelWarn && LogLevelWarn < LogLevelInfo && LogLevelInfo < LogLevelDebug) {
		t.Errorf("levels out of order: error=%d warn=%d info=%d debug=%d",
			LogLevelError, LogLevelWarn, LogLevelInfo, LogLevelDebug)
	}
}
