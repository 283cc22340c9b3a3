package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestForServiceMemoizes(t *testing.T) {
	a := ForService("dao")
	b := ForService("dao")
	if a != b {
		t.Error("expected the same logger instance for the same service")
	}
}

func TestPrefixAndLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))

	l := ForService("indexer")
	l.Infof("indexed submission %d", 42)
	l.Errorf("boom")

	out := buf.String()
	if !strings.Contains(out, "INFO [indexer>] indexed submission 42") {
		t.Errorf("missing info line, got:\n%s", out)
	}
	if !strings.Contains(out, "ERROR [indexer>] boom") {
		t.Errorf("missing error line, got:\n%s", out)
	}
}

func TestDebugGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))

	l := ForService("planner")
	l.Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug output should be suppressed by default")
	}

	EnableDebugFor("planner")
	l.Debugf("visible")
	if !strings.Contains(buf.String(), "DEBUG [planner>] visible") {
		t.Errorf("expected debug output after EnableDebugFor, got:\n%s", buf.String())
	}
}

func TestGlobalDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(bytes.NewBuffer(nil))

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	if !DebugEnabledFor("anything") {
		t.Error("global debug should enable every service")
	}
}
