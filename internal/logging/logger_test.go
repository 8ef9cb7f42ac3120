package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug": log.DebugLevel,
		"info":  log.InfoLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
	}
	for name, want := range cases {
		if got := parseLevel(name); got != want {
			t.Errorf("Expected %v for %q, got %v", want, name, got)
		}
	}
}

func TestParseLevelFallsBackToDebug(t *testing.T) {
	if got := parseLevel(""); got != log.DebugLevel {
		t.Errorf("Expected debug fallback for empty name, got %v", got)
	}
	if got := parseLevel("loud"); got != log.DebugLevel {
		t.Errorf("Expected debug fallback for unknown name, got %v", got)
	}
}

func TestWithPrefixBeforeInit(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	l := WithPrefix("ingest")
	if l == nil {
		t.Fatal("Expected a usable logger before Init")
	}
	if l.GetPrefix() != "ingest" {
		t.Errorf("Expected prefix kept, got %q", l.GetPrefix())
	}
	// Must not panic.
	l.Info("discarded")
}
