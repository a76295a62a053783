package logging

import (
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { Setup("info", "text") })

	Setup("debug", "json")
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter")
	}

	Setup("nonsense", "text")
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("expected info level for unknown input, got %s", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.TextFormatter); !ok {
		t.Fatalf("expected text formatter")
	}
}
