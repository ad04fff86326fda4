package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpatrickdp/dexi-engine/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNewRespectsLevel(t *testing.T) {
	for _, dev := range []bool{false, true} {
		logger, err := New(config.LoggingConfig{Level: "warn", Development: dev})
		if err != nil {
			t.Fatalf("New(dev=%v): %v", dev, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("dev=%v: info should be disabled at warn", dev)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("dev=%v: warn should be enabled", dev)
		}
	}
	if _, err := New(config.LoggingConfig{Level: "loud"}); err == nil {
		t.Error("expected error for bad level")
	}
}

func TestRunFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("evaluated", Run("car", "prob", 3)...)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["model"] != "car" || ctx["mode"] != "prob" || ctx["inputs"] != int64(3) {
		t.Errorf("fields = %v", ctx)
	}
}
