package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitDoesNotPanic(t *testing.T) {
	Init(false, false)
	L().Info().Msg("test json info")

	Init(true, false)
	L().Debug().Msg("test json debug")

	Init(false, true)
	L().Info().Msg("test human info")
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	log := FromContext(context.Background())
	log.Info().Msg("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Errorf("expected fallback message in global logger output, got %q", buf.String())
	}

	// A nil context must not panic.
	nilLog := FromContext(nil)
	nilLog.Info().Msg("nil ctx")
}

func TestWithLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	injected := zerolog.New(&buf).With().Str("source", "weather").Logger()

	ctx := WithLogger(context.Background(), injected)
	log := FromContext(ctx)
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"source":"weather"`) {
		t.Errorf("expected injected field in output, got %q", out)
	}
}

func TestNewRunLoggerStampsRunID(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	run := NewRunLogger("backfill")
	run.Info().Msg("start")

	out := buf.String()
	if !strings.Contains(out, `"run_id":`) {
		t.Errorf("expected run_id field, got %q", out)
	}
	if !strings.Contains(out, `"mode":"backfill"`) {
		t.Errorf("expected mode field, got %q", out)
	}
}
