// internal/debug/debug_test.go
package debug

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithDebug(t *testing.T) {
	ctx := WithDebug(context.Background(), true)
	if !IsEnabled(ctx) {
		t.Error("IsEnabled should return true when debug is enabled")
	}
}

func TestIsEnabled_DefaultFalse(t *testing.T) {
	ctx := context.Background()
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false by default")
	}
}

func TestWithDebug_Disabled(t *testing.T) {
	ctx := WithDebug(context.Background(), false)
	if IsEnabled(ctx) {
		t.Error("IsEnabled should return false when debug is disabled")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	if got := NewLogger(true).GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("NewLogger(true) level = %v, want debug", got)
	}
	if got := NewLogger(false).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("NewLogger(false) level = %v, want warn", got)
	}
}

func TestNewLogger_JSONWhenNotConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, true)
	logger.Debug().Str("method", "GET").Msg("request")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["method"] != "GET" || entry["message"] != "request" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNewLogger_WarnSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, false)
	logger.Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed, got %q", buf.String())
	}
}

func TestAttach(t *testing.T) {
	var buf bytes.Buffer
	ctx := Attach(context.Background(), newLogger(&buf, false, true), true)

	if !IsEnabled(ctx) {
		t.Error("Attach should carry the debug flag")
	}
	zerolog.Ctx(ctx).Debug().Msg("from context")
	if !bytes.Contains(buf.Bytes(), []byte("from context")) {
		t.Errorf("logger should be reachable from the context, got %q", buf.String())
	}
}
