package observability_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kidsrec/chatbot/internal/observability"
)

func TestLoggerFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	observability.Configure(&buf, "json", "info")
	t.Cleanup(func() { observability.Configure(&bytes.Buffer{}, "json", "info") })

	ctx := observability.WithRequestID(context.Background(), "req-42")
	observability.LoggerFromContext(ctx).Info("hello", "user_id", "kid-1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON log line, got %q: %v", buf.String(), err)
	}
	if line["request_id"] != "req-42" || line["user_id"] != "kid-1" || line["msg"] != "hello" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestConfigureLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	observability.Configure(&buf, "text", "warn")
	t.Cleanup(func() { observability.Configure(&bytes.Buffer{}, "json", "info") })

	log := observability.Logger()
	log.Info("dropped")
	log.Warn("kept", "stage", "parsing")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line written at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=kept") || !strings.Contains(out, "stage=parsing") {
		t.Fatalf("expected a text line, got %q", out)
	}
}

func TestSetBreakerState(t *testing.T) {
	cases := map[string]float64{
		"closed":    0,
		"half-open": 1,
		"open":      2,
	}
	for state, want := range cases {
		observability.SetBreakerState("test", state)
		if got := testutil.ToFloat64(observability.BreakerState.WithLabelValues("test")); got != want {
			t.Fatalf("state %s: expected %v, got %v", state, want, got)
		}
	}
}
