package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTestTracer swaps the global tracer provider for one backed by an
// in-memory exporter, restoring the original on cleanup.
func installTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
	return exp
}

func isHex32(s string) bool {
	if len(s) != 32 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func TestStartSpan_RecordsNamedSpan(t *testing.T) {
	exp := installTestTracer(t)

	ctx, span := StartSpan(context.Background(), "analyzer.Analyze")
	cid := CorrelationID(ctx)
	span.End()

	if !isHex32(cid) {
		t.Errorf("correlation ID %q is not a 32-hex trace ID", cid)
	}
	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "analyzer.Analyze" {
		t.Errorf("span name = %q, want analyzer.Analyze", spans[0].Name)
	}
}

func TestCorrelationID_EmptyWithoutSpan(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID = %q, want empty without an active span", got)
	}
}

func TestNewCorrelationID_FormatAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 64)
	for range 64 {
		id := NewCorrelationID()
		if !isHex32(id) {
			t.Fatalf("NewCorrelationID() = %q, want 32 hex characters", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate correlation ID %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestLogger_JoinsTraceContext(t *testing.T) {
	installTestTracer(t)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, span := StartSpan(context.Background(), "log-join")
	defer span.End()
	Logger(ctx).Info("analysis completed")

	out := buf.String()
	if !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
		t.Errorf("log line missing the span's trace_id, got %q", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Errorf("log line missing span_id, got %q", out)
	}
}

func TestLogger_PlainWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	Logger(context.Background()).Info("startup")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("log line unexpectedly carries trace_id: %q", buf.String())
	}
}
