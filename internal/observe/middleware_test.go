package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMiddleware builds a middleware with fresh metrics. Tests that need
// recorded spans install a tracer separately via installTestTracer.
func newTestMiddleware(t *testing.T) (func(http.Handler) http.Handler, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return Middleware(m), reader
}

// analyzeStub stands in for the analyze handler so middleware behavior can be
// observed without the full pipeline.
func analyzeStub(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestMiddleware_TraceIDBecomesCorrelationID(t *testing.T) {
	installTestTracer(t)
	mw, _ := newTestMiddleware(t)

	var inHandler string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/analyze", nil))

	if !isHex32(inHandler) {
		t.Errorf("handler saw correlation ID %q, want a 32-hex trace ID", inHandler)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != inHandler {
		t.Errorf("X-Correlation-ID = %q, want the handler's trace ID %q", got, inHandler)
	}
}

func TestMiddleware_SynthesizesCorrelationIDWithoutTracer(t *testing.T) {
	// No tracer installed: the global provider is the noop default, so the
	// span carries no trace ID and the middleware must mint its own.
	mw, _ := newTestMiddleware(t)

	rec := httptest.NewRecorder()
	mw(analyzeStub(http.StatusOK)).ServeHTTP(rec, httptest.NewRequest("POST", "/v1/analyze", nil))

	if got := rec.Header().Get("X-Correlation-ID"); !isHex32(got) {
		t.Errorf("X-Correlation-ID = %q, want a synthesized 32-hex identifier", got)
	}
}

func TestMiddleware_SpanCarriesRouteAndStatus(t *testing.T) {
	exp := installTestTracer(t)
	mw, _ := newTestMiddleware(t)

	rec := httptest.NewRecorder()
	mw(analyzeStub(http.StatusBadRequest)).ServeHTTP(rec, httptest.NewRequest("POST", "/v1/analyze", nil))

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	if spans[0].Name != "HTTP POST /v1/analyze" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "HTTP POST /v1/analyze")
	}
	found := false
	for _, a := range spans[0].Attributes {
		if string(a.Key) == "http.response.status_code" && a.Value.AsInt64() == 400 {
			found = true
		}
	}
	if !found {
		t.Error("span missing http.response.status_code = 400")
	}
}

func TestMiddleware_DurationHistogramAttributes(t *testing.T) {
	mw, reader := newTestMiddleware(t)

	rec := httptest.NewRecorder()
	mw(analyzeStub(http.StatusServiceUnavailable)).ServeHTTP(rec, httptest.NewRequest("POST", "/v1/analyze", nil))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "elocute.http.request.duration")
	if met == nil {
		t.Fatal("elocute.http.request.duration not recorded")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("duration metric is not a float64 histogram")
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("got %d data points, want 1", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("sample count = %d, want 1", dp.Count)
	}

	want := map[string]string{"method": "POST", "path": "/v1/analyze", "status": "503"}
	for _, kv := range dp.Attributes.ToSlice() {
		if expected, ok := want[string(kv.Key)]; ok && kv.Value.Emit() == expected {
			delete(want, string(kv.Key))
		}
	}
	for k, v := range want {
		t.Errorf("duration histogram missing attribute %s=%s", k, v)
	}
}

func TestMiddleware_HonorsIncomingTraceparent(t *testing.T) {
	installTestTracer(t)
	mw, _ := newTestMiddleware(t)

	const upstreamTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest("POST", "/v1/analyze", nil)
	req.Header.Set("traceparent", "00-"+upstreamTraceID+"-00f067aa0ba902b7-01")

	rec := httptest.NewRecorder()
	mw(analyzeStub(http.StatusOK)).ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != upstreamTraceID {
		t.Errorf("X-Correlation-ID = %q, want the upstream trace ID %q", got, upstreamTraceID)
	}
}
