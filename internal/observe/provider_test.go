package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetup_RegistersGlobalProvidersAndShutsDown(t *testing.T) {
	prevMP := otel.GetMeterProvider()
	prevTP := otel.GetTracerProvider()
	t.Cleanup(func() {
		otel.SetMeterProvider(prevMP)
		otel.SetTracerProvider(prevTP)
	})

	shutdown, err := Setup(context.Background(), Options{ServiceName: "elocute-test"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if otel.GetMeterProvider() == prevMP {
		t.Error("global meter provider not replaced")
	}
	if otel.GetTracerProvider() == prevTP {
		t.Error("global tracer provider not replaced")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
