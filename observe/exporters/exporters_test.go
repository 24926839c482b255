package exporters

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
)

func TestNewTracingExporter_InvalidName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "invalid", Options{})
	if err == nil {
		t.Fatal("expected error for invalid exporter name")
	}
	if !strings.Contains(err.Error(), "unknown exporter") {
		t.Errorf("error = %v, want 'unknown exporter'", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	var buf bytes.Buffer
	exp, err := NewTracingExporter(context.Background(), "stdout", Options{Writer: &buf})
	if err != nil {
		t.Fatalf("NewTracingExporter(stdout) error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestNewTracingExporter_None(t *testing.T) {
	for _, name := range []string{"none", ""} {
		exp, err := NewTracingExporter(context.Background(), name, Options{})
		if err != nil || exp == nil {
			t.Errorf("NewTracingExporter(%q) = %v, %v; want exporter", name, exp, err)
		}
	}
}

func TestNewTracingExporter_OtlpMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_JAEGER_ENDPOINT", "")

	for _, name := range []string{"otlp", "jaeger"} {
		_, err := NewTracingExporter(context.Background(), name, Options{})
		if !errors.Is(err, ErrEndpointNotConfigured) {
			t.Errorf("NewTracingExporter(%q) error = %v, want ErrEndpointNotConfigured", name, err)
		}
	}
}

func TestNewTracingExporter_OtlpWithEndpoint(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "otlp", Options{Endpoint: "localhost:4317", Insecure: true})
	if err != nil {
		t.Fatalf("NewTracingExporter(otlp) error = %v", err)
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewMetricsReader(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"stdout", false},
		{"none", false},
		{"", false},
		{"bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewMetricsReader(context.Background(), tt.name, Options{Writer: &bytes.Buffer{}})
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMetricsReader(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if !tt.wantErr && r == nil {
				t.Error("expected non-nil reader")
			}
		})
	}
}

func TestNewMetricsReader_OtlpMissingEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp", Options{})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Errorf("error = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestNewMetricsReader_PrometheusRegisterer(t *testing.T) {
	reg := promclient.NewRegistry()
	r, err := NewMetricsReader(context.Background(), "prometheus", Options{Registerer: reg})
	if err != nil {
		t.Fatalf("NewMetricsReader(prometheus) error = %v", err)
	}
	if r == nil {
		t.Fatal("expected non-nil reader")
	}
}
