// Package tracing wires OpenTelemetry into buddy. External tool runs and
// remote record fetches open spans through it; when tracing is disabled the
// provider hands out a no-op tracer.
package tracing

import (
	"cmp"
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Exporter names accepted in Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterFile   = "file"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// DefaultServiceName is reported as service.name when none is configured.
const DefaultServiceName = "buddy"

const defaultOTLPEndpoint = "localhost:4317"

// Config configures the tracing subsystem.
type Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Exporter is one of none, file, stdout or otlp.
	Exporter string `mapstructure:"exporter" yaml:"exporter"`
	// FilePath receives JSONL spans for the file exporter.
	FilePath     string  `mapstructure:"file_path" yaml:"file_path"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name" yaml:"service_name"`
}

// DefaultConfig returns tracing switched off with the file exporter selected.
func DefaultConfig() Config {
	return Config{
		Exporter:     ExporterFile,
		OTLPEndpoint: defaultOTLPEndpoint,
		SampleRate:   1.0,
		ServiceName:  DefaultServiceName,
	}
}

// exporters builds the span exporter for each accepted name. A nil exporter
// records spans without shipping them anywhere.
var exporters = map[string]func(Config) (sdktrace.SpanExporter, error){
	"":           func(Config) (sdktrace.SpanExporter, error) { return nil, nil },
	ExporterNone: func(Config) (sdktrace.SpanExporter, error) { return nil, nil },
	ExporterFile: func(cfg Config) (sdktrace.SpanExporter, error) {
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("tracing.file_path is required by the file exporter")
		}
		return NewFileExporter(cfg.FilePath)
	},
	ExporterStdout: func(Config) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	},
	ExporterOTLP: func(cfg Config) (sdktrace.SpanExporter, error) {
		return otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cmp.Or(cfg.OTLPEndpoint, defaultOTLPEndpoint)),
			otlptracegrpc.WithInsecure(),
		)
	},
}

// ValidExporter reports whether name is an exporter NewProvider accepts.
func ValidExporter(name string) bool {
	_, ok := exporters[name]
	return ok
}

// Provider owns the tracer provider for the life of the process.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewProvider builds a provider from cfg and installs it as the global otel
// provider. A disabled config yields a no-op tracer and installs nothing.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(DefaultServiceName)}, nil
	}

	build, ok := exporters[cfg.Exporter]
	if !ok {
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
	exp, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", cmp.Or(cfg.Exporter, ExporterNone), err)
	}

	service := cmp.Or(cfg.ServiceName, DefaultServiceName)
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1
	}
	opts := []sdktrace.TracerProviderOption{
		// schemaless so it never conflicts with resource.Default()
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	sdk := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(sdk)
	return &Provider{sdk: sdk, tracer: sdk.Tracer(service)}, nil
}

// Tracer returns the tracer spans are opened on. It is never nil.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown flushes pending spans and closes the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
