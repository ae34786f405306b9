// Package otel wires the OpenTelemetry SDK: traces, metrics and logs go to
// stdout by default, or to an OTLP gRPC collector.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultServiceName = "oralvis-api"

type Options struct {
	// Reported as service.name on every signal
	ServiceName string
	// Export over OTLP gRPC (configured through the standard OTEL_EXPORTER_OTLP_* variables) instead of stdout
	UseOTLP bool
}

// exporter returns the OTLP or stdout flavour of one signal's exporter.
func exporter[E any](useOTLP bool, otlp, stdout func() (E, error)) (E, error) {
	if useOTLP {
		return otlp()
	}
	return stdout()
}

type providers struct {
	shutdowns []func(context.Context) error
}

func (p *providers) shutdown(ctx context.Context) error {
	var err error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		err = errors.Join(err, p.shutdowns[i](ctx))
	}
	p.shutdowns = nil
	return err
}

// SetupOTelSDK installs global tracer, meter and logger providers. The
// returned shutdown flushes them and is safe to call more than once. It must
// be called even when setup fails part way.
func SetupOTelSDK(ctx context.Context, opts Options) (func(context.Context) error, error) {
	p := &providers{}

	res, err := newResource(opts.ServiceName)
	if err != nil {
		return p.shutdown, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	spans, err := exporter(opts.UseOTLP,
		func() (trace.SpanExporter, error) { return otlptracegrpc.New(ctx) },
		func() (trace.SpanExporter, error) { return stdouttrace.New() },
	)
	if err != nil {
		return p.shutdown, errors.Join(err, p.shutdown(ctx))
	}
	tp := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.AlwaysSample())),
		trace.WithBatcher(spans),
	)
	p.shutdowns = append(p.shutdowns, tp.Shutdown)
	otel.SetTracerProvider(tp)

	metrics, err := exporter(opts.UseOTLP,
		func() (metric.Exporter, error) { return otlpmetricgrpc.New(ctx) },
		func() (metric.Exporter, error) { return stdoutmetric.New() },
	)
	if err != nil {
		return p.shutdown, errors.Join(err, p.shutdown(ctx))
	}
	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metrics)),
	)
	p.shutdowns = append(p.shutdowns, mp.Shutdown)
	otel.SetMeterProvider(mp)

	logs, err := exporter(opts.UseOTLP,
		func() (log.Exporter, error) { return otlploggrpc.New(ctx) },
		func() (log.Exporter, error) { return stdoutlog.New() },
	)
	if err != nil {
		return p.shutdown, errors.Join(err, p.shutdown(ctx))
	}
	lp := log.NewLoggerProvider(
		log.WithResource(res),
		log.WithProcessor(log.NewBatchProcessor(logs)),
	)
	p.shutdowns = append(p.shutdowns, lp.Shutdown)
	global.SetLoggerProvider(lp)

	return p.shutdown, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
}
