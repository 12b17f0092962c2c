package observability

import (
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type (
	// Observability bundles the loggers and meters handed to components.
	Observability interface {
		Meter(name string, opts ...metric.MeterOption) metric.Meter
		Logger() *slog.Logger
	}

	observability struct {
		log *slog.Logger
		mp  metric.MeterProvider
	}
)

// New creates an Observability from the given logger and meter provider. A
// nil meter provider falls back to a noop provider.
func New(log *slog.Logger, mp metric.MeterProvider) Observability {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	return &observability{log: log, mp: mp}
}

// NOP returns an Observability that discards everything, meant for tests and
// one-shot CLI commands.
func NOP() Observability {
	return &observability{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		mp:  noop.NewMeterProvider(),
	}
}

func (o *observability) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return o.mp.Meter(name, opts...)
}

func (o *observability) Logger() *slog.Logger {
	return o.log
}
