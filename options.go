package redlist

import (
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type Options struct {
	Prefix string
	Logger *zap.Logger
	Meter  metric.Meter
}

type Option func(*Options)

// WithPrefix sets the key namespace used by queues. Adapters ignore it.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMeter sets the meter used for command metrics.
// Defaults to the global OTel MeterProvider.
func WithMeter(m metric.Meter) Option {
	return func(o *Options) { o.Meter = m }
}

func buildOptions(opts []Option) Options {
	opt := Options{Prefix: "redlist"}
	for _, fn := range opts {
		if fn != nil {
			fn(&opt)
		}
	}
	if opt.Prefix == "" {
		opt.Prefix = "redlist"
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return opt
}
