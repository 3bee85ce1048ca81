// Package telemetry records host activity as OpenTelemetry metrics and
// exposes them for Prometheus scraping.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"nuncle.ai/internal/sim/host"
)

const meterName = "nuncle.ai/internal/telemetry"

// tick durations are a few hundred microseconds in practice.
var tickBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// Metrics implements host.Observer. Methods are called from the host loop.
type Metrics struct {
	Ticks        metric.Int64Counter
	TickDuration metric.Float64Histogram
	Commands     metric.Int64Counter
	Effects      metric.Int64Counter
	Events       metric.Int64Counter
	AgentAlive   metric.Int64UpDownCounter

	alive bool
}

var _ host.Observer = (*Metrics)(nil)

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Ticks, err = m.Int64Counter("nuncle.ticks",
		metric.WithDescription("Host ticks stepped."),
	); err != nil {
		return nil, err
	}
	if met.TickDuration, err = m.Float64Histogram("nuncle.tick.duration",
		metric.WithDescription("Time spent stepping one tick."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(tickBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Commands, err = m.Int64Counter("nuncle.commands",
		metric.WithDescription("Commands handled, by result code."),
	); err != nil {
		return nil, err
	}
	if met.Effects, err = m.Int64Counter("nuncle.effects",
		metric.WithDescription("World effects issued by the controller, by kind."),
	); err != nil {
		return nil, err
	}
	if met.Events, err = m.Int64Counter("nuncle.events",
		metric.WithDescription("Controller events, by type."),
	); err != nil {
		return nil, err
	}
	if met.AgentAlive, err = m.Int64UpDownCounter("nuncle.agent.alive",
		metric.WithDescription("1 while the agent body is spawned."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

func (m *Metrics) ObserveTick(entry host.TickLogEntry, took time.Duration, alive bool) {
	ctx := context.Background()
	m.Ticks.Add(ctx, 1)
	m.TickDuration.Record(ctx, took.Seconds())
	for kind, n := range entry.Effects {
		m.Effects.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
	}
	for _, e := range entry.Events {
		typ, _ := e["type"].(string)
		if typ == "" {
			continue
		}
		m.Events.Add(ctx, 1, metric.WithAttributes(attribute.String("type", typ)))
	}
	if alive != m.alive {
		if alive {
			m.AgentAlive.Add(ctx, 1)
		} else {
			m.AgentAlive.Add(ctx, -1)
		}
		m.alive = alive
	}
}

func (m *Metrics) ObserveCommand(cmd host.RecordedCommand) {
	m.Commands.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("code", cmd.Code),
		attribute.Bool("query", cmd.Query),
	))
}

// Provider owns a MeterProvider bridged to a private Prometheus registry.
type Provider struct {
	mp       *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

func NewProvider() (*Provider, error) {
	reg := prometheus.NewRegistry()
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	return &Provider{
		mp:       sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
		registry: reg,
	}, nil
}

func (p *Provider) MeterProvider() metric.MeterProvider { return p.mp }

// Handler serves the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
