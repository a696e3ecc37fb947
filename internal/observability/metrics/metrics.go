package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	checkouts      metric.Int64Counter
	paymentEvents  metric.Int64Counter
	reversals      metric.Int64Counter
	stockConflicts metric.Int64Counter
	overrideIssued metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tillpoint"
	}
	meter := provider.Meter(name)

	checkouts, err := meter.Int64Counter("tillpoint_checkouts_total")
	if err != nil {
		return nil, err
	}
	paymentEvents, err := meter.Int64Counter("tillpoint_payment_events_total")
	if err != nil {
		return nil, err
	}
	reversals, err := meter.Int64Counter("tillpoint_reversals_total")
	if err != nil {
		return nil, err
	}
	stockConflicts, err := meter.Int64Counter("tillpoint_stock_conflicts_total")
	if err != nil {
		return nil, err
	}
	overrideIssued, err := meter.Int64Counter("tillpoint_override_tokens_issued_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checkouts:      checkouts,
		paymentEvents:  paymentEvents,
		reversals:      reversals,
		stockConflicts: stockConflicts,
		overrideIssued: overrideIssued,
	}, nil
}

// RecordCheckout increments completed checkout counts per payment method.
func (m *Metrics) RecordCheckout(ctx context.Context, method string) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", method)))
}

// RecordPaymentEvent increments payment attempt counts by outcome.
func (m *Metrics) RecordPaymentEvent(ctx context.Context, method, outcome string) {
	if m == nil {
		return
	}
	m.paymentEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", method),
		attribute.String("outcome", outcome),
	))
}

// RecordReversal increments refund/void counts.
func (m *Metrics) RecordReversal(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.reversals.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordStockConflict increments oversell-prevented counts.
func (m *Metrics) RecordStockConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockConflicts.Add(ctx, 1)
}

// RecordOverrideIssued increments override token issuance counts.
func (m *Metrics) RecordOverrideIssued(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.overrideIssued.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
