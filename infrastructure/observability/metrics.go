package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sicbo/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the game
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	instrumented  bool
	mu            sync.RWMutex

	// Metric instruments
	messagesReadCounter          metric.Int64Counter
	betsPlacedCounter            metric.Int64Counter
	betsStakedCounter            metric.Int64Counter
	betsCancelledCounter         metric.Int64Counter
	roundsOpenedCounter          metric.Int64Counter
	roundsSettledCounter         metric.Int64Counter
	payoutsCounter               metric.Int64Counter
	roundsActiveGauge            metric.Int64UpDownCounter
	natsMessagesPublishedCounter metric.Int64Counter
	balanceTransactionsCounter   metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("sicbo")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.instrumented = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&mp.messagesReadCounter, MessagesReadTotal, "Total number of Discord messages read", "1"},
		{&mp.betsPlacedCounter, BetsPlacedTotal, "Total number of bets placed", "1"},
		{&mp.betsStakedCounter, BetsStakedTotal, "Total amount staked", "{coin}"},
		{&mp.betsCancelledCounter, BetsCancelledTotal, "Total number of bets cancelled", "1"},
		{&mp.roundsOpenedCounter, RoundsOpenedTotal, "Total number of rounds opened", "1"},
		{&mp.roundsSettledCounter, RoundsSettledTotal, "Total number of rounds settled", "1"},
		{&mp.payoutsCounter, PayoutsTotal, "Total amount paid to winners", "{coin}"},
		{&mp.natsMessagesPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published", "1"},
		{&mp.balanceTransactionsCounter, BalanceTransactionsTotal, "Total number of balance transactions", "1"},
	}

	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	// UpDownCounter for gauge-like behavior
	var err error
	mp.roundsActiveGauge, err = mp.meter.Int64UpDownCounter(
		RoundsActive,
		metric.WithDescription("Rounds currently open"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rounds active gauge: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordMessageRead records a Discord message being read
func (mp *MetricsProvider) RecordMessageRead(messageType string) {
	if !mp.isEnabled() {
		return
	}
	mp.messagesReadCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, messageType)),
	)
}

// RecordBetPlaced records one bet and its stake
func (mp *MetricsProvider) RecordBetPlaced(category string, stake int64) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelCategory, category))
	mp.betsPlacedCounter.Add(context.Background(), 1, attrs)
	mp.betsStakedCounter.Add(context.Background(), stake, attrs)
}

// RecordBetsCancelled records withdrawn bets
func (mp *MetricsProvider) RecordBetsCancelled(count int) {
	if !mp.isEnabled() {
		return
	}
	mp.betsCancelledCounter.Add(context.Background(), int64(count))
}

// RecordRoundOpened records a new round
func (mp *MetricsProvider) RecordRoundOpened() {
	if !mp.isEnabled() {
		return
	}
	mp.roundsOpenedCounter.Add(context.Background(), 1)
	mp.roundsActiveGauge.Add(context.Background(), 1)
}

// RecordRoundSettled records a settled round and what it paid out
func (mp *MetricsProvider) RecordRoundSettled(triple bool, payout int64) {
	if !mp.isEnabled() {
		return
	}
	mp.roundsSettledCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool(LabelTriple, triple)),
	)
	mp.payoutsCounter.Add(context.Background(), payout)
	mp.roundsActiveGauge.Add(context.Background(), -1)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsMessagesPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// RecordBalanceTransaction records a balance transaction
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string) {
	if !mp.isEnabled() {
		return
	}
	mp.balanceTransactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, transactionType)),
	)
}

// isEnabled checks if metrics are enabled and instruments exist
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.instrumented && mp.config.OTelEnabled
}
