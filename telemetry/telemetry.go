// Package telemetry wires the global OpenTelemetry tracer provider to an
// OTLP/HTTP exporter. The statemachine package emits its spans through the
// global provider, so nothing is exported until Initialize runs. Log records
// can be exported too, through a slog handler from SlogHandler.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceName    = "amp-fsm"
	defaultServiceVersion = "1.0.0"
	defaultEnvironment    = "local"
	defaultTimeout        = 5 * time.Second
	defaultSampleRatio    = 1.0
)

var ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")

var (
	providersMu    sync.Mutex               //nolint:gochecknoglobals
	tracerProvider *sdktrace.TracerProvider //nolint:gochecknoglobals
	loggerProvider *sdklog.LoggerProvider   //nolint:gochecknoglobals
)

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration
	SampleRatio    float64

	// LogsEnabled turns on OTLP log export. It requires Enabled.
	LogsEnabled  bool
	LogsEndpoint string
}

// LoadConfigFromEnv loads OpenTelemetry configuration from environment variables.
// The service name defaults to the logger subsystem of ctx.
func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	enabled := envutil.Bool("OTEL_ENABLED",
		envutil.Default(false)).
		ValueOrElse(false)

	serviceName := logger.GetSubsystem(ctx)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	svcName, err := envutil.String("OTEL_SERVICE_NAME", envutil.Default(serviceName)).Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String("OTEL_SERVICE_VERSION",
		envutil.Default(defaultServiceVersion)).
		Value()
	if err != nil {
		return nil, err
	}

	environment, err := envutil.String("ENVIRONMENT",
		envutil.Default(defaultEnvironment)).
		Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		envutil.Default("")).
		Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		envutil.Default(defaultTimeout)).
		Value()
	if err != nil {
		return nil, err
	}

	ratio, err := envutil.Float64("OTEL_TRACES_SAMPLER_ARG",
		envutil.Default(defaultSampleRatio)).
		Value()
	if err != nil {
		return nil, err
	}

	logsEnabled := envutil.Bool("OTEL_LOGS_ENABLED",
		envutil.Default(false)).
		ValueOrElse(false)

	logsEndpoint, err := envutil.String("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT",
		envutil.Default("")).
		Value()
	if err != nil {
		return nil, err
	}

	if ratio < 0 || ratio > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRatio, ratio)
	}

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    environment,
		Endpoint:       endpoint,
		Enabled:        enabled,
		Timeout:        timeout,
		SampleRatio:    ratio,
		LogsEnabled:    logsEnabled,
		LogsEndpoint:   logsEndpoint,
	}, nil
}

// Initialize sets up OpenTelemetry tracing with the given configuration.
// It is a no-op when tracing is disabled or no endpoint is configured.
func Initialize(ctx context.Context, config *Config) error {
	log := logger.Get(ctx)

	if config == nil || !config.Enabled {
		log.Info("OpenTelemetry tracing is disabled")

		return nil
	}

	if config.Endpoint == "" {
		log.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRatio))),
	)

	var logs *sdklog.LoggerProvider

	if config.LogsEnabled && config.LogsEndpoint != "" {
		logs, err = newLoggerProvider(ctx, config, res)
		if err != nil {
			_ = provider.Shutdown(ctx)

			return err
		}
	}

	previous := swapProviders(provider, logs)
	if err := previous.shutdown(ctx); err != nil {
		log.Warn("failed to shut down previous providers", "error", err)
	}

	otel.SetTracerProvider(provider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"sample_ratio", config.SampleRatio,
		"logs", logs != nil,
	)

	return nil
}

func newLoggerProvider(ctx context.Context, config *Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(config.LogsEndpoint),
		otlploghttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	), nil
}

type providers struct {
	tracer *sdktrace.TracerProvider
	logger *sdklog.LoggerProvider
}

func swapProviders(tracer *sdktrace.TracerProvider, logs *sdklog.LoggerProvider) providers {
	providersMu.Lock()
	defer providersMu.Unlock()

	previous := providers{tracer: tracerProvider, logger: loggerProvider}
	tracerProvider, loggerProvider = tracer, logs

	return previous
}

func (p providers) shutdown(ctx context.Context) error {
	var errs []error

	if p.logger != nil {
		errs = append(errs, p.logger.Shutdown(ctx))
	}

	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// SlogHandler returns a slog handler exporting records as OTLP logs under
// the given instrumentation name, or nil when log export is not running.
// Pass it to logger.WithHandler.
func SlogHandler(name string) slog.Handler {
	providersMu.Lock()
	defer providersMu.Unlock()

	if loggerProvider == nil {
		return nil
	}

	return otelslog.NewHandler(name, otelslog.WithLoggerProvider(loggerProvider))
}

// Shutdown flushes pending spans and log records and shuts down the providers.
func Shutdown(ctx context.Context) error {
	previous := swapProviders(nil, nil)
	if previous.tracer == nil && previous.logger == nil {
		return nil
	}

	logger.Get(ctx).Info("Shutting down OpenTelemetry providers")

	return previous.shutdown(ctx)
}
