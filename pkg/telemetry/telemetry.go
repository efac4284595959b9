package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"tocotoco-hr/portal/config"
)

// ShutdownFunc 关闭 TracerProvider 并刷新剩余 span
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup 初始化 OTLP gRPC 链路追踪
// 未配置 endpoint 时返回空操作，otelhttp 使用全局 noop provider
func Setup(cfg *config.TelemetryConfig, logger *zap.Logger) ShutdownFunc {
	if cfg.OTLPEndpoint == "" {
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		logger.Warn("创建 OTLP exporter 失败，链路追踪关闭", zap.Error(err))
		return noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		logger.Warn("创建 OTel resource 失败", zap.Error(err))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Info("链路追踪已启用", zap.String("endpoint", cfg.OTLPEndpoint))
	return provider.Shutdown
}
