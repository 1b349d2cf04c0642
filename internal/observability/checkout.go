package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"shopapi/internal/domain/model"
	"shopapi/internal/usecase"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "shopapi/internal/observability/checkout"

// CheckoutService はチェックアウトにspan・ログ・メトリクスを付ける。
type CheckoutService struct {
	inner   usecase.Checkouter
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics checkoutMetrics
}

var _ usecase.Checkouter = (*CheckoutService)(nil)

type Option func(*CheckoutService) error

func WithLogger(logger *slog.Logger) Option {
	return func(s *CheckoutService) error {
		s.logger = logger
		return nil
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *CheckoutService) error {
		s.tracer = tr
		return nil
	}
}

// 計測器を作れなければNewCheckoutServiceがエラーを返す
func WithMeter(m metric.Meter) Option {
	return func(s *CheckoutService) error {
		metrics, err := newCheckoutMetrics(m)
		if err != nil {
			return err
		}
		s.metrics = metrics
		return nil
	}
}

func NewCheckoutService(inner usecase.Checkouter, opts ...Option) (*CheckoutService, error) {
	s := &CheckoutService{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s, nil
}

func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	s.logger.LogAttrs(ctx, slog.LevelInfo, "checkout started", slog.Int64("user.id", userID))
	order, err := s.inner.Checkout(ctx, userID)
	if err != nil {
		reason := failureReason(err)
		s.metrics.recordFailed(ctx, reason)
		span.SetAttributes(attribute.String("checkout.failure", reason))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		level := slog.LevelWarn
		if reason == "error" {
			level = slog.LevelError
		}
		s.logger.LogAttrs(ctx, level, "checkout failed",
			slog.Int64("user.id", userID),
			slog.String("reason", reason),
			slog.String("error", err.Error()))
		return model.Order{}, err
	}

	total, _ := order.TotalPrice.Float64()
	s.metrics.recordCompleted(ctx, total)
	span.SetAttributes(attribute.Int64("order.id", order.ID), attribute.Int("order.lines", len(order.Lines)))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "checkout completed",
		slog.Int64("user.id", userID),
		slog.Int64("order.id", order.ID),
		slog.String("order.total", order.TotalPrice.StringFixed(2)))
	return order, nil
}

func failureReason(err error) string {
	var missing *usecase.ProductMissingError
	var short *usecase.InsufficientStockError
	switch {
	case errors.Is(err, usecase.ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &missing):
		return "product_missing"
	case errors.As(err, &short):
		return "insufficient_stock"
	default:
		return "error"
	}
}

type checkoutMetrics struct {
	completed  metric.Int64Counter
	failed     metric.Int64Counter
	orderTotal metric.Float64Histogram
}

func newCheckoutMetrics(m metric.Meter) (checkoutMetrics, error) {
	if m == nil {
		return checkoutMetrics{}, nil
	}
	completed, err := m.Int64Counter("checkout.completed", metric.WithDescription("Number of orders created by checkout"))
	if err != nil {
		return checkoutMetrics{}, fmt.Errorf("checkout.completed counter: %w", err)
	}
	failed, err := m.Int64Counter("checkout.failed", metric.WithDescription("Number of rejected checkouts"))
	if err != nil {
		return checkoutMetrics{}, fmt.Errorf("checkout.failed counter: %w", err)
	}
	orderTotal, err := m.Float64Histogram("checkout.order_total", metric.WithDescription("Order total of completed checkouts"))
	if err != nil {
		return checkoutMetrics{}, fmt.Errorf("checkout.order_total histogram: %w", err)
	}
	return checkoutMetrics{completed: completed, failed: failed, orderTotal: orderTotal}, nil
}

func (m checkoutMetrics) recordCompleted(ctx context.Context, total float64) {
	if m.completed != nil {
		m.completed.Add(ctx, 1)
	}
	if m.orderTotal != nil {
		m.orderTotal.Record(ctx, total)
	}
}

func (m checkoutMetrics) recordFailed(ctx context.Context, reason string) {
	if m.failed != nil {
		m.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
