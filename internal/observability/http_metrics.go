package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	httpRequestsMetric = "http.server.requests"
	httpDurationMetric = "http.server.duration"
)

// HTTPMetrics はリクエスト数と処理時間(ms)を記録する
type HTTPMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func NewHTTPMetrics(m metric.Meter) (*HTTPMetrics, error) {
	requests, err := m.Int64Counter(httpRequestsMetric, metric.WithDescription("Number of handled HTTP requests"))
	if err != nil {
		return nil, fmt.Errorf("%s counter: %w", httpRequestsMetric, err)
	}
	duration, err := m.Float64Histogram(httpDurationMetric,
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("%s histogram: %w", httpDurationMetric, err)
	}
	return &HTTPMetrics{requests: requests, duration: duration}, nil
}

func (h *HTTPMetrics) Record(ctx context.Context, method string, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	h.requests.Add(ctx, 1, attrs)
	h.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
