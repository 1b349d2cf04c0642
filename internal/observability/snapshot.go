package observability

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// /metrics で返す集計値
type MetricsSnapshot struct {
	UptimeSeconds      float64          `json:"uptime_seconds"`
	StartTime          time.Time        `json:"start_time"`
	TotalRequests      int64            `json:"total_requests"`
	ErrorCount         int64            `json:"error_count"`
	AvgResponseTimeMS  float64          `json:"avg_response_time_ms"`
	StatusCodes        map[string]int64 `json:"status_codes"`
	EndpointsHit       map[string]int64 `json:"endpoints_hit"`
	CheckoutsCompleted int64            `json:"checkouts_completed"`
	CheckoutsFailed    int64            `json:"checkouts_failed"`
}

var ErrNoMetricsReader = errors.New("metrics reader not configured")

// ManualReaderから今の累積値を集める。5xxをエラーとして数える
func (i *Instruments) Snapshot(ctx context.Context) (MetricsSnapshot, error) {
	if i == nil || i.Reader == nil {
		return MetricsSnapshot{}, ErrNoMetricsReader
	}
	var rm metricdata.ResourceMetrics
	if err := i.Reader.Collect(ctx, &rm); err != nil {
		return MetricsSnapshot{}, err
	}

	snap := MetricsSnapshot{
		StartTime:    i.Started,
		StatusCodes:  map[string]int64{},
		EndpointsHit: map[string]int64{},
	}
	if !i.Started.IsZero() {
		snap.UptimeSeconds = time.Since(i.Started).Seconds()
	}

	var durationSum float64
	var durationCount uint64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case httpRequestsMetric:
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					continue
				}
				for _, dp := range sum.DataPoints {
					snap.TotalRequests += dp.Value
					status := attrInt(dp.Attributes, "http.status_code")
					if status >= 500 {
						snap.ErrorCount += dp.Value
					}
					snap.StatusCodes[strconv.FormatInt(status, 10)] += dp.Value
					if route, ok := dp.Attributes.Value("http.route"); ok {
						snap.EndpointsHit[route.AsString()] += dp.Value
					}
				}
			case httpDurationMetric:
				hist, ok := m.Data.(metricdata.Histogram[float64])
				if !ok {
					continue
				}
				for _, dp := range hist.DataPoints {
					durationSum += dp.Sum
					durationCount += dp.Count
				}
			case "checkout.completed":
				snap.CheckoutsCompleted += sumInt64(m.Data)
			case "checkout.failed":
				snap.CheckoutsFailed += sumInt64(m.Data)
			}
		}
	}
	if durationCount > 0 {
		snap.AvgResponseTimeMS = math.Round(durationSum/float64(durationCount)*100) / 100
	}
	return snap, nil
}

func sumInt64(data metricdata.Aggregation) int64 {
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func attrInt(set attribute.Set, key attribute.Key) int64 {
	v, ok := set.Value(key)
	if !ok {
		return 0
	}
	return v.AsInt64()
}
