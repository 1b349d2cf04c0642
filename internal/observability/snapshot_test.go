package observability

import (
	"context"
	"net/http"
	"testing"
	"time"

	"shopapi/internal/domain/model"
	"shopapi/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newManualInstruments() *Instruments {
	reader := sdkmetric.NewManualReader()
	return &Instruments{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
		Started:       time.Now().Add(-time.Minute),
	}
}

func TestSnapshot_AggregatesRequestsAndCheckouts(t *testing.T) {
	ctx := context.Background()
	inst := newManualInstruments()

	hm, err := NewHTTPMetrics(inst.Meter("http"))
	require.NoError(t, err)
	hm.Record(ctx, http.MethodGet, "/products", http.StatusOK, 10*time.Millisecond)
	hm.Record(ctx, http.MethodGet, "/products", http.StatusOK, 30*time.Millisecond)
	hm.Record(ctx, http.MethodPost, "/orders/checkout", http.StatusInternalServerError, 20*time.Millisecond)

	inner := new(checkouterMock)
	inner.On("Checkout", mock.Anything, int64(1)).Return(model.Order{ID: 1, TotalPrice: decimal.RequireFromString("10.00")}, nil).Once()
	inner.On("Checkout", mock.Anything, int64(2)).Return(nil, usecase.ErrEmptyCart).Once()
	svc, err := NewCheckoutService(inner, WithMeter(inst.Meter("checkout")))
	require.NoError(t, err)
	_, _ = svc.Checkout(ctx, 1)
	_, _ = svc.Checkout(ctx, 2)

	snap, err := inst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.Equal(t, map[string]int64{"200": 2, "500": 1}, snap.StatusCodes)
	assert.Equal(t, map[string]int64{"/products": 2, "/orders/checkout": 1}, snap.EndpointsHit)
	assert.InDelta(t, 20.0, snap.AvgResponseTimeMS, 0.01)
	assert.Equal(t, int64(1), snap.CheckoutsCompleted)
	assert.Equal(t, int64(1), snap.CheckoutsFailed)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 60.0)
}

func TestSnapshot_Empty(t *testing.T) {
	snap, err := newManualInstruments().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.TotalRequests)
	assert.Zero(t, snap.AvgResponseTimeMS)
	assert.Empty(t, snap.StatusCodes)
}

func TestSnapshot_WithoutReader(t *testing.T) {
	_, err := (&Instruments{}).Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoMetricsReader)

	var nilInst *Instruments
	_, err = nilInst.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoMetricsReader)
}

func TestNewHTTPMetrics_InstrumentError(t *testing.T) {
	hm, err := NewHTTPMetrics(brokenMeter{})
	assert.Nil(t, hm)
	assert.ErrorIs(t, err, errInstrument)
	assert.Contains(t, err.Error(), "http.server.requests")
}
