package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"shopapi/internal/domain/model"
	"shopapi/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type checkouterMock struct {
	mock.Mock
}

func (m *checkouterMock) Checkout(ctx context.Context, userID int64) (model.Order, error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func newInstrumented(t *testing.T, inner usecase.Checkouter) (*CheckoutService, *sdkmetric.ManualReader, *tracetest.SpanRecorder, *bytes.Buffer) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	buf := &bytes.Buffer{}

	svc, err := NewCheckoutService(inner,
		WithLogger(slog.New(slog.NewJSONHandler(buf, nil))),
		WithTracer(tp.Tracer("test")),
		WithMeter(mp.Meter("test")),
	)
	require.NoError(t, err)
	return svc, reader, recorder, buf
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestCheckoutService_RecordsSuccess(t *testing.T) {
	inner := new(checkouterMock)
	order := model.Order{ID: 3, UserID: 1, TotalPrice: decimal.RequireFromString("39.98"), Status: model.OrderStatusPending}
	inner.On("Checkout", mock.Anything, int64(1)).Return(order, nil).Once()

	svc, reader, recorder, buf := newInstrumented(t, inner)

	got, err := svc.Checkout(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
	assert.Equal(t, int64(1), counterValue(t, reader, "checkout.completed"))
	assert.Contains(t, buf.String(), "checkout completed")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Checkout", spans[0].Name())
	inner.AssertExpectations(t)
}

func TestCheckoutService_RecordsFailureReason(t *testing.T) {
	inner := new(checkouterMock)
	inner.On("Checkout", mock.Anything, int64(2)).Return(nil, usecase.ErrEmptyCart).Once()

	svc, reader, recorder, buf := newInstrumented(t, inner)

	_, err := svc.Checkout(context.Background(), 2)
	assert.ErrorIs(t, err, usecase.ErrEmptyCart)
	assert.Equal(t, int64(1), counterValue(t, reader, "checkout.failed"))
	assert.Contains(t, buf.String(), "empty_cart")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}

type brokenMeter struct {
	metricnoop.Meter
}

var errInstrument = errors.New("instrument rejected")

func (brokenMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errInstrument
}

func TestNewCheckoutService_InstrumentError(t *testing.T) {
	svc, err := NewCheckoutService(new(checkouterMock), WithMeter(brokenMeter{}))
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, errInstrument)
	assert.Contains(t, err.Error(), "checkout.completed")
}

func TestNewCheckoutService_Defaults(t *testing.T) {
	inner := new(checkouterMock)
	inner.On("Checkout", mock.Anything, int64(5)).Return(nil, usecase.ErrEmptyCart).Once()

	svc, err := NewCheckoutService(inner, nil, WithMeter(nil))
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), 5)
	assert.ErrorIs(t, err, usecase.ErrEmptyCart)
	inner.AssertExpectations(t)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "empty_cart", failureReason(usecase.ErrEmptyCart))
	assert.Equal(t, "product_missing", failureReason(&usecase.ProductMissingError{ProductID: 1}))
	assert.Equal(t, "insufficient_stock", failureReason(&usecase.InsufficientStockError{ProductID: 1}))
	assert.Equal(t, "error", failureReason(errors.New("db down")))
}
