package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/httpclient"
	"txflow/internal/pkg/memdb"
	"txflow/internal/pkg/redis"
	invapp "txflow/internal/service/inventory/application"
	invinfra "txflow/internal/service/inventory/infrastructure"
	invif "txflow/internal/service/inventory/interfaces"
	"txflow/internal/service/order/domain"
)

var tracer = noop.NewTracerProvider().Tracer("test")

func TestMemoryGuardRejectsConcurrentHolder(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	release, err := g.Acquire(ctx, "ORD-1")
	require.NoError(t, err)

	_, err = g.Acquire(ctx, "ORD-1")
	assert.True(t, apperr.IsKind(err, apperr.KindConcurrencyConflict))

	other, err := g.Acquire(ctx, "ORD-2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := g.Acquire(ctx, "ORD-1")
	require.NoError(t, err)
	again()
}

func TestPaymentHTTPAdapterClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		delay  time.Duration
		want   apperr.Kind
	}{
		{"ok", http.StatusOK, 0, ""},
		{"declined", http.StatusPaymentRequired, 0, apperr.KindPaymentDeclined},
		{"server error", http.StatusInternalServerError, 0, apperr.KindPaymentGatewayUnavailable},
		{"timeout", http.StatusOK, 200 * time.Millisecond, apperr.KindPaymentGatewayUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.delay > 0 {
					select {
					case <-time.After(tc.delay):
					case <-r.Context().Done():
						return
					}
				}
				if tc.status != http.StatusOK {
					http.Error(w, "nope", tc.status)
					return
				}
				var req ChargeRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				_ = json.NewEncoder(w).Encode(ChargeResponse{PaymentID: "PAY-" + req.OrderNumber})
			}))
			defer srv.Close()

			gw := NewPaymentHTTPAdapter(httpclient.NewClient(tracer, httpclient.StaticResolver(srv.URL)), "payment-gateway")
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			ref, err := gw.Charge(ctx, "ORD-1", decimal.NewFromInt(10))
			if tc.want == "" {
				require.NoError(t, err)
				assert.Equal(t, "PAY-ORD-1", ref)
				return
			}
			assert.Equal(t, tc.want, apperr.KindOf(err))
		})
	}
}

func TestInventoryHTTPAdapterAgainstInventoryService(t *testing.T) {
	db := memdb.New(time.Second)
	svc := invapp.NewInventoryApplicationService(invinfra.NewMemoryProductRepository(db), db, tracer)
	_, err := svc.CreateProduct(context.Background(), &invapp.CreateProductRequest{SKU: "X1", Name: "w", Price: decimal.RequireFromString("2.50"), StockQuantity: 2})
	require.NoError(t, err)

	mux := http.NewServeMux()
	invif.NewInventoryHandler(svc).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewInventoryHTTPAdapter(httpclient.NewClient(tracer, httpclient.StaticResolver(srv.URL)), "inventory-service")
	ctx := context.Background()

	price, err := a.UnitPrice(ctx, "X1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(price))

	require.NoError(t, a.Reserve(ctx, "X1", 2))
	assert.True(t, apperr.IsKind(a.Reserve(ctx, "X1", 1), apperr.KindInsufficientStock))
	require.NoError(t, a.Release(ctx, "X1", 2))

	_, err = a.UnitPrice(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestNotificationKafkaAdapter(t *testing.T) {
	w := &captureWriter{}
	n := NewNotificationKafkaAdapter(w)
	require.NoError(t, n.SendOrderConfirmation(context.Background(), "ORD-1", "a@b.c"))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ORD-1", string(w.msgs[0].Key))

	var ev domain.OrderConfirmationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, "a@b.c", ev.Email)
	assert.NoError(t, n.Close())

	w.err = errors.New("broker down")
	err := n.SendOrderConfirmation(context.Background(), "ORD-2", "a@b.c")
	assert.True(t, apperr.IsKind(err, apperr.KindDeliveryFailure))
}

func TestFakePaymentGatewayDeclineLimit(t *testing.T) {
	gw := NewFakePaymentGateway(decimal.NewFromInt(100))
	ref, err := gw.Charge(context.Background(), "ORD-1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	_, err = gw.Charge(context.Background(), "ORD-1", decimal.RequireFromString("100.01"))
	assert.True(t, apperr.IsKind(err, apperr.KindPaymentDeclined))
}

func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	defer rdb.Close()

	g, err := NewRedisGuard(redis.NewFromUniversal(rdb), 5*time.Second)
	require.NoError(t, err)

	order := "ORD-" + time.Now().Format("150405.000")
	release, err := g.Acquire(ctx, order)
	require.NoError(t, err)

	_, err = g.Acquire(ctx, order)
	assert.True(t, apperr.IsKind(err, apperr.KindConcurrencyConflict))

	release()
	again, err := g.Acquire(ctx, order)
	require.NoError(t, err)
	again()
}
