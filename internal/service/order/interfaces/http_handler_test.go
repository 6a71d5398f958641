package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"txflow/internal/pkg/memdb"
	invapp "txflow/internal/service/inventory/application"
	invinfra "txflow/internal/service/inventory/infrastructure"
	"txflow/internal/service/order/application"
	"txflow/internal/service/order/infrastructure"
	"txflow/internal/service/order/infrastructure/adapter"
)

type stubEnqueuer struct{ enqueued []string }

func (s *stubEnqueuer) Enqueue(_ context.Context, orderNumber string) (string, error) {
	s.enqueued = append(s.enqueued, orderNumber)
	return "evt-1", nil
}

func newOrderService(t *testing.T, declineAbove int64) application.OrderService {
	t.Helper()
	tracer := noop.NewTracerProvider().Tracer("test")
	db := memdb.New(time.Second)
	inv := invapp.NewInventoryApplicationService(invinfra.NewMemoryProductRepository(db), db, tracer)
	_, err := inv.CreateProduct(context.Background(), &invapp.CreateProductRequest{SKU: "X1", Name: "widget", Price: decimal.NewFromInt(40), StockQuantity: 3})
	require.NoError(t, err)

	return application.NewOrderApplicationService(
		infrastructure.NewMemoryOrderRepository(db), db, tracer,
		adapter.NewInventoryLocalAdapter(inv),
		adapter.NewFakePaymentGateway(decimal.NewFromInt(declineAbove)),
		adapter.LogNotifier{},
		adapter.NewMemoryGuard(),
		application.Options{PaymentTimeout: time.Second, NotificationTimeout: time.Second},
	)
}

func serve(mux *http.ServeMux, method, path, body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestOrderHTTPFlow(t *testing.T) {
	enq := &stubEnqueuer{}
	svc := application.Decorate(newOrderService(t, 100),
		application.WithAuth(map[string]string{"secret": "checkout"}),
		application.WithValidation(nil),
	)
	mux := http.NewServeMux()
	NewOrderHandler(svc, enq).RegisterRoutes(mux)

	body := `{"customer_name":"Ann","customer_email":"ann@example.com","items":[{"sku":"X1","quantity":2}]}`
	rec := serve(mux, http.MethodPost, "/orders", body, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(mux, http.MethodPost, "/orders", body, "secret")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "PENDING", created.Status)
	assert.True(t, decimal.NewFromInt(80).Equal(created.TotalAmount))

	rec = serve(mux, http.MethodPost, "/orders/"+created.OrderNumber+"/process-async", "", "secret")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, []string{created.OrderNumber}, enq.enqueued)

	rec = serve(mux, http.MethodPost, "/orders/"+created.OrderNumber+"/process", "", "secret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var processed orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &processed))
	assert.Equal(t, "CONFIRMED", processed.Status)
	assert.NotEmpty(t, processed.PaymentReference)

	rec = serve(mux, http.MethodPost, "/orders/"+created.OrderNumber+"/process", "", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(mux, http.MethodPost, "/orders/"+created.OrderNumber+"/process-async", "", "secret")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodGet, "/orders", "", "secret")
	var list []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = serve(mux, http.MethodGet, "/orders/ORD-00000000", "", "secret")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderHTTPErrorMapping(t *testing.T) {
	mux := http.NewServeMux()
	NewOrderHandler(newOrderService(t, 50), nil).RegisterRoutes(mux)

	rec := serve(mux, http.MethodPost, "/orders", `{"items":[{"sku":"X1","quantity":5}]}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var tooMany orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tooMany))
	rec = serve(mux, http.MethodPost, "/orders/"+tooMany.OrderNumber+"/process", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(mux, http.MethodPost, "/orders", `{"items":[{"sku":"X1","quantity":2}]}`, "")
	var pricey orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pricey))
	rec = serve(mux, http.MethodPost, "/orders/"+pricey.OrderNumber+"/process", "", "")
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = serve(mux, http.MethodGet, "/orders/"+pricey.OrderNumber, "", "")
	var failed orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.Equal(t, "FAILED", failed.Status)

	rec = serve(mux, http.MethodPost, "/orders", `{"items":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(mux, http.MethodPost, "/orders", `{"items":[{"sku":"NOPE","quantity":1}]}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 未配置异步处理时不注册该路由
	rec = serve(mux, http.MethodPost, "/orders/"+pricey.OrderNumber+"/process-async", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
