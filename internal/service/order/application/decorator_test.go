package application

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/metrics"
	"txflow/internal/service/order/domain"
)

// spyService 记录被调用的方法和收到的 context
type spyService struct {
	calls   []string
	lastCtx context.Context
	err     error
}

func (s *spyService) CreateOrder(ctx context.Context, _ *CreateOrderRequest) (*domain.Order, error) {
	s.calls, s.lastCtx = append(s.calls, "CreateOrder"), ctx
	return &domain.Order{}, s.err
}

func (s *spyService) ProcessOrder(ctx context.Context, _ string) (*domain.Order, error) {
	s.calls, s.lastCtx = append(s.calls, "ProcessOrder"), ctx
	return &domain.Order{}, s.err
}

func (s *spyService) GetOrder(ctx context.Context, _ string) (*domain.Order, error) {
	s.calls, s.lastCtx = append(s.calls, "GetOrder"), ctx
	return &domain.Order{}, s.err
}

func (s *spyService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	s.calls, s.lastCtx = append(s.calls, "ListOrders"), ctx
	return nil, s.err
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{CustomerName: "Ann", CustomerEmail: "ann@example.com", Items: []OrderItemRequest{{SKU: "A", Quantity: 1}}}
}

func TestAuthDecorator(t *testing.T) {
	spy := &spyService{}
	svc := Decorate(spy, WithAuth(map[string]string{"k-1": "checkout"}))

	_, err := svc.ListOrders(context.Background())
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = svc.GetOrder(WithAPIKey(context.Background(), "wrong"), "ORD-1")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))
	assert.Empty(t, spy.calls)

	_, err = svc.ProcessOrder(WithAPIKey(context.Background(), "k-1"), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ProcessOrder"}, spy.calls)
	assert.Equal(t, "checkout", PrincipalFrom(spy.lastCtx))
}

func TestValidationDecorator(t *testing.T) {
	policy, err := NewPolicy([]string{`customer_email.contains("@")`, `total_quantity <= 10`})
	require.NoError(t, err)
	spy := &spyService{}
	svc := Decorate(spy, WithValidation(policy))
	ctx := context.Background()

	_, err = svc.GetOrder(ctx, "12345")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
	_, err = svc.ProcessOrder(ctx, "ORD-")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	req := validRequest()
	req.CustomerEmail = "not-an-email"
	_, err = svc.CreateOrder(ctx, req)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	req = validRequest()
	req.Items = []OrderItemRequest{{SKU: "A", Quantity: 6}, {SKU: "B", Quantity: 5}}
	_, err = svc.CreateOrder(ctx, req)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
	assert.Empty(t, spy.calls)

	_, err = svc.CreateOrder(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.ProcessOrder(ctx, "ORD-1a2b3c4d")
	require.NoError(t, err)
	assert.Equal(t, []string{"CreateOrder", "ProcessOrder"}, spy.calls)
}

func TestPolicyRejectsBadRules(t *testing.T) {
	_, err := NewPolicy([]string{`item_count >`})
	assert.Error(t, err)

	p, err := NewPolicy([]string{`customer_name`})
	require.NoError(t, err)
	assert.True(t, apperr.IsKind(p.Check(validRequest()), apperr.KindInvalidArgument))

	empty, err := NewPolicy(nil)
	require.NoError(t, err)
	assert.NoError(t, empty.Check(validRequest()))
}

func TestTimingDecoratorFeedsRecorder(t *testing.T) {
	recorder := metrics.NewRecorder("test", prometheus.NewRegistry())
	spy := &spyService{}
	svc := Decorate(spy, WithTiming(recorder), WithLogging())

	_, _ = svc.GetOrder(context.Background(), "ORD-1")
	spy.err = apperr.PaymentGatewayUnavailable("down")
	_, _ = svc.ProcessOrder(context.Background(), "ORD-1")
	spy.err = apperr.NotFound("missing")
	_, _ = svc.GetOrder(context.Background(), "ORD-2")

	requests, errs := recorder.Counts()
	assert.Equal(t, int64(3), requests)
	assert.Equal(t, int64(1), errs)
}

func TestDecorateOrder(t *testing.T) {
	spy := &spyService{}
	// 鉴权在最外层，非法订单号也先得到 Unauthorized
	svc := Decorate(spy, WithAuth(map[string]string{"k": "p"}), WithValidation(nil))
	_, err := svc.GetOrder(context.Background(), "bad")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthorized))

	_, err = svc.GetOrder(WithAPIKey(context.Background(), "k"), "bad")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}
