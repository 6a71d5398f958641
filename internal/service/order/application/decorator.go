package application

import (
	"context"
	"strings"
	"time"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/metrics"
	"txflow/internal/service/order/domain"
)

// OrderService 是订单用例的入口，接口层和装饰器都依赖它
type OrderService interface {
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error)
	ProcessOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

var _ OrderService = (*OrderApplicationService)(nil)

type Decorator func(OrderService) OrderService

// Decorate 依次套上装饰器，第一个在最外层
func Decorate(svc OrderService, decorators ...Decorator) OrderService {
	for i := len(decorators) - 1; i >= 0; i-- {
		svc = decorators[i](svc)
	}
	return svc
}

// ---- logging ----

type loggingService struct{ next OrderService }

func WithLogging() Decorator {
	return func(next OrderService) OrderService { return &loggingService{next: next} }
}

func logCall[T any](ctx context.Context, method string, fn func() (T, error)) (T, error) {
	l := logger.Ctx(ctx)
	l.Debug().Str("method", method).Msg("Entering method")
	started := time.Now()
	out, err := fn()
	if err != nil {
		l.Warn().Err(err).Str("method", method).Str("kind", string(apperr.KindOf(err))).Dur("elapsed", time.Since(started)).Msg("Method failed")
		return out, err
	}
	l.Debug().Str("method", method).Dur("elapsed", time.Since(started)).Msg("Exiting method")
	return out, nil
}

func (s *loggingService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	return logCall(ctx, "CreateOrder", func() (*domain.Order, error) { return s.next.CreateOrder(ctx, req) })
}

func (s *loggingService) ProcessOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return logCall(ctx, "ProcessOrder", func() (*domain.Order, error) { return s.next.ProcessOrder(ctx, orderNumber) })
}

func (s *loggingService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return logCall(ctx, "GetOrder", func() (*domain.Order, error) { return s.next.GetOrder(ctx, orderNumber) })
}

func (s *loggingService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return logCall(ctx, "ListOrders", func() ([]*domain.Order, error) { return s.next.ListOrders(ctx) })
}

// ---- timing ----

type timingService struct {
	next     OrderService
	recorder *metrics.Recorder
}

// WithTiming 把每次调用的耗时和结果写入 prometheus
func WithTiming(recorder *metrics.Recorder) Decorator {
	return func(next OrderService) OrderService { return &timingService{next: next, recorder: recorder} }
}

func (s *timingService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (o *domain.Order, err error) {
	defer func(started time.Time) { s.recorder.Observe("order.CreateOrder", started, err) }(time.Now())
	return s.next.CreateOrder(ctx, req)
}

func (s *timingService) ProcessOrder(ctx context.Context, orderNumber string) (o *domain.Order, err error) {
	defer func(started time.Time) { s.recorder.Observe("order.ProcessOrder", started, err) }(time.Now())
	return s.next.ProcessOrder(ctx, orderNumber)
}

func (s *timingService) GetOrder(ctx context.Context, orderNumber string) (o *domain.Order, err error) {
	defer func(started time.Time) { s.recorder.Observe("order.GetOrder", started, err) }(time.Now())
	return s.next.GetOrder(ctx, orderNumber)
}

func (s *timingService) ListOrders(ctx context.Context) (o []*domain.Order, err error) {
	defer func(started time.Time) { s.recorder.Observe("order.ListOrders", started, err) }(time.Now())
	return s.next.ListOrders(ctx)
}

// ---- authorization ----

type apiKeyCtxKey struct{}
type principalCtxKey struct{}

// WithAPIKey 把调用方携带的 API key 放进 context，由接口层调用
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyCtxKey{}, key)
}

// PrincipalFrom 返回鉴权通过后的调用方名称
func PrincipalFrom(ctx context.Context) string {
	p, _ := ctx.Value(principalCtxKey{}).(string)
	return p
}

type authService struct {
	next OrderService
	keys map[string]string
}

// WithAuth 要求 context 中带有已登记的 API key，否则返回 Unauthorized
func WithAuth(keys map[string]string) Decorator {
	return func(next OrderService) OrderService { return &authService{next: next, keys: keys} }
}

func (s *authService) authorize(ctx context.Context, method string) (context.Context, error) {
	key, _ := ctx.Value(apiKeyCtxKey{}).(string)
	if key == "" {
		return ctx, apperr.Unauthorized("%s requires an API key", method)
	}
	principal, ok := s.keys[key]
	if !ok {
		return ctx, apperr.Unauthorized("API key is not allowed to call %s", method)
	}
	return context.WithValue(ctx, principalCtxKey{}, principal), nil
}

func (s *authService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, err := s.authorize(ctx, "CreateOrder")
	if err != nil {
		return nil, err
	}
	return s.next.CreateOrder(ctx, req)
}

func (s *authService) ProcessOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	ctx, err := s.authorize(ctx, "ProcessOrder")
	if err != nil {
		return nil, err
	}
	return s.next.ProcessOrder(ctx, orderNumber)
}

func (s *authService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	ctx, err := s.authorize(ctx, "GetOrder")
	if err != nil {
		return nil, err
	}
	return s.next.GetOrder(ctx, orderNumber)
}

func (s *authService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	ctx, err := s.authorize(ctx, "ListOrders")
	if err != nil {
		return nil, err
	}
	return s.next.ListOrders(ctx)
}

// ---- validation ----

type validationService struct {
	next   OrderService
	policy *Policy
}

// WithValidation 校验订单号格式，并对下单请求执行 CEL 规则。policy 可以为 nil。
func WithValidation(policy *Policy) Decorator {
	return func(next OrderService) OrderService { return &validationService{next: next, policy: policy} }
}

func validOrderNumber(orderNumber string) error {
	if !strings.HasPrefix(orderNumber, "ORD-") || len(orderNumber) <= len("ORD-") {
		return apperr.InvalidArgument("malformed order number %q", orderNumber)
	}
	return nil
}

func (s *validationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	if req == nil {
		return nil, apperr.InvalidArgument("request is required")
	}
	if s.policy != nil {
		if err := s.policy.Check(req); err != nil {
			return nil, err
		}
	}
	return s.next.CreateOrder(ctx, req)
}

func (s *validationService) ProcessOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if err := validOrderNumber(orderNumber); err != nil {
		return nil, err
	}
	return s.next.ProcessOrder(ctx, orderNumber)
}

func (s *validationService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if err := validOrderNumber(orderNumber); err != nil {
		return nil, err
	}
	return s.next.GetOrder(ctx, orderNumber)
}

func (s *validationService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.next.ListOrders(ctx)
}
