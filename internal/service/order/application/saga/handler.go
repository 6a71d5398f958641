package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/logger"
	"txflow/internal/service/order/domain"
	"txflow/internal/service/order/port"
)

// CompensationObserver 接收每一次补偿的结果，通常是指标记录器
type CompensationObserver interface {
	Compensation(action string, err error)
}

type compensation struct {
	action string
	fn     func(ctx context.Context) error
}

// OrderContext 在 Saga 流程中传递上下文数据。
// 所有外部依赖都是端口接口。
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer

	InventoryService port.InventoryService
	PaymentGateway   port.PaymentGateway
	Notifier         port.Notifier
	Observer         CompensationObserver

	// 支付成功后由 PaymentHandler 写入
	PaymentRef string

	compensations []compensation
	compLock      sync.Mutex
}

// AddCompensation 把补偿压栈，TriggerCompensation 按后进先出执行
func (c *OrderContext) AddCompensation(action string, fn func(ctx context.Context) error) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]compensation{{action: action, fn: fn}}, c.compensations...)
}

// PendingCompensations 返回尚未执行的补偿动作名，顺序即执行顺序
func (c *OrderContext) PendingCompensations() []string {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	out := make([]string, 0, len(c.compensations))
	for _, comp := range c.compensations {
		out = append(out, comp.action)
	}
	return out
}

// TriggerCompensation 执行全部补偿。单个补偿失败只记录日志，不中断后续补偿。
// 返回失败的补偿数量。
func (c *OrderContext) TriggerCompensation(ctx context.Context) int {
	c.compLock.Lock()
	comps := c.compensations
	c.compensations = nil
	c.compLock.Unlock()

	logger.Ctx(ctx).Info().Str("order", c.Order.OrderNumber).Int("count", len(comps)).Msg("Executing compensation functions")
	failed := 0
	for _, comp := range comps {
		err := comp.fn(ctx)
		if err != nil {
			failed++
			logger.Ctx(ctx).Error().Err(err).Str("order", c.Order.OrderNumber).Str("action", comp.action).
				Msg("CRITICAL: compensation failed, manual intervention may be required")
		}
		if c.Observer != nil {
			c.Observer.Compensation(comp.action, err)
		}
	}
	return failed
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
