// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/service/order/application/saga"
	"txflow/internal/service/order/domain"
	"txflow/internal/service/order/port"
)

// Options 控制订单处理过程中各个外部调用的超时
type Options struct {
	PaymentTimeout      time.Duration
	NotificationTimeout time.Duration
	// 整个 ProcessOrder 的上限，0 表示不限制
	ProcessingTimeout time.Duration
	Observer          saga.CompensationObserver
}

// OrderApplicationService 只关注业务流程编排。
// 每一步都在自己的事务里提交，失败时靠补偿回滚已完成的步骤。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	txm       domain.TxManager
	tracer    trace.Tracer

	inventoryService port.InventoryService
	paymentGateway   port.PaymentGateway
	notifier         port.Notifier
	guard            port.ProcessingGuard

	opts Options
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, txm domain.TxManager, tracer trace.Tracer, inventoryService port.InventoryService, paymentGateway port.PaymentGateway, notifier port.Notifier, guard port.ProcessingGuard, opts Options) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo: orderRepo, txm: txm, tracer: tracer,
		inventoryService: inventoryService, paymentGateway: paymentGateway,
		notifier: notifier, guard: guard, opts: opts,
	}
}

// CreateOrder 快照单价、计算总额并以 PENDING 状态落库
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, apperr.InvalidArgument("order must contain at least one item")
	}
	for _, it := range req.Items {
		if it.SKU == "" {
			return nil, apperr.InvalidArgument("item sku is required")
		}
		if it.Quantity <= 0 {
			return nil, apperr.InvalidArgument("quantity for %s must be positive, got %d", it.SKU, it.Quantity)
		}
	}

	merged := req.mergedItems()
	items := make([]domain.OrderItem, 0, len(merged))
	for _, it := range merged {
		price, err := s.inventoryService.UnitPrice(ctx, it.SKU)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to price item")
			return nil, err
		}
		items = append(items, domain.NewOrderItem(it.SKU, it.Quantity, price))
	}

	order, err := domain.NewOrder(domain.Customer{Name: req.CustomerName, Email: req.CustomerEmail}, items)
	if err != nil {
		return nil, err
	}
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		return s.orderRepo.Create(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save order")
		return nil, err
	}

	span.SetAttributes(attribute.String("order.number", order.OrderNumber), attribute.String("order.total", order.TotalAmount.String()))
	logger.Ctx(ctx).Info().Str("order", order.OrderNumber).Str("total", order.TotalAmount.String()).Msg("Order created")
	return order, nil
}

// ProcessOrder 依次执行 预占库存 -> 扣款 -> 确认 -> 通知。
// 预占或扣款失败时订单置为 FAILED，已预占的库存按相反顺序释放，返回最初的错误。
func (s *OrderApplicationService) ProcessOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.ProcessOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.number", orderNumber))

	release, err := s.guard.Acquire(ctx, orderNumber)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer release()

	order, err := s.orderRepo.Find(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.State.Terminal() {
		return nil, apperr.InvalidArgument("order %s is %s and cannot be processed", orderNumber, order.State)
	}

	processingCtx, cancel := s.processingContext(ctx)
	defer cancel()

	orderContext := &saga.OrderContext{
		Ctx:              processingCtx,
		Order:            order,
		Tracer:           s.tracer,
		InventoryService: s.inventoryService,
		PaymentGateway:   s.paymentGateway,
		Notifier:         s.notifier,
		Observer:         s.opts.Observer,
	}

	logger.Ctx(ctx).Info().Str("order", orderNumber).Msg("Starting order processing")

	if err := s.buildChain().Handle(orderContext); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", orderNumber).Msg("Order processing chain failed. SAGA compensation triggered.")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Order processing failed in chain")

		// 处理超时后仍然要落库和补偿
		cleanupCtx := context.WithoutCancel(ctx)
		order.MarkAsFailed()
		if updateErr := s.saveState(cleanupCtx, order); updateErr != nil {
			logger.Ctx(ctx).Error().Err(updateErr).Str("order", orderNumber).Msg("CRITICAL: Failed to update order status to FAILED")
			span.RecordError(updateErr, trace.WithAttributes(attribute.Bool("critical.error", true)))
		}
		orderContext.TriggerCompensation(cleanupCtx)
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("order", orderNumber).Str("payment_ref", order.PaymentReference).Msg("SUCCESS: Order confirmed")
	span.AddEvent("Order successfully processed")
	return order, nil
}

func (s *OrderApplicationService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.orderRepo.Find(ctx, orderNumber)
}

func (s *OrderApplicationService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.FindAll(ctx)
}

// saveState 在行锁下写入订单状态，已处于终态的订单不会被覆盖
func (s *OrderApplicationService) saveState(ctx context.Context, order *domain.Order) error {
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.orderRepo.FindWithLock(ctx, order.OrderNumber)
		if err != nil {
			return err
		}
		if current.State.Terminal() {
			return apperr.ConcurrencyConflict("order %s is already %s", order.OrderNumber, current.State)
		}
		return s.orderRepo.Save(ctx, order)
	})
}

func (s *OrderApplicationService) processingContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.ProcessingTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.ProcessingTimeout)
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	chain := new(saga.InventoryHandler)
	chain.
		SetNext(saga.NewPaymentHandler(s.opts.PaymentTimeout)).
		SetNext(saga.NewConfirmHandler(s.orderRepo, s.txm)).
		SetNext(saga.NewNotificationHandler(s.opts.NotificationTimeout))
	return chain
}
