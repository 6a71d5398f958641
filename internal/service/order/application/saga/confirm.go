package saga

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/service/order/domain"
)

// ConfirmHandler 在独立事务里把订单置为 CONFIRMED。
// 只有提交成功后才更新 OrderContext 中的订单，失败时订单仍是 PENDING。
type ConfirmHandler struct {
	NextHandler
	repo domain.OrderRepository
	txm  domain.TxManager
}

func NewConfirmHandler(repo domain.OrderRepository, txm domain.TxManager) *ConfirmHandler {
	return &ConfirmHandler{repo: repo, txm: txm}
}

func (h *ConfirmHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ConfirmOrder")
	defer span.End()

	logger.Ctx(ctx).Info().Str("order", orderCtx.Order.OrderNumber).Msg("【Saga】=> 步骤 3: 确认订单...")

	confirmed := orderCtx.Order.Clone()
	if err := confirmed.Confirm(orderCtx.PaymentRef); err != nil {
		return err
	}
	err := h.txm.WithinTx(ctx, func(ctx context.Context) error {
		current, err := h.repo.FindWithLock(ctx, confirmed.OrderNumber)
		if err != nil {
			return err
		}
		// 别的处理者已经把订单推进到终态，不能覆盖
		if current.State.Terminal() {
			return apperr.ConcurrencyConflict("order %s is already %s", confirmed.OrderNumber, current.State)
		}
		return h.repo.Save(ctx, confirmed)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist confirmed order")
		return err
	}

	*orderCtx.Order = *confirmed
	span.AddEvent("Order confirmed")
	return h.executeNext(orderCtx)
}
