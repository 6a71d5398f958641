package saga

import (
	"time"

	"go.opentelemetry.io/otel/attribute"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
)

// NotificationHandler 是 Saga 流程的最后一步，负责发送确认通知。
// 通知失败不影响订单状态，只记录警告。
type NotificationHandler struct {
	NextHandler
	timeout time.Duration
}

func NewNotificationHandler(timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{timeout: timeout}
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(attribute.String("order.number", order.OrderNumber))
	logger.Ctx(ctx).Info().Str("order", order.OrderNumber).Msg("【Saga】=> 步骤 Final: 发送订单确认通知...")

	notifyCtx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	if err := orderCtx.Notifier.SendOrderConfirmation(notifyCtx, order.OrderNumber, order.Customer.Email); err != nil {
		if apperr.IsTimeout(err) {
			err = apperr.Wrap(err, apperr.KindDeliveryFailure, "notification timed out")
		}
		logger.Ctx(ctx).Warn().Err(err).Str("order", order.OrderNumber).Msg("Failed to send order confirmation")
		span.RecordError(err)
	} else {
		span.AddEvent("Confirmation sent")
	}

	return h.executeNext(orderCtx)
}
