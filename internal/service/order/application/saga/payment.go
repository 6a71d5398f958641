package saga

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
)

// PaymentHandler 在超时控制下调用支付网关。
// 超时和无法归类的错误统一视为网关不可用。
type PaymentHandler struct {
	NextHandler
	timeout time.Duration
}

func NewPaymentHandler(timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{timeout: timeout}
}

func (h *PaymentHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Payment")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(attribute.String("order.number", order.OrderNumber), attribute.String("order.amount", order.TotalAmount.String()))
	logger.Ctx(ctx).Info().Str("order", order.OrderNumber).Str("amount", order.TotalAmount.String()).Msg("【Saga】=> 步骤 2: 扣款...")

	chargeCtx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	ref, err := orderCtx.PaymentGateway.Charge(chargeCtx, order.OrderNumber, order.TotalAmount)
	if err != nil {
		err = classifyPaymentError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Payment failed")
		return err
	}

	orderCtx.PaymentRef = ref
	span.AddEvent("Payment charged", trace.WithAttributes(attribute.String("payment.ref", ref)))
	return h.executeNext(orderCtx)
}

func classifyPaymentError(err error) error {
	if apperr.IsTimeout(err) {
		return apperr.Wrap(err, apperr.KindPaymentGatewayUnavailable, "payment gateway timed out")
	}
	switch apperr.KindOf(err) {
	case apperr.KindPaymentDeclined, apperr.KindPaymentGatewayUnavailable:
		return err
	}
	return apperr.Wrap(err, apperr.KindPaymentGatewayUnavailable, "payment gateway call failed")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func traceAttrs(sku string, qty int) trace.EventOption {
	return trace.WithAttributes(attribute.String("sku", sku), attribute.Int("quantity", qty))
}
