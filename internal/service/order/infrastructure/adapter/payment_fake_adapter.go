package adapter

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
)

// FakePaymentGateway 是本地运行用的支付网关。
// 金额超过 declineAbove 时拒付，declineAbove 为零表示全部通过。
type FakePaymentGateway struct {
	declineAbove decimal.Decimal
}

func NewFakePaymentGateway(declineAbove decimal.Decimal) *FakePaymentGateway {
	return &FakePaymentGateway{declineAbove: declineAbove}
}

func (g *FakePaymentGateway) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.Wrap(err, apperr.KindPaymentGatewayUnavailable, "charge %s", orderNumber)
	}
	if g.declineAbove.IsPositive() && amount.GreaterThan(g.declineAbove) {
		return "", apperr.PaymentDeclined("amount %s exceeds limit %s", amount, g.declineAbove)
	}
	ref := "PAY-" + strings.ToUpper(uuid.NewString()[:12])
	logger.Ctx(ctx).Info().Str("order", orderNumber).Str("amount", amount.String()).Str("payment_ref", ref).Msg("Fake payment charged")
	return ref, nil
}
