package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentGateway 是外部支付网关的出站端口。
// 失败时返回 PaymentDeclined 或 PaymentGatewayUnavailable。
type PaymentGateway interface {
	Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) (paymentRef string, err error)
}
