package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/httpclient"
)

const chargePath = "/charges"

// PaymentHTTPAdapter 调用外部支付网关，实现 port.PaymentGateway。
// 网关地址由 Resolver 提供（nacos 或静态配置）。
type PaymentHTTPAdapter struct {
	client      *httpclient.Client
	serviceName string
}

func NewPaymentHTTPAdapter(client *httpclient.Client, serviceName string) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client, serviceName: serviceName}
}

type ChargeRequest struct {
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
}

type ChargeResponse struct {
	PaymentID string `json:"payment_id"`
}

// Charge 402 视为拒付，其他失败一律视为网关不可用
func (a *PaymentHTTPAdapter) Charge(ctx context.Context, orderNumber string, amount decimal.Decimal) (string, error) {
	var out ChargeResponse
	err := a.client.CallService(ctx, a.serviceName, chargePath, ChargeRequest{OrderNumber: orderNumber, Amount: amount}, &out)
	if err == nil {
		if out.PaymentID == "" {
			return "", apperr.PaymentGatewayUnavailable("payment gateway returned no payment id for %s", orderNumber)
		}
		return out.PaymentID, nil
	}
	if apperr.KindOf(fromStatusError(err, "charge")) == apperr.KindPaymentDeclined {
		return "", apperr.Wrap(err, apperr.KindPaymentDeclined, "payment declined for %s", orderNumber)
	}
	return "", apperr.Wrap(err, apperr.KindPaymentGatewayUnavailable, "charge %s", orderNumber)
}
