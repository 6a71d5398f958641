package port

import "context"

// Notifier 是通知服务的出站端口，失败时返回 DeliveryFailure。
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, orderNumber, email string) error
}
