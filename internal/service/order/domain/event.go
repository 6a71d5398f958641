// internal/service/order/domain/event.go
package domain

import "time"

// OrderConfirmationEvent 是发往通知主题的消息体
type OrderConfirmationEvent struct {
	EventID     string    `json:"eventId"`
	OrderNumber string    `json:"orderNumber"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// OrderProcessRequested 驱动异步处理订单，由 Kafka 消费者接收
type OrderProcessRequested struct {
	EventID     string `json:"eventId"`
	OrderNumber string `json:"orderNumber"`
}
