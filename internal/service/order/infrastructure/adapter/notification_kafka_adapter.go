package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/mq"
	"txflow/internal/service/order/domain"
)

// NotificationKafkaAdapter 实现了 port.Notifier 接口，把确认通知写入 Kafka。
type NotificationKafkaAdapter struct {
	writer mq.MessageWriter
}

func NewNotificationKafkaAdapter(writer mq.MessageWriter) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer}
}

func (a *NotificationKafkaAdapter) SendOrderConfirmation(ctx context.Context, orderNumber, email string) error {
	event := domain.OrderConfirmationEvent{
		EventID:     uuid.NewString(),
		OrderNumber: orderNumber,
		Email:       email,
		Message:     fmt.Sprintf("Your order %s has been confirmed.", orderNumber),
		OccurredAt:  time.Now(),
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return apperr.Wrap(err, apperr.KindDeliveryFailure, "marshal notification for %s", orderNumber)
	}

	// mq.ProduceMessage 会自动注入追踪上下文
	if err := mq.ProduceMessage(ctx, a.writer, []byte(orderNumber), eventBytes); err != nil {
		return apperr.Wrap(err, apperr.KindDeliveryFailure, "publish notification for %s", orderNumber)
	}
	return nil
}

// Close 关闭底层的 Kafka writer
func (a *NotificationKafkaAdapter) Close() error {
	if c, ok := a.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
