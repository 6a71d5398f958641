package adapter

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/mq"
	"txflow/internal/service/order/domain"
)

// ProcessRequestProducer 把“处理订单”请求写入 Kafka，由消费者异步执行
type ProcessRequestProducer struct {
	writer mq.MessageWriter
}

func NewProcessRequestProducer(writer mq.MessageWriter) *ProcessRequestProducer {
	return &ProcessRequestProducer{writer: writer}
}

// Enqueue 以订单号为 key，同一订单的请求落在同一分区
func (p *ProcessRequestProducer) Enqueue(ctx context.Context, orderNumber string) (string, error) {
	event := domain.OrderProcessRequested{EventID: uuid.NewString(), OrderNumber: orderNumber}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	if err := mq.ProduceMessage(ctx, p.writer, []byte(orderNumber), eventBytes); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", orderNumber).Msg("Failed to produce process request")
		return "", err
	}
	return event.EventID, nil
}
