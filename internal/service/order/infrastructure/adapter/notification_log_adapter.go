package adapter

import (
	"context"

	"txflow/internal/pkg/logger"
)

// LogNotifier 只把通知写进日志，用于没有 Kafka 的环境
type LogNotifier struct{}

func (LogNotifier) SendOrderConfirmation(ctx context.Context, orderNumber, email string) error {
	logger.Ctx(ctx).Info().Str("order", orderNumber).Str("email", email).Msg("📧 Order confirmation delivered")
	return nil
}
