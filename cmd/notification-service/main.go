// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"txflow/internal/pkg/bootstrap"
	"txflow/internal/pkg/config"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/mq"
	"txflow/internal/service/order/domain"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-group"
)

var tracer = otel.Tracer(serviceName)

func main() {
	cfg, err := config.Load(getEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		logger.Ctx(context.Background()).Fatal().Err(err).Msg("failed to load config")
	}

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		RegisterHandlers: func(app *bootstrap.AppCtx) error {
			reader := mq.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic, consumerGroupID)
			ctx, cancel := context.WithCancel(context.Background())
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				consume(ctx, reader, cfg.Kafka.NotificationTopic)
			}()
			app.OnShutdown("notification consumer", func(context.Context) error {
				cancel()
				err := reader.Close()
				wg.Wait()
				return err
			})
			return nil
		},
	})
}

// consume 循环消费确认通知，直到 ctx 结束
func consume(ctx context.Context, reader *kafka.Reader, topic string) {
	logger.Ctx(ctx).Info().Str("topic", topic).Msg("✅ Notification Service started as a Kafka consumer")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Msg("🛑 Notification consumer shutting down.")
				return
			}
			logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
			time.Sleep(time.Second)
			continue
		}

		processNotification(msg)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Failed to commit notification")
		}
	}
}

// processNotification 处理从 Kafka 收到的单条消息
func processNotification(msg kafka.Message) {
	// 从消息头中提取追踪上下文，把投递链接到订单流程的链路上
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)
	ctx, span := tracer.Start(ctx, "notification-service.ProcessNotification",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		),
	)
	defer span.End()

	var event domain.OrderConfirmationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal notification")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(attribute.String("order.number", event.OrderNumber))

	logger.Ctx(ctx).Info().
		Str("event_id", event.EventID).
		Str("order", event.OrderNumber).
		Str("email", event.Email).
		Msg(event.Message)
	span.AddEvent("Notification sent successfully")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
