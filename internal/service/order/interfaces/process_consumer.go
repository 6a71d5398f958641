package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
	"txflow/internal/pkg/mq"
	"txflow/internal/service/order/application"
	"txflow/internal/service/order/domain"
)

// MessageReader 是 kafka.Reader 的最小接口
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderProcessConsumer 是一个驱动适配器，它监听 Kafka 消息并驱动 ProcessOrder。
type OrderProcessConsumer struct {
	reader  MessageReader
	topic   string
	appSvc  application.OrderService
	wg      sync.WaitGroup
	stopped atomic.Bool

	failureHandler *mq.FailureHandler
}

func NewOrderProcessConsumer(reader MessageReader, topic string, appSvc application.OrderService, failureHandler *mq.FailureHandler) *OrderProcessConsumer {
	return &OrderProcessConsumer{
		reader:         reader,
		topic:          topic,
		appSvc:         appSvc,
		failureHandler: failureHandler,
	}
}

// Start 开始监听Kafka主题。这是一个长期运行的方法。
func (a *OrderProcessConsumer) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", a.topic).Msg("✅ Order process consumer started.")
		for {
			if a.stopped.Load() {
				return
			}
			// 使用FetchMessage而不是ReadMessage，以便更好地控制提交
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || a.stopped.Load() {
					logger.Ctx(ctx).Info().Msg("🛑 Order process consumer shutting down.")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("could not read message, retrying")
				time.Sleep(1 * time.Second) // 避免快速失败循环
				continue
			}

			a.handle(ctx, msg)

			// 无论成功或失败（已移交DLT），都提交Offset
			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("Failed to commit messages")
			}
		}
	}()
	return nil
}

// handle 处理一条消息，需要人工介入的失败交给 FailureHandler
func (a *OrderProcessConsumer) handle(ctx context.Context, msg kafka.Message) {
	msgCtx := mq.ExtractTraceContext(ctx, msg.Headers)
	err := a.processMessage(msgCtx, msg)
	if err == nil {
		return
	}
	if !deadLetterWorthy(err) {
		logger.Ctx(msgCtx).Warn().Err(err).Str("key", string(msg.Key)).Msg("Order processing rejected, message dropped")
		return
	}
	if a.failureHandler != nil {
		a.failureHandler.Handle(msgCtx, msg, err)
	}
}

// processMessage 反序列化消息并调用应用服务。
func (a *OrderProcessConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event domain.OrderProcessRequested
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "malformed process request")
	}
	_, err := a.appSvc.ProcessOrder(ctx, event.OrderNumber)
	return err
}

// deadLetterWorthy 区分业务拒绝和需要排查的失败。
// 已处理过的订单、拒付、库存不足都是正常结果，不进 DLT。
func deadLetterWorthy(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument, apperr.KindNotFound, apperr.KindInsufficientStock,
		apperr.KindPaymentDeclined, apperr.KindConcurrencyConflict:
		return false
	}
	return true
}

// Stop 优雅地停止消费者。
func (a *OrderProcessConsumer) Stop(ctx context.Context) {
	a.stopped.Store(true)
	_ = a.reader.Close()
	a.wg.Wait()
	logger.Ctx(ctx).Info().Str("topic", a.topic).Msg("✅ Order process consumer stopped.")
}
