package mq

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"txflow/internal/pkg/logger"
)

// 死信消息携带的额外头信息
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// FailureHandler 把处理失败的消息转发到死信主题
type FailureHandler struct {
	dlt MessageWriter
}

func NewFailureHandler(dlt MessageWriter) *FailureHandler {
	return &FailureHandler{dlt: dlt}
}

// Handle 转发失败消息。转发本身失败只记录日志，不阻塞消费。
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) {
	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
		kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
	)

	err := h.dlt.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("original_topic", msg.Topic).
			Int64("original_offset", msg.Offset).
			Msg("Failed to forward message to DLT")
		return
	}
	logger.Ctx(ctx).Warn().Err(cause).
		Str("original_topic", msg.Topic).
		Int64("original_offset", msg.Offset).
		Msg("Message forwarded to DLT")
}
