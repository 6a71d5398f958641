// Package httpserver 收集各服务 HTTP 接口层共用的小工具
package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError 按错误分类输出状态码
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Int("status", status).Msg("request failed")
	}
	WriteJSON(w, status, errorBody{Error: err.Error(), Kind: string(apperr.KindOf(err))})
}

// DecodeJSON 解析请求体，格式错误时返回 InvalidArgument
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(err, apperr.KindInvalidArgument, "malformed request body")
	}
	return nil
}

// ExtractContext 从请求头恢复上游的追踪上下文
func ExtractContext(r *http.Request) context.Context {
	return otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}
