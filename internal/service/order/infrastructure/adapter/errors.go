package adapter

import (
	"encoding/json"
	"errors"
	"net/http"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/httpclient"
)

// fromStatusError 把下游服务的非 2xx 响应还原成错误分类。
// 优先使用响应体里的 kind，其次按状态码推断。
func fromStatusError(err error, what string) error {
	var se *httpclient.StatusError
	if !errors.As(err, &se) {
		return err
	}
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Kind != "" && body.Kind != string(apperr.KindInternal) {
		return apperr.Wrap(err, apperr.Kind(body.Kind), "%s", what)
	}
	switch se.StatusCode {
	case http.StatusBadRequest:
		return apperr.Wrap(err, apperr.KindInvalidArgument, "%s", what)
	case http.StatusNotFound:
		return apperr.Wrap(err, apperr.KindNotFound, "%s", what)
	case http.StatusConflict:
		return apperr.Wrap(err, apperr.KindConcurrencyConflict, "%s", what)
	case http.StatusUnprocessableEntity:
		return apperr.Wrap(err, apperr.KindInsufficientStock, "%s", what)
	case http.StatusPaymentRequired:
		return apperr.Wrap(err, apperr.KindPaymentDeclined, "%s", what)
	}
	return apperr.Wrap(err, apperr.KindInternal, "%s", what)
}
