// Package apperr 定义了整个服务共享的错误分类。
// 业务层只返回带 Kind 的错误，接口层根据 Kind 映射状态码。
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind 是错误的业务分类
type Kind string

const (
	KindInvalidArgument           Kind = "INVALID_ARGUMENT"
	KindNotFound                  Kind = "NOT_FOUND"
	KindAlreadyExists             Kind = "ALREADY_EXISTS"
	KindInsufficientFunds         Kind = "INSUFFICIENT_FUNDS"
	KindInsufficientStock         Kind = "INSUFFICIENT_STOCK"
	KindPaymentDeclined           Kind = "PAYMENT_DECLINED"
	KindPaymentGatewayUnavailable Kind = "PAYMENT_GATEWAY_UNAVAILABLE"
	KindDeliveryFailure           Kind = "DELIVERY_FAILURE"
	KindConcurrencyConflict       Kind = "CONCURRENCY_CONFLICT"
	KindUnauthorized              Kind = "UNAUTHORIZED"
	KindInternal                  Kind = "INTERNAL"
)

// Error 携带分类、可读信息以及可选的底层错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, apperr.NotFound("")) 这种按分类比较的写法成立
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap 给底层错误加上分类。err 为 nil 时返回 nil。
func Wrap(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) *Error { return New(KindNotFound, format, args...) }

func AlreadyExists(format string, args ...any) *Error {
	return New(KindAlreadyExists, format, args...)
}

func InsufficientFunds(format string, args ...any) *Error {
	return New(KindInsufficientFunds, format, args...)
}

func InsufficientStock(format string, args ...any) *Error {
	return New(KindInsufficientStock, format, args...)
}

func PaymentDeclined(format string, args ...any) *Error {
	return New(KindPaymentDeclined, format, args...)
}

func PaymentGatewayUnavailable(format string, args ...any) *Error {
	return New(KindPaymentGatewayUnavailable, format, args...)
}

func DeliveryFailure(format string, args ...any) *Error {
	return New(KindDeliveryFailure, format, args...)
}

func ConcurrencyConflict(format string, args ...any) *Error {
	return New(KindConcurrencyConflict, format, args...)
}

func Unauthorized(format string, args ...any) *Error { return New(KindUnauthorized, format, args...) }

// KindOf 沿着错误链找到第一个 *Error 的分类，找不到时视为 Internal。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误链上是否存在指定分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTimeout 判断错误是否由上下文超时引起
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// HTTPStatus 把分类映射为 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists, KindConcurrencyConflict:
		return http.StatusConflict
	case KindInsufficientFunds, KindInsufficientStock:
		return http.StatusUnprocessableEntity
	case KindPaymentDeclined:
		return http.StatusPaymentRequired
	case KindPaymentGatewayUnavailable, KindDeliveryFailure:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
