package apperr

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWalksWrapChain(t *testing.T) {
	base := InsufficientStock("sku %s", "A")
	wrapped := errors.Wrap(fmt.Errorf("reserve: %w", base), "process order")

	assert.Equal(t, KindInsufficientStock, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindInsufficientStock))
	assert.False(t, IsKind(wrapped, KindNotFound))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := Wrap(errors.New("driver"), KindNotFound, "account %s", "A-1")

	require.True(t, errors.Is(err, &Error{Kind: KindNotFound}))
	require.False(t, errors.Is(err, &Error{Kind: KindAlreadyExists}))
	assert.Contains(t, err.Error(), "account A-1")
	assert.Contains(t, err.Error(), "driver")
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, KindInternal, "ignored"))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(fmt.Errorf("charge: %w", context.DeadlineExceeded)))
	assert.False(t, IsTimeout(context.Canceled))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		InvalidArgument("x"):           http.StatusBadRequest,
		NotFound("x"):                  http.StatusNotFound,
		AlreadyExists("x"):             http.StatusConflict,
		ConcurrencyConflict("x"):       http.StatusConflict,
		InsufficientFunds("x"):         http.StatusUnprocessableEntity,
		InsufficientStock("x"):         http.StatusUnprocessableEntity,
		PaymentDeclined("x"):           http.StatusPaymentRequired,
		PaymentGatewayUnavailable("x"): http.StatusServiceUnavailable,
		DeliveryFailure("x"):           http.StatusServiceUnavailable,
		Unauthorized("x"):              http.StatusForbidden,
		errors.New("x"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
