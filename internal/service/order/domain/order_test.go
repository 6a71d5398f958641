package domain

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txflow/internal/pkg/apperr"
)

func TestNewOrderComputesTotals(t *testing.T) {
	items := []OrderItem{
		NewOrderItem("A", 2, decimal.RequireFromString("10.50")),
		NewOrderItem("B", 1, decimal.RequireFromString("3")),
	}
	o, err := NewOrder(Customer{Name: "n", Email: "e@x"}, items)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9a-f]{8}$`), o.OrderNumber)
	assert.Equal(t, StatePending, o.State)
	assert.True(t, decimal.RequireFromString("21").Equal(o.Items[0].LineTotal))
	assert.True(t, decimal.RequireFromString("24").Equal(o.TotalAmount))
}

func TestNewOrderRejectsBadItems(t *testing.T) {
	_, err := NewOrder(Customer{}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = NewOrder(Customer{}, []OrderItem{NewOrderItem("A", 0, decimal.NewFromInt(1))})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestConfirmOnlyFromPending(t *testing.T) {
	o, err := NewOrder(Customer{}, []OrderItem{NewOrderItem("A", 1, decimal.NewFromInt(1))})
	require.NoError(t, err)

	require.NoError(t, o.Confirm("PAY-1"))
	assert.Equal(t, StateConfirmed, o.State)
	assert.Equal(t, "PAY-1", o.PaymentReference)
	assert.True(t, o.State.Terminal())

	assert.True(t, apperr.IsKind(o.Confirm("PAY-2"), apperr.KindInvalidArgument))
}

func TestCloneDoesNotShareItems(t *testing.T) {
	o, err := NewOrder(Customer{}, []OrderItem{NewOrderItem("A", 1, decimal.NewFromInt(1))})
	require.NoError(t, err)
	c := o.Clone()
	c.Items[0].Quantity = 9
	assert.Equal(t, 1, o.Items[0].Quantity)
}
