package infrastructure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txflow/internal/service/order/domain"
)

func TestMapperKeepsItemOrder(t *testing.T) {
	o, err := domain.NewOrder(domain.Customer{Name: "n", Email: "e"}, []domain.OrderItem{
		domain.NewOrderItem("Z", 1, decimal.NewFromInt(1)),
		domain.NewOrderItem("A", 2, decimal.NewFromInt(2)),
	})
	require.NoError(t, err)

	m := FromDomainOrder(o)
	m.Items[0], m.Items[1] = m.Items[1], m.Items[0]

	back := ToDomainOrder(m)
	require.Len(t, back.Items, 2)
	assert.Equal(t, "Z", back.Items[0].SKU)
	assert.Equal(t, "A", back.Items[1].SKU)
	assert.Equal(t, o.OrderNumber, back.OrderNumber)
	assert.True(t, o.TotalAmount.Equal(back.TotalAmount))
}
