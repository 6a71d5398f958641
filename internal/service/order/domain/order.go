// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
)

const orderNumberPrefix = "ORD-"

type Customer struct {
	Name  string
	Email string
}

// OrderItem 是订单的值对象，单价在下单时快照
type OrderItem struct {
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

func NewOrderItem(sku string, qty int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		SKU:       sku,
		Quantity:  qty,
		UnitPrice: unitPrice,
		LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// Order 是订单聚合的根实体
type Order struct {
	OrderNumber      string
	Customer         Customer
	Items            []OrderItem
	TotalAmount      decimal.Decimal
	State            State
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewOrderNumber 生成 ORD- 加 8 位十六进制的订单号
func NewOrderNumber() string {
	return orderNumberPrefix + uuid.NewString()[:8]
}

// NewOrder 创建一个 PENDING 状态的订单，总金额由明细累加
func NewOrder(customer Customer, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, apperr.InvalidArgument("order must contain at least one item")
	}
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, apperr.InvalidArgument("quantity for %s must be positive, got %d", it.SKU, it.Quantity)
		}
		total = total.Add(it.LineTotal)
	}
	now := time.Now()
	return &Order{
		OrderNumber: NewOrderNumber(),
		Customer:    customer,
		Items:       items,
		TotalAmount: total,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Confirm 记录支付流水号并把订单置为 CONFIRMED
func (o *Order) Confirm(paymentRef string) error {
	if o.State != StatePending {
		return apperr.InvalidArgument("order %s is %s and cannot be confirmed", o.OrderNumber, o.State)
	}
	o.State = StateConfirmed
	o.PaymentReference = paymentRef
	o.UpdatedAt = time.Now()
	return nil
}

// MarkAsFailed 将订单标记为失败
func (o *Order) MarkAsFailed() {
	o.State = StateFailed
	o.UpdatedAt = time.Now()
}

func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}
