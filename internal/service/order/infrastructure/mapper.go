package infrastructure

import (
	"sort"

	"txflow/internal/service/order/domain"
)

func ToDomainOrder(m *OrderModel) *domain.Order {
	items := append([]OrderItemModel(nil), m.Items...)
	sort.Slice(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	o := &domain.Order{
		OrderNumber:      m.OrderNumber,
		Customer:         domain.Customer{Name: m.CustomerName, Email: m.CustomerEmail},
		Items:            make([]domain.OrderItem, 0, len(items)),
		TotalAmount:      m.TotalAmount,
		State:            domain.State(m.Status),
		PaymentReference: m.PaymentReference,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	for _, it := range items {
		o.Items = append(o.Items, domain.OrderItem{
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return o
}

func FromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:      o.OrderNumber,
		CustomerName:     o.Customer.Name,
		CustomerEmail:    o.Customer.Email,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.State),
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for i, it := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			Position:  i,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}
	return m
}
