// internal/service/order/application/dto.go
package application

// OrderItemRequest 是下单明细。请求用有序切片表达，明细顺序即预占顺序。
type OrderItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// CreateOrderRequest 是创建订单用例的输入数据
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Items         []OrderItemRequest `json:"items"`
}

// mergedItems 合并重复 SKU 的数量，保留首次出现的位置
func (r *CreateOrderRequest) mergedItems() []OrderItemRequest {
	index := make(map[string]int, len(r.Items))
	out := make([]OrderItemRequest, 0, len(r.Items))
	for _, it := range r.Items {
		if i, ok := index[it.SKU]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.SKU] = len(out)
		out = append(out, it)
	}
	return out
}
