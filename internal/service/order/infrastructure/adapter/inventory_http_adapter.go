package adapter

import (
	"context"
	"net/url"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/httpclient"
)

// InventoryHTTPAdapter 通过 HTTP 调用独立部署的库存服务，实现 port.InventoryService。
type InventoryHTTPAdapter struct {
	client      *httpclient.Client
	serviceName string
}

func NewInventoryHTTPAdapter(client *httpclient.Client, serviceName string) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, serviceName: serviceName}
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

func (a *InventoryHTTPAdapter) UnitPrice(ctx context.Context, sku string) (decimal.Decimal, error) {
	var out struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := a.client.GetService(ctx, a.serviceName, "/products/"+url.PathEscape(sku), &out); err != nil {
		return decimal.Zero, fromStatusError(err, "price lookup for "+sku)
	}
	return out.Price, nil
}

func (a *InventoryHTTPAdapter) Reserve(ctx context.Context, sku string, qty int) error {
	err := a.client.CallService(ctx, a.serviceName, "/products/"+url.PathEscape(sku)+"/reserve", quantityBody{Quantity: qty}, nil)
	return fromStatusError(err, "reserve "+sku)
}

// Release 是 Reserve 的补偿操作
func (a *InventoryHTTPAdapter) Release(ctx context.Context, sku string, qty int) error {
	err := a.client.CallService(ctx, a.serviceName, "/products/"+url.PathEscape(sku)+"/release", quantityBody{Quantity: qty}, nil)
	return fromStatusError(err, "release "+sku)
}
