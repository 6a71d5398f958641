package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/httpserver"
	"txflow/internal/service/order/application"
	"txflow/internal/service/order/domain"
)

const apiKeyHeader = "X-API-Key"

// ProcessEnqueuer 把订单交给异步处理，返回事件 ID
type ProcessEnqueuer interface {
	Enqueue(ctx context.Context, orderNumber string) (string, error)
}

// OrderHandler 封装了订单服务的 HTTP 处理器
type OrderHandler struct {
	service  application.OrderService
	enqueuer ProcessEnqueuer
}

// NewOrderHandler 创建处理器。enqueuer 为 nil 时不提供异步处理接口。
func NewOrderHandler(service application.OrderService, enqueuer ProcessEnqueuer) *OrderHandler {
	return &OrderHandler{service: service, enqueuer: enqueuer}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("GET /orders/{number}", h.getOrder)
	mux.HandleFunc("POST /orders/{number}/process", h.processOrder)
	if h.enqueuer != nil {
		mux.HandleFunc("POST /orders/{number}/process-async", h.processOrderAsync)
	}
}

type orderItemResponse struct {
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	OrderNumber      string              `json:"order_number"`
	CustomerName     string              `json:"customer_name"`
	CustomerEmail    string              `json:"customer_email"`
	Items            []orderItemResponse `json:"items"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	Status           string              `json:"status"`
	PaymentReference string              `json:"payment_reference,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		OrderNumber:      o.OrderNumber,
		CustomerName:     o.Customer.Name,
		CustomerEmail:    o.Customer.Email,
		Items:            make([]orderItemResponse, 0, len(o.Items)),
		TotalAmount:      o.TotalAmount,
		Status:           string(o.State),
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{SKU: it.SKU, Quantity: it.Quantity, UnitPrice: it.UnitPrice, LineTotal: it.LineTotal})
	}
	return resp
}

// requestContext 恢复追踪上下文并带上调用方的 API key
func requestContext(r *http.Request) context.Context {
	return application.WithAPIKey(httpserver.ExtractContext(r), r.Header.Get(apiKeyHeader))
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	var req application.CreateOrderRequest
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	order, err := h.service.CreateOrder(ctx, &req)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	orders, err := h.service.ListOrders(ctx)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	order, err := h.service.GetOrder(ctx, r.PathValue("number"))
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) processOrder(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	order, err := h.service.ProcessOrder(ctx, r.PathValue("number"))
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

// processOrderAsync 先确认订单存在且调用方有权限，再投递到 Kafka
func (h *OrderHandler) processOrderAsync(w http.ResponseWriter, r *http.Request) {
	ctx := requestContext(r)
	order, err := h.service.GetOrder(ctx, r.PathValue("number"))
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	if order.State.Terminal() {
		httpserver.WriteError(ctx, w, apperr.InvalidArgument("order %s is %s and cannot be processed", order.OrderNumber, order.State))
		return
	}
	eventID, err := h.enqueuer.Enqueue(ctx, order.OrderNumber)
	if err != nil {
		httpserver.WriteError(ctx, w, apperr.Wrap(err, apperr.KindInternal, "enqueue order %s", order.OrderNumber))
		return
	}
	httpserver.WriteJSON(w, http.StatusAccepted, map[string]string{
		"order_number": order.OrderNumber,
		"event_id":     eventID,
		"message":      "Your order is being processed.",
	})
}
