package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/httpserver"
	"txflow/internal/service/inventory/application"
	"txflow/internal/service/inventory/domain"
)

// InventoryHandler 封装了库存服务的 HTTP 处理器
type InventoryHandler struct {
	service *application.InventoryApplicationService
}

func NewInventoryHandler(service *application.InventoryApplicationService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /products", h.createProduct)
	mux.HandleFunc("GET /products", h.listProducts)
	mux.HandleFunc("GET /products/{sku}", h.getProduct)
	mux.HandleFunc("POST /products/{sku}/reserve", h.reserve)
	mux.HandleFunc("POST /products/{sku}/release", h.release)
}

type productResponse struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Status        string          `json:"status"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status),
		UpdatedAt:     p.UpdatedAt,
	}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *InventoryHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	var req application.CreateProductRequest
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	product, err := h.service.CreateProduct(ctx, &req)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *InventoryHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	products, err := h.service.ListProducts(ctx)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	httpserver.WriteJSON(w, http.StatusOK, out)
}

func (h *InventoryHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := httpserver.ExtractContext(r)
	product, err := h.service.GetProduct(ctx, r.PathValue("sku"))
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *InventoryHandler) reserve(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.Reserve)
}

func (h *InventoryHandler) release(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.service.Release)
}

// adjust 处理预占和归还这两个形状相同的接口，成功时返回最新库存
func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sku string, qty int) error) {
	ctx := httpserver.ExtractContext(r)
	var req quantityRequest
	if err := httpserver.DecodeJSON(r, &req); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	sku := r.PathValue("sku")
	if err := op(ctx, sku, req.Quantity); err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	product, err := h.service.GetProduct(ctx, sku)
	if err != nil {
		httpserver.WriteError(ctx, w, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toProductResponse(product))
}
