package infrastructure

import "txflow/internal/service/inventory/domain"

func ToDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		SKU:           m.SKU,
		Name:          m.Name,
		Price:         m.Price,
		StockQuantity: m.StockQuantity,
		Status:        domain.ProductStatus(m.Status),
		UpdatedAt:     m.UpdatedAt,
	}
}

func FromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Status:        string(p.Status),
		UpdatedAt:     p.UpdatedAt,
	}
}
