package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel 对应数据库中的 products 表
type ProductModel struct {
	ID            uint            `gorm:"primaryKey"`
	SKU           string          `gorm:"column:sku;size:64;uniqueIndex;not null"`
	Name          string          `gorm:"size:128;not null"`
	Price         decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	StockQuantity int             `gorm:"not null"`
	Status        string          `gorm:"size:16;not null"`
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
