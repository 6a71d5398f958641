package infrastructure

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountModel 对应数据库中的 accounts 表
type AccountModel struct {
	ID            uint            `gorm:"primaryKey"`
	AccountNumber string          `gorm:"size:64;uniqueIndex;not null"`
	Holder        string          `gorm:"size:128;not null"`
	Balance       decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	AccountType   string          `gorm:"size:16;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (AccountModel) TableName() string {
	return "accounts"
}

// TransactionRecordModel 对应数据库中的 transaction_records 表
type TransactionRecordModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	FromAccount string          `gorm:"size:64;index;not null"`
	ToAccount   string          `gorm:"size:64;index;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(19,2);not null"`
	Type        string          `gorm:"size:16;not null"`
	CreatedAt   time.Time       `gorm:"index"`
}

func (TransactionRecordModel) TableName() string {
	return "transaction_records"
}
