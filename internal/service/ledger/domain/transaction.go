package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const TransactionTypeTransfer TransactionType = "TRANSFER"

// TransactionRecord 是不可变的转账流水，与两边余额在同一事务中写入
type TransactionRecord struct {
	ID          string
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Type        TransactionType
	CreatedAt   time.Time
}

func NewTransferRecord(from, to string, amount decimal.Decimal) *TransactionRecord {
	return &TransactionRecord{
		ID:          uuid.NewString(),
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Type:        TransactionTypeTransfer,
		CreatedAt:   time.Now(),
	}
}

func (r *TransactionRecord) Clone() *TransactionRecord {
	c := *r
	return &c
}
