package application

import (
	"github.com/shopspring/decimal"

	"txflow/internal/service/ledger/domain"
)

type CreateAccountRequest struct {
	AccountNumber  string             `json:"account_number"`
	Holder         string             `json:"holder"`
	InitialBalance decimal.Decimal    `json:"initial_balance"`
	Type           domain.AccountType `json:"type"`
}

type TransferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}
