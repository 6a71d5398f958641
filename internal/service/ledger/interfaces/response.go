package interfaces

import (
	"time"

	"github.com/shopspring/decimal"

	"txflow/internal/service/ledger/domain"
)

type accountResponse struct {
	AccountNumber string          `json:"account_number"`
	Holder        string          `json:"holder"`
	Balance       decimal.Decimal `json:"balance"`
	Type          string          `json:"type"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		AccountNumber: a.AccountNumber,
		Holder:        a.Holder,
		Balance:       a.Balance,
		Type:          string(a.Type),
	}
}

type transactionResponse struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Type      string          `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

func toTransactionResponse(r *domain.TransactionRecord) transactionResponse {
	return transactionResponse{
		ID:        r.ID,
		From:      r.FromAccount,
		To:        r.ToAccount,
		Amount:    r.Amount,
		Type:      string(r.Type),
		CreatedAt: r.CreatedAt,
	}
}
