// internal/service/ledger/domain/account.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/money"
)

type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeBusiness AccountType = "BUSINESS"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeSavings, AccountTypeChecking, AccountTypeBusiness:
		return true
	}
	return false
}

// Account 是账户聚合根。余额只能在转账的锁范围内修改。
type Account struct {
	AccountNumber string
	Holder        string
	Balance       decimal.Decimal
	Type          AccountType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAccount 校验并创建一个新账户
func NewAccount(number, holder string, initial decimal.Decimal, typ AccountType) (*Account, error) {
	if number == "" {
		return nil, apperr.InvalidArgument("account number is required")
	}
	if holder == "" {
		return nil, apperr.InvalidArgument("account holder is required")
	}
	if initial.IsNegative() {
		return nil, apperr.InvalidArgument("initial balance must not be negative")
	}
	if !money.FitsScale(initial) {
		return nil, apperr.InvalidArgument("initial balance %s has more than %d decimal places", initial, money.Scale)
	}
	if !typ.Valid() {
		return nil, apperr.InvalidArgument("unknown account type %q", typ)
	}
	now := time.Now()
	return &Account{
		AccountNumber: number,
		Holder:        holder,
		Balance:       initial,
		Type:          typ,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Debit 扣款，余额不足时返回 InsufficientFunds 且不修改余额
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return apperr.InsufficientFunds("account %s balance %s is less than %s", a.AccountNumber, a.Balance.StringFixed(2), amount.StringFixed(2))
	}
	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now()
}

func (a *Account) Clone() *Account {
	c := *a
	return &c
}
