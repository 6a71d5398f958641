package infrastructure

import "txflow/internal/service/ledger/domain"

// ToDomainAccount 将数据库模型转换为领域模型
func ToDomainAccount(m *AccountModel) *domain.Account {
	if m == nil {
		return nil
	}
	return &domain.Account{
		AccountNumber: m.AccountNumber,
		Holder:        m.Holder,
		Balance:       m.Balance,
		Type:          domain.AccountType(m.AccountType),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// FromDomainAccount 将领域模型转换为数据库模型。ID 由仓储在更新时补齐。
func FromDomainAccount(a *domain.Account) *AccountModel {
	if a == nil {
		return nil
	}
	return &AccountModel{
		AccountNumber: a.AccountNumber,
		Holder:        a.Holder,
		Balance:       a.Balance,
		AccountType:   string(a.Type),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func ToDomainTransaction(m *TransactionRecordModel) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:          m.ID,
		FromAccount: m.FromAccount,
		ToAccount:   m.ToAccount,
		Amount:      m.Amount,
		Type:        domain.TransactionType(m.Type),
		CreatedAt:   m.CreatedAt,
	}
}

func FromDomainTransaction(r *domain.TransactionRecord) *TransactionRecordModel {
	return &TransactionRecordModel{
		ID:          r.ID,
		FromAccount: r.FromAccount,
		ToAccount:   r.ToAccount,
		Amount:      r.Amount,
		Type:        string(r.Type),
		CreatedAt:   r.CreatedAt,
	}
}
