package infrastructure

import (
	"context"
	"sort"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/memdb"
	"txflow/internal/service/ledger/domain"
)

const (
	accountsTable     = "accounts"
	transactionsTable = "transaction_records"
)

// MemoryAccountRepository 是基于 memdb 的账户仓储
type MemoryAccountRepository struct {
	table *memdb.Table[*domain.Account]
}

func NewMemoryAccountRepository(db *memdb.DB) *MemoryAccountRepository {
	return &MemoryAccountRepository{table: memdb.NewTable(db, accountsTable, (*domain.Account).Clone)}
}

func (r *MemoryAccountRepository) FindWithLock(ctx context.Context, number string) (*domain.Account, error) {
	if err := r.table.Lock(ctx, number); err != nil {
		return nil, err
	}
	return r.Find(ctx, number)
}

func (r *MemoryAccountRepository) Find(ctx context.Context, number string) (*domain.Account, error) {
	acc, ok := r.table.Get(ctx, number)
	if !ok {
		return nil, apperr.NotFound("account %s not found", number)
	}
	return acc, nil
}

func (r *MemoryAccountRepository) FindAll(ctx context.Context) ([]*domain.Account, error) {
	return r.table.List(ctx), nil
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	return r.table.Insert(ctx, account.AccountNumber, account)
}

func (r *MemoryAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	return r.table.Put(ctx, account.AccountNumber, account)
}

type MemoryTransactionRepository struct {
	table *memdb.Table[*domain.TransactionRecord]
}

func NewMemoryTransactionRepository(db *memdb.DB) *MemoryTransactionRepository {
	return &MemoryTransactionRepository{table: memdb.NewTable(db, transactionsTable, (*domain.TransactionRecord).Clone)}
}

func (r *MemoryTransactionRepository) Save(ctx context.Context, record *domain.TransactionRecord) error {
	return r.table.Insert(ctx, record.ID, record)
}

// FindAll 按创建时间排序返回所有流水
func (r *MemoryTransactionRepository) FindAll(ctx context.Context) ([]*domain.TransactionRecord, error) {
	records := r.table.List(ctx)
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}
