// internal/service/ledger/domain/repository.go
package domain

import "context"

// AccountRepository 定义了账户的持久化接口，由基础设施层实现。
// 所有写操作都必须在 TxManager 开启的事务范围内进行。
type AccountRepository interface {
	// FindWithLock 读取并对账户行加排他锁，锁持有到事务结束
	FindWithLock(ctx context.Context, number string) (*Account, error)
	// Find 无锁读取已提交的数据
	Find(ctx context.Context, number string) (*Account, error)
	FindAll(ctx context.Context) ([]*Account, error)
	// Create 插入新账户，账号重复时返回 AlreadyExists
	Create(ctx context.Context, account *Account) error
	Save(ctx context.Context, account *Account) error
}

type TransactionRepository interface {
	Save(ctx context.Context, record *TransactionRecord) error
	FindAll(ctx context.Context) ([]*TransactionRecord, error)
}

// TxManager 开启一个独立的事务范围：fn 成功则提交，否则回滚
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
