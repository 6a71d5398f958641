package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"txflow/internal/pkg/database"
	"txflow/internal/service/ledger/domain"
)

// GormAccountRepository 是 AccountRepository 的 GORM 实现
type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindWithLock 执行 SELECT ... FOR UPDATE
func (r *GormAccountRepository) FindWithLock(ctx context.Context, number string) (*domain.Account, error) {
	var model AccountModel
	err := database.Conn(ctx, r.db).Clauses(database.ForUpdate()).
		Where("account_number = ?", number).First(&model).Error
	if err != nil {
		return nil, database.MapError(err, "account "+number)
	}
	return ToDomainAccount(&model), nil
}

func (r *GormAccountRepository) Find(ctx context.Context, number string) (*domain.Account, error) {
	var model AccountModel
	if err := database.Conn(ctx, r.db).Where("account_number = ?", number).First(&model).Error; err != nil {
		return nil, database.MapError(err, "account "+number)
	}
	return ToDomainAccount(&model), nil
}

func (r *GormAccountRepository) FindAll(ctx context.Context) ([]*domain.Account, error) {
	var models []AccountModel
	if err := database.Conn(ctx, r.db).Order("account_number").Find(&models).Error; err != nil {
		return nil, database.MapError(err, "accounts")
	}
	out := make([]*domain.Account, 0, len(models))
	for i := range models {
		out = append(out, ToDomainAccount(&models[i]))
	}
	return out, nil
}

func (r *GormAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	err := database.Conn(ctx, r.db).Create(FromDomainAccount(account)).Error
	return database.MapError(err, "account "+account.AccountNumber)
}

// Save 只更新余额，账号、户名和类型创建后不可变
func (r *GormAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	err := database.Conn(ctx, r.db).Model(&AccountModel{}).
		Where("account_number = ?", account.AccountNumber).
		Updates(map[string]any{
			"balance":    account.Balance,
			"updated_at": account.UpdatedAt,
		}).Error
	return database.MapError(err, "account "+account.AccountNumber)
}

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Save(ctx context.Context, record *domain.TransactionRecord) error {
	err := database.Conn(ctx, r.db).Create(FromDomainTransaction(record)).Error
	return database.MapError(err, "transaction "+record.ID)
}

func (r *GormTransactionRepository) FindAll(ctx context.Context) ([]*domain.TransactionRecord, error) {
	var models []TransactionRecordModel
	if err := database.Conn(ctx, r.db).Order("created_at").Find(&models).Error; err != nil {
		return nil, database.MapError(err, "transactions")
	}
	out := make([]*domain.TransactionRecord, 0, len(models))
	for i := range models {
		out = append(out, ToDomainTransaction(&models[i]))
	}
	return out, nil
}

// AutoMigrate 创建或更新账本相关的表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountModel{}, &TransactionRecordModel{})
}
