// Package database 封装 gorm + MySQL：连接、事务范围、锁等待超时和错误映射。
package database

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/go-sql-driver/mysql"
	pkgerrors "github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"txflow/internal/pkg/apperr"
	"txflow/internal/pkg/config"
)

// MySQL 错误码
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

// Open 建立 gorm 连接并设置连接池
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormmysql.Open(cfg.DSN), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open mysql")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

type txKey struct{}

// TxManager 用 gorm 事务实现独立的事务范围
type TxManager struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewTxManager(db *gorm.DB, lockTimeout time.Duration) *TxManager {
	return &TxManager{db: db, lockTimeout: lockTimeout}
}

// WithinTx 开启新事务执行 fn，并设置本会话的 innodb_lock_wait_timeout。
// 不加入 ctx 中已有的事务。
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.lockTimeout > 0 {
			secs := int(math.Ceil(m.lockTimeout.Seconds()))
			if err := tx.Exec("SET SESSION innodb_lock_wait_timeout = ?", secs).Error; err != nil {
				return MapError(err, "set lock wait timeout")
			}
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping 用于健康检查
func (m *TxManager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Conn 返回 ctx 中的事务连接，没有事务时返回普通连接
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// ForUpdate 是 SELECT ... FOR UPDATE
func ForUpdate() clause.Expression {
	return clause.Locking{Strength: clause.LockingStrengthUpdate}
}

// MapError 把 gorm / MySQL 错误映射为业务分类
func MapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(err, apperr.KindNotFound, "%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Wrap(err, apperr.KindAlreadyExists, "%s already exists", what)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDuplicateEntry:
			return apperr.Wrap(err, apperr.KindAlreadyExists, "%s already exists", what)
		case errLockWaitTimeout, errDeadlock:
			return apperr.Wrap(err, apperr.KindConcurrencyConflict, "%s: lock conflict", what)
		}
	}
	if _, ok := err.(*apperr.Error); ok {
		return err
	}
	return apperr.Wrap(pkgerrors.Wrap(err, what), apperr.KindInternal, "%s", what)
}
