// Package memdb 是一个进程内的事务存储，用于本地运行和测试。
//
// 语义对齐 InnoDB 的悲观锁用法：
//   - 写之前必须先对行加排他锁，锁持有到事务提交或回滚；
//   - 加锁等待有上限，超时返回 ConcurrencyConflict；
//   - 事务内的写先缓存，提交时一次性生效，失败则全部丢弃；
//   - 无锁读只看到已提交的数据（外加本事务自己的写）。
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"txflow/internal/pkg/apperr"
)

const DefaultLockTimeout = 3 * time.Second

type DB struct {
	mu     sync.RWMutex
	tables map[string]map[string]any

	lockMu      sync.Mutex
	rowLocks    map[string]*rowLock
	lockTimeout time.Duration
}

// rowLock 的 refs 统计持有者和等待者，归零时从 rowLocks 中删除
type rowLock struct {
	ch   chan struct{}
	refs int
}

func New(lockTimeout time.Duration) *DB {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &DB{
		tables:      make(map[string]map[string]any),
		rowLocks:    make(map[string]*rowLock),
		lockTimeout: lockTimeout,
	}
}

type txKey struct{ db *DB }

type tx struct {
	db     *DB
	held   map[string]*rowLock
	writes map[string]map[string]any
}

// WithinTx 开启一个新的事务范围。fn 返回 nil 时提交，否则回滚。
// 每次调用都是独立的事务，不会加入外层事务。
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t := &tx{
		db:     db,
		held:   make(map[string]*rowLock),
		writes: make(map[string]map[string]any),
	}
	defer t.release()

	if err := fn(context.WithValue(ctx, txKey{db}, t)); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Ping 让内存库也能挂到数据库健康检查上
func (db *DB) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InTx 判断 ctx 是否处于本库的事务中
func (db *DB) InTx(ctx context.Context) bool {
	return db.txFrom(ctx) != nil
}

func (db *DB) txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{db}).(*tx)
	return t
}

func (db *DB) acquireRowLock(id string) *rowLock {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()
	l, ok := db.rowLocks[id]
	if !ok {
		l = &rowLock{ch: make(chan struct{}, 1)}
		db.rowLocks[id] = l
	}
	l.refs++
	return l
}

func (db *DB) releaseRowLock(id string, l *rowLock) {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(db.rowLocks, id)
	}
}

// Lock 对 table/key 加排他锁。同一事务内重复加锁直接返回。
// 行不存在时同样加锁，用于防止并发插入同一主键。
func (db *DB) Lock(ctx context.Context, table, key string) error {
	t := db.txFrom(ctx)
	if t == nil {
		return apperr.New(apperr.KindInternal, "lock on %s/%s requires a transaction", table, key)
	}
	id := table + "/" + key
	if _, ok := t.held[id]; ok {
		return nil
	}

	l := db.acquireRowLock(id)
	timer := time.NewTimer(db.lockTimeout)
	defer timer.Stop()

	select {
	case l.ch <- struct{}{}:
		t.held[id] = l
		return nil
	case <-timer.C:
		db.releaseRowLock(id, l)
		return apperr.ConcurrencyConflict("lock wait timeout exceeded on %s %s", table, key)
	case <-ctx.Done():
		db.releaseRowLock(id, l)
		return apperr.Wrap(ctx.Err(), apperr.KindConcurrencyConflict, "lock wait aborted on %s %s", table, key)
	}
}

// Get 读取一行。事务内优先返回本事务尚未提交的写。
func (db *DB) Get(ctx context.Context, table, key string) (any, bool) {
	if t := db.txFrom(ctx); t != nil {
		if v, ok := t.writes[table][key]; ok {
			return v, true
		}
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.tables[table][key]
	return v, ok
}

// List 按主键升序返回整张表的快照
func (db *DB) List(ctx context.Context, table string) []any {
	merged := make(map[string]any)
	db.mu.RLock()
	for k, v := range db.tables[table] {
		merged[k] = v
	}
	db.mu.RUnlock()
	if t := db.txFrom(ctx); t != nil {
		for k, v := range t.writes[table] {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, merged[k])
	}
	return out
}

// Put 写入一行。调用方未持锁时先加锁；不在事务中时自动包一个事务。
func (db *DB) Put(ctx context.Context, table, key string, value any) error {
	t := db.txFrom(ctx)
	if t == nil {
		return db.WithinTx(ctx, func(ctx context.Context) error {
			return db.Put(ctx, table, key, value)
		})
	}
	if err := db.Lock(ctx, table, key); err != nil {
		return err
	}
	t.put(table, key, value)
	return nil
}

// Insert 与 Put 相同，但主键已存在时返回 AlreadyExists
func (db *DB) Insert(ctx context.Context, table, key string, value any) error {
	t := db.txFrom(ctx)
	if t == nil {
		return db.WithinTx(ctx, func(ctx context.Context) error {
			return db.Insert(ctx, table, key, value)
		})
	}
	if err := db.Lock(ctx, table, key); err != nil {
		return err
	}
	if _, exists := db.Get(ctx, table, key); exists {
		return apperr.AlreadyExists("%s %s already exists", table, key)
	}
	t.put(table, key, value)
	return nil
}

func (t *tx) put(table, key string, value any) {
	rows, ok := t.writes[table]
	if !ok {
		rows = make(map[string]any)
		t.writes[table] = rows
	}
	rows[key] = value
}

func (t *tx) commit() {
	if len(t.writes) == 0 {
		return
	}
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	for table, rows := range t.writes {
		dst, ok := t.db.tables[table]
		if !ok {
			dst = make(map[string]any)
			t.db.tables[table] = dst
		}
		for k, v := range rows {
			dst[k] = v
		}
	}
}

func (t *tx) release() {
	for id, l := range t.held {
		<-l.ch
		t.db.releaseRowLock(id, l)
		delete(t.held, id)
	}
	t.writes = nil
}
