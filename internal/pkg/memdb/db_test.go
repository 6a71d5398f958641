package memdb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txflow/internal/pkg/apperr"
)

type row struct {
	ID    string
	Value int
}

func cloneRow(r *row) *row {
	c := *r
	return &c
}

func newRows(lockTimeout time.Duration) (*DB, *Table[*row]) {
	db := New(lockTimeout)
	return db, NewTable(db, "rows", cloneRow)
}

func TestCommitAppliesAllWrites(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(time.Second)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, rows.Insert(ctx, "a", &row{ID: "a", Value: 1}))
		require.NoError(t, rows.Insert(ctx, "b", &row{ID: "b", Value: 2}))

		// 事务内可以读到自己的写
		got, ok := rows.Get(ctx, "a")
		require.True(t, ok)
		assert.Equal(t, 1, got.Value)

		// 事务外看不到未提交的数据
		_, ok = rows.Get(context.Background(), "a")
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)

	list := rows.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(time.Second)
	require.NoError(t, rows.Insert(ctx, "a", &row{ID: "a", Value: 1}))

	boom := errors.New("boom")
	err := db.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, rows.Lock(ctx, "a"))
		require.NoError(t, rows.Put(ctx, "a", &row{ID: "a", Value: 99}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, ok := rows.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, 1, got.Value)
}

func TestInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	_, rows := newRows(time.Second)
	require.NoError(t, rows.Insert(ctx, "a", &row{ID: "a"}))

	err := rows.Insert(ctx, "a", &row{ID: "a"})
	assert.True(t, apperr.IsKind(err, apperr.KindAlreadyExists))
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	_, rows := newRows(time.Second)
	require.NoError(t, rows.Insert(ctx, "a", &row{ID: "a", Value: 1}))

	got, _ := rows.Get(ctx, "a")
	got.Value = 42

	again, _ := rows.Get(ctx, "a")
	assert.Equal(t, 1, again.Value)
}

func TestLockWaitTimesOut(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(50 * time.Millisecond)
	require.NoError(t, rows.Insert(ctx, "a", &row{ID: "a"}))

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = db.WithinTx(ctx, func(ctx context.Context) error {
			assert.NoError(t, rows.Lock(ctx, "a"))
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		return rows.Lock(ctx, "a")
	})
	close(done)
	assert.True(t, apperr.IsKind(err, apperr.KindConcurrencyConflict), "got %v", err)
}

func TestLockIsReentrantWithinTx(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(50 * time.Millisecond)

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if err := rows.Lock(ctx, "a"); err != nil {
			return err
		}
		return rows.Lock(ctx, "a")
	})
	assert.NoError(t, err)
}

func TestLockOutsideTx(t *testing.T) {
	_, rows := newRows(time.Second)
	err := rows.Lock(context.Background(), "a")
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
}

func TestLockSerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(5 * time.Second)
	require.NoError(t, rows.Insert(ctx, "counter", &row{ID: "counter"}))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithinTx(ctx, func(ctx context.Context) error {
				if err := rows.Lock(ctx, "counter"); err != nil {
					return err
				}
				r, _ := rows.Get(ctx, "counter")
				r.Value++
				return rows.Put(ctx, "counter", r)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := rows.Get(ctx, "counter")
	assert.Equal(t, workers, got.Value)
}

func lockEntries(db *DB) int {
	db.lockMu.Lock()
	defer db.lockMu.Unlock()
	return len(db.rowLocks)
}

func TestRowLocksAreDroppedAfterRelease(t *testing.T) {
	ctx := context.Background()
	db, rows := newRows(20 * time.Millisecond)

	// 不存在的行也会加锁，事务结束后不应残留
	for i := 0; i < 100; i++ {
		_ = db.WithinTx(ctx, func(ctx context.Context) error {
			require.NoError(t, rows.Lock(ctx, "missing"))
			_, ok := rows.Get(ctx, "missing")
			assert.False(t, ok)
			return errors.New("not found")
		})
	}
	assert.Zero(t, lockEntries(db))

	locked := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = db.WithinTx(ctx, func(ctx context.Context) error {
			assert.NoError(t, rows.Lock(ctx, "a"))
			close(locked)
			<-done
			return nil
		})
	}()
	<-locked

	// 等待超时的一方释放引用后，持有者的条目仍然在
	err := db.WithinTx(ctx, func(ctx context.Context) error { return rows.Lock(ctx, "a") })
	require.True(t, apperr.IsKind(err, apperr.KindConcurrencyConflict))
	assert.Equal(t, 1, lockEntries(db))

	close(done)
	<-finished
	assert.Zero(t, lockEntries(db))
}
