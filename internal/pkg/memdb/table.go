package memdb

import "context"

// Table 是 DB 上某张表的类型化视图。读写都经过 clone，调用方拿到的对象可以随意修改。
type Table[T any] struct {
	db    *DB
	name  string
	clone func(T) T
}

func NewTable[T any](db *DB, name string, clone func(T) T) *Table[T] {
	return &Table[T]{db: db, name: name, clone: clone}
}

func (t *Table[T]) Lock(ctx context.Context, key string) error {
	return t.db.Lock(ctx, t.name, key)
}

func (t *Table[T]) Get(ctx context.Context, key string) (T, bool) {
	v, ok := t.db.Get(ctx, t.name, key)
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(v.(T)), true
}

func (t *Table[T]) List(ctx context.Context) []T {
	rows := t.db.List(ctx, t.name)
	out := make([]T, 0, len(rows))
	for _, v := range rows {
		out = append(out, t.clone(v.(T)))
	}
	return out
}

func (t *Table[T]) Put(ctx context.Context, key string, v T) error {
	return t.db.Put(ctx, t.name, key, t.clone(v))
}

func (t *Table[T]) Insert(ctx context.Context, key string, v T) error {
	return t.db.Insert(ctx, t.name, key, t.clone(v))
}
