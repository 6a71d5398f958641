package zookeeper

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn 是一个只实现锁所需操作的内存版 ZooKeeper
type fakeConn struct {
	mu       sync.Mutex
	nodes    map[string]bool
	watchers map[string][]chan zk.Event
	seq      int
}

func newFakeConn() *fakeConn {
	return &fakeConn{nodes: map[string]bool{}, watchers: map[string][]chan zk.Event{}}
}

func (f *fakeConn) Exists(p string) (bool, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[p], nil, nil
}

func (f *fakeConn) ExistsW(p string) (bool, *zk.Stat, <-chan zk.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan zk.Event, 1)
	f.watchers[p] = append(f.watchers[p], ch)
	return f.nodes[p], nil, ch, nil
}

func (f *fakeConn) Create(p string, _ []byte, _ int32, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nodes[p] {
		return "", zk.ErrNodeExists
	}
	f.nodes[p] = true
	return p, nil
}

func (f *fakeConn) CreateProtectedEphemeralSequential(p string, _ []byte, _ []zk.ACL) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	dir, base := path.Split(p)
	node := fmt.Sprintf("%s_c_%04d-%s%010d", dir, 1000-f.seq, base, f.seq)
	f.nodes[node] = true
	return node, nil
}

func (f *fakeConn) Children(p string) ([]string, *zk.Stat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for n := range f.nodes {
		if strings.HasPrefix(n, p+"/") && !strings.Contains(strings.TrimPrefix(n, p+"/"), "/") {
			out = append(out, strings.TrimPrefix(n, p+"/"))
		}
	}
	return out, nil, nil
}

func (f *fakeConn) Delete(p string, _ int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.nodes[p] {
		return zk.ErrNoNode
	}
	delete(f.nodes, p)
	for _, ch := range f.watchers[p] {
		ch <- zk.Event{Type: zk.EventNodeDeleted, Path: p}
	}
	delete(f.watchers, p)
	return nil
}

func TestDistributedLockExclusive(t *testing.T) {
	conn := newFakeConn()
	ctx := context.Background()

	first, err := NewDistributedLock(conn, "order-ORD-1")
	require.NoError(t, err)
	require.NoError(t, first.Lock(ctx, time.Second))

	second, err := NewDistributedLock(conn, "order-ORD-1")
	require.NoError(t, err)
	assert.ErrorIs(t, second.Lock(ctx, 30*time.Millisecond), ErrLockTimeout)

	// 超时放弃后不能残留节点，否则后来者会一直排在它后面
	children, _, _ := conn.Children(lockRoot + "/order-ORD-1")
	assert.Len(t, children, 1)

	require.NoError(t, first.Unlock())

	third, err := NewDistributedLock(conn, "order-ORD-1")
	require.NoError(t, err)
	require.NoError(t, third.Lock(ctx, time.Second))
	require.NoError(t, third.Unlock())
}

func TestDistributedLockWaitsForPredecessor(t *testing.T) {
	conn := newFakeConn()
	ctx := context.Background()

	first, err := NewDistributedLock(conn, "order-ORD-2")
	require.NoError(t, err)
	require.NoError(t, first.Lock(ctx, time.Second))

	acquired := make(chan error, 1)
	go func() {
		second, err := NewDistributedLock(conn, "order-ORD-2")
		if err != nil {
			acquired <- err
			return
		}
		acquired <- second.Lock(ctx, 2*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, first.Unlock())

	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second locker never acquired the lock")
	}
}

func TestUnlockWithoutLock(t *testing.T) {
	l, err := NewDistributedLock(newFakeConn(), "x")
	require.NoError(t, err)
	assert.Error(t, l.Unlock())
}
