// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const (
	lockRoot = "/distributed_locks" // 所有分布式锁的根节点
)

// ErrLockTimeout 表示在等待期内没有拿到锁
var ErrLockTimeout = errors.New("timeout waiting for lock")

// Connect 建立 ZooKeeper 会话
func Connect(servers []string, sessionTimeout time.Duration) (*zk.Conn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "connect zookeeper")
	}
	return conn, nil
}

// Conn 是锁需要的那部分 zk.Conn 方法
type Conn interface {
	Exists(path string) (bool, *zk.Stat, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	Delete(path string, version int32) error
}

// DistributedLock 基于临时顺序节点的分布式锁
type DistributedLock struct {
	conn     Conn
	path     string // 锁的路径，例如 /distributed_locks/order-ORD-1234abcd
	lockNode string // 成功获取锁后，自己创建的节点路径
}

// NewDistributedLock 创建锁对象，并确保锁路径存在
func NewDistributedLock(conn Conn, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	for _, p := range []string{lockRoot, lockPath} {
		if err := ensureNode(conn, p); err != nil {
			return nil, err
		}
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensureNode(conn Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return errors.Wrapf(err, "check node %s", path)
	}
	if exists {
		return nil
	}
	_, err = conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return errors.Wrapf(err, "create node %s", path)
	}
	return nil
}

// Lock 获取锁，阻塞直到成功、ctx 结束或超时。超时返回 ErrLockTimeout。
func (l *DistributedLock) Lock(ctx context.Context, wait time.Duration) error {
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	deadline := time.NewTimer(wait)
	defer deadline.Stop()

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			l.abandon()
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		// protected 节点带有 _c_<guid>- 前缀，按序号部分排序
		sort.Slice(children, func(i, j int) bool { return sequenceOf(children[i]) < sequenceOf(children[j]) })

		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		prev := ""
		for i, child := range children {
			if child == myNodeName {
				if i > 0 {
					prev = children[i-1]
				}
				break
			}
		}
		if prev == "" {
			return nil
		}

		exists, _, eventChan, err := l.conn.ExistsW(l.path + "/" + prev)
		if err != nil {
			l.abandon()
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			continue
		}

		select {
		case <-eventChan:
		case <-deadline.C:
			l.abandon()
			return ErrLockTimeout
		case <-ctx.Done():
			l.abandon()
			return ctx.Err()
		}
	}
}

// Unlock 释放锁
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}

func (l *DistributedLock) abandon() {
	if l.lockNode != "" {
		_ = l.conn.Delete(l.lockNode, -1)
		l.lockNode = ""
	}
}

func sequenceOf(node string) string {
	if i := strings.LastIndex(node, "lock-"); i >= 0 {
		return node[i+len("lock-"):]
	}
	return node
}
