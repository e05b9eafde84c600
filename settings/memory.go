package settings

import (
	"context"
	"maps"
	"sync"
)

// Memory 是进程内存储，主要用于测试与一次性导出。
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

// NewMemory 创建空的内存存储。
func NewMemory() *Memory { return &Memory{values: map[string]string{}} }

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Snapshot 返回当前全部键值的副本。
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}
