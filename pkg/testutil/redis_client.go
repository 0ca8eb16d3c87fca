package testutil

import (
	"context"
	"sync"

	"github.com/questx-lab/raffle/pkg/xredis"
)

type MockRedisClient struct {
	ExistFunc func(ctx context.Context, key string) (bool, error)
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value string) error
	DelFunc   func(ctx context.Context, key ...string) error
}

func (m *MockRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	if m.ExistFunc != nil {
		return m.ExistFunc(ctx, key)
	}

	return false, nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}

	return "", xredis.ErrNotFound
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value string) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value)
	}

	return nil
}

func (m *MockRedisClient) Del(ctx context.Context, key ...string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, key...)
	}

	return nil
}

// MemoryRedisClient is a map backed redis client.
type MemoryRedisClient struct {
	mutex sync.Mutex
	data  map[string]string
}

func NewMemoryRedisClient() *MemoryRedisClient {
	return &MemoryRedisClient{data: map[string]string{}}
}

func (m *MemoryRedisClient) Exist(ctx context.Context, key string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, ok := m.data[key]
	return ok, nil
}

func (m *MemoryRedisClient) Get(ctx context.Context, key string) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	value, ok := m.data[key]
	if !ok {
		return "", xredis.ErrNotFound
	}

	return value, nil
}

func (m *MemoryRedisClient) Set(ctx context.Context, key string, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.data[key] = value
	return nil
}

func (m *MemoryRedisClient) Del(ctx context.Context, keys ...string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}
