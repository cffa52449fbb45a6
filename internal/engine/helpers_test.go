package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RealZimboGuy/taskflow/pkg/taskflow/core"
	"github.com/stretchr/testify/require"
)

// MockKeyValueStore is an in-memory KeyValueStore with optional write failures.
type MockKeyValueStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	puts    map[string]int
	PutFunc func(key string, value []byte) error
}

func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{data: map[string][]byte{}, puts: map[string]int{}}
}

func (m *MockKeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MockKeyValueStore) Put(_ context.Context, key string, value []byte) error {
	if m.PutFunc != nil {
		if err := m.PutFunc(key, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	m.puts[key]++
	return nil
}

func (m *MockKeyValueStore) Close() error { return nil }

func (m *MockKeyValueStore) Puts(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts[key]
}

func (m *MockKeyValueStore) Raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

var errDiskFull = errors.New("disk full")

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	kv     *MockKeyValueStore
	clock  *core.FakeClock
	store  *WorkflowStore
	binder *Binder
	tasks  *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := NewMockKeyValueStore()
	clock := core.NewFakeClock(testStart)
	store := NewWorkflowStore(kv, clock)
	require.NoError(t, store.Initialize(context.Background()))
	binder := NewBinder(store, clock)
	tasks := NewTaskService(kv, store, binder, clock)
	require.NoError(t, tasks.Initialize(context.Background()))
	return &fixture{kv: kv, clock: clock, store: store, binder: binder, tasks: tasks}
}
