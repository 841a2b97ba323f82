package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

// MockCall records a call to a mock.
type MockCall struct {
	Method    string
	Args      interface{}
	Timestamp time.Time
}

type callLog struct {
	mu    sync.Mutex
	calls []MockCall
}

func (c *callLog) record(method string, args interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, MockCall{Method: method, Args: args, Timestamp: time.Now()})
}

// Calls returns all recorded calls.
func (c *callLog) Calls() []MockCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]MockCall(nil), c.calls...)
}

// CallCount returns the number of calls to method.
func (c *callLog) CallCount(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Method == method {
			n++
		}
	}
	return n
}

// =============================================================================
// Messenger
// =============================================================================

// MockMessenger implements core.Messenger for testing.
type MockMessenger struct {
	callLog
	name     string
	pushFunc func(context.Context, []core.Record) error
}

// NewMockMessenger creates a new mock messenger.
func NewMockMessenger(name string) *MockMessenger {
	return &MockMessenger{name: name}
}

// Name returns the mock name.
func (m *MockMessenger) Name() string {
	return m.name
}

// Push records the batch and returns the configured result.
func (m *MockMessenger) Push(ctx context.Context, records []core.Record) error {
	m.record("Push", records)
	if m.pushFunc != nil {
		return m.pushFunc(ctx, records)
	}
	return nil
}

// WithPushFunc sets the push behavior.
func (m *MockMessenger) WithPushFunc(fn func(context.Context, []core.Record) error) *MockMessenger {
	m.pushFunc = fn
	return m
}

// WithError makes every push fail with err.
func (m *MockMessenger) WithError(err error) *MockMessenger {
	return m.WithPushFunc(func(context.Context, []core.Record) error { return err })
}

// Pushed returns the batches received so far.
func (m *MockMessenger) Pushed() [][]core.Record {
	var out [][]core.Record
	for _, c := range m.Calls() {
		out = append(out, c.Args.([]core.Record))
	}
	return out
}

// =============================================================================
// Last-run store
// =============================================================================

// MemoryStore is an in-memory core.LastRunStore.
type MemoryStore struct {
	callLog
	mu       sync.Mutex
	marker   *time.Time
	readErr  error
	writeErr error
}

// NewMemoryStore creates an empty store; Read returns core.Epoch until a
// marker is written.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read implements core.LastRunStore.
func (s *MemoryStore) Read(context.Context) (time.Time, error) {
	s.record("Read", nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return time.Time{}, s.readErr
	}
	if s.marker == nil {
		return core.Epoch, nil
	}
	return *s.marker, nil
}

// Write implements core.LastRunStore.
func (s *MemoryStore) Write(_ context.Context, t time.Time) error {
	s.record("Write", t)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	t = t.UTC()
	s.marker = &t
	return nil
}

// Set stores a marker without recording a call.
func (s *MemoryStore) Set(t time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	t = t.UTC()
	s.marker = &t
	return s
}

// Marker returns the stored marker and whether one exists.
func (s *MemoryStore) Marker() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marker == nil {
		return time.Time{}, false
	}
	return *s.marker, true
}

// WithReadError makes Read fail.
func (s *MemoryStore) WithReadError(err error) *MemoryStore {
	s.readErr = err
	return s
}

// WithWriteError makes Write fail.
func (s *MemoryStore) WithWriteError(err error) *MemoryStore {
	s.writeErr = err
	return s
}

// =============================================================================
// Locker
// =============================================================================

// MemoryLocker is a process-local core.Locker with the same fail-fast
// semantics as the file locker.
type MemoryLocker struct {
	callLog
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker creates a locker with nothing held.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

// TryLock implements core.Locker.
func (l *MemoryLocker) TryLock(ctx context.Context, name string) (core.Unlocker, error) {
	l.record("TryLock", name)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, core.ErrLockUnavailable(name)
	}
	l.held[name] = true
	return &memoryUnlock{l: l, name: name}, nil
}

// Held reports whether name is currently locked.
func (l *MemoryLocker) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[name]
}

type memoryUnlock struct {
	l    *MemoryLocker
	name string
	once sync.Once
}

func (u *memoryUnlock) Unlock() error {
	u.once.Do(func() {
		u.l.record("Unlock", u.name)
		u.l.mu.Lock()
		delete(u.l.held, u.name)
		u.l.mu.Unlock()
	})
	return nil
}
