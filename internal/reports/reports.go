package reports

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salescope/salescope/config"
)

// Handle represents an in-memory parsed report paired with metadata for TTL
// eviction. The underlying Table is immutable once loaded; concurrent reads
// need no locking beyond handle lifetime.
type Handle struct {
	ID        string
	Table     *Table
	LoadedAt  time.Time
	ExpiresAt time.Time
	mu        sync.RWMutex
}

// ReportGate coordinates capacity for open report handles (backed by runtime.Controller).
type ReportGate interface {
	AcquireReport(ctx context.Context) error
	ReleaseReport()
}

// PathValidator abstracts filesystem path validation. Implementations should
// return a canonical absolute path if allowed, or an error when denied.
type PathValidator interface {
	ValidateOpenPath(path string) (string, error)
}

// Manager provides lifecycle hooks for opening and closing reports and a
// TTL-bearing handle cache keyed by handle ID, with a path index for reuse.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	byPath       map[string]string
	ttl          time.Duration
	cleanupEvery time.Duration
	maxRows      int
	clock        func() time.Time
	gate         ReportGate
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
	validator    PathValidator
}

// NewManager constructs a lifecycle manager with TTL-bearing handle cache.
// Pass ttl or cleanupEvery <= 0 to use defaults from config.
// Gate can be nil for tests; clock defaults to time.Now when nil.
func NewManager(ttl, cleanupEvery time.Duration, gate ReportGate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultReportIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultReportCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		byPath:       make(map[string]string),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		maxRows:      config.DefaultMaxRowsPerOp,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// WithValidator installs a path validator (allow-list enforcement).
func (m *Manager) WithValidator(v PathValidator) *Manager {
	m.validator = v
	return m
}

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all open handles.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.handles {
		delete(m.handles, id)
		if m.gate != nil {
			m.gate.ReleaseReport()
		}
	}
	m.byPath = make(map[string]string)
	return nil
}

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = errors.New("reports: handle not found")

// Open loads a report from the given path, registers a TTL-bearing handle,
// and returns its ID and the canonical path. The manager enforces open-report
// capacity via the gate when provided.
func (m *Manager) Open(ctx context.Context, path string) (string, string, error) {
	if m.validator != nil {
		canonical, err := m.validator.ValidateOpenPath(path)
		if err != nil {
			return "", "", err
		}
		path = canonical
	}

	if err := m.acquire(ctx); err != nil {
		return "", "", err
	}

	tbl, err := LoadTable(path, m.maxRows)
	if err != nil {
		m.release()
		return "", "", err
	}

	id := uuid.NewString()
	loadedAt := m.clock()
	h := &Handle{
		ID:        id,
		Table:     tbl,
		LoadedAt:  loadedAt,
		ExpiresAt: loadedAt.Add(m.ttl),
	}

	m.mu.Lock()
	m.handles[id] = h
	m.byPath[path] = id
	m.mu.Unlock()

	return id, path, nil
}

// GetOrOpenByPath reuses an existing handle for the path when present,
// otherwise opens the report fresh. Returns the handle ID and canonical path.
func (m *Manager) GetOrOpenByPath(ctx context.Context, path string) (string, string, error) {
	canonical := path
	if m.validator != nil {
		c, err := m.validator.ValidateOpenPath(path)
		if err != nil {
			return "", "", err
		}
		canonical = c
	}

	m.mu.RLock()
	id, ok := m.byPath[canonical]
	m.mu.RUnlock()
	if ok {
		if _, live := m.Get(id); live {
			return id, canonical, nil
		}
	}
	return m.Open(ctx, canonical)
}

// Adopt registers an already-parsed table as a managed handle. Intended for
// tests or flows that receive rows from an external transport.
func (m *Manager) Adopt(ctx context.Context, tbl *Table) (string, error) {
	if tbl == nil {
		return "", fmt.Errorf("reports: nil table")
	}
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	id := uuid.NewString()
	loadedAt := m.clock()
	m.mu.Lock()
	m.handles[id] = &Handle{ID: id, Table: tbl, LoadedAt: loadedAt, ExpiresAt: loadedAt.Add(m.ttl)}
	m.mu.Unlock()
	return id, nil
}

// Get returns the handle when present and refreshes its TTL.
func (m *Manager) Get(id string) (*Handle, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Refresh TTL on access (idle timeout semantics)
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h, true
}

// WithTable executes fn against the handle's table under a shared read lock.
func (m *Manager) WithTable(id string, fn func(*Table) error) error {
	h, ok := m.Get(id)
	if !ok {
		return ErrHandleNotFound
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.Table)
}

// CloseHandle removes a handle by ID, releasing capacity via the gate.
func (m *Manager) CloseHandle(ctx context.Context, id string) error {
	m.mu.Lock()
	h, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
		delete(m.byPath, h.Table.Source)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	m.release()
	return nil
}

// EvictExpired scans for expired handles and drops them.
func (m *Manager) EvictExpired() {
	now := m.clock()

	m.mu.Lock()
	var expired []string
	for id, h := range m.handles {
		if h.Expired(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		h := m.handles[id]
		delete(m.handles, id)
		delete(m.byPath, h.Table.Source)
	}
	m.mu.Unlock()

	for range expired {
		m.release()
	}
}

// Count returns the current number of cached handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}

func (m *Manager) acquire(ctx context.Context) error {
	if m.gate == nil {
		return nil
	}
	return m.gate.AcquireReport(ctx)
}

func (m *Manager) release() {
	if m.gate == nil {
		return
	}
	m.gate.ReleaseReport()
}

// Expired reports whether the handle has reached its TTL.
func (h *Handle) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return now.After(h.ExpiresAt)
}
