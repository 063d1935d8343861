package session

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
)

// Sentinel errors for store operations. Both carry structured codes, so
// errors.HTTPStatus maps them to 404 and 410.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New(errors.ErrCodeSessionExpired, "session expired")
)

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a snapshot by ID. It returns ErrNotFound for unknown
	// ids and ErrExpired for sessions past their TTL.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set stores a snapshot and refreshes its expiry.
	Set(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns summaries of live sessions, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Cleanup removes expired sessions (may be a no-op where the backend
	// expires entries itself).
	Cleanup(ctx context.Context) error

	Close() error
}

// stamp sets the expiry of snap from ttl; a non-positive ttl never expires.
func stamp(snap *Snapshot, ttl time.Duration) {
	if ttl > 0 {
		snap.ExpiresAt = time.Now().Add(ttl)
	} else {
		snap.ExpiresAt = time.Time{}
	}
}

func sortSummaries(out []Summary) {
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// =============================================================================
// Memory
// =============================================================================

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	snaps map[string]*Snapshot
}

// NewMemoryStore creates an empty store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, snaps: make(map[string]*Snapshot)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.snaps[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if snap.IsExpired() {
		s.mu.Lock()
		delete(s.snaps, id)
		s.mu.Unlock()
		return nil, ErrExpired
	}
	return clone(snap), nil
}

func (s *MemoryStore) Set(_ context.Context, snap *Snapshot) error {
	stamp(snap, s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = clone(snap)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.snaps))
	for _, snap := range s.snaps {
		if !snap.IsExpired() {
			out = append(out, snap.Summary())
		}
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range s.snaps {
		if snap.IsExpired() {
			delete(s.snaps, id)
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)

// clone deep-copies snap so callers cannot alias stored state.
func clone(snap *Snapshot) *Snapshot {
	c := *snap
	c.Data = snap.Data.Clone()
	c.Mappings = make(map[mapping.ChartType]mapping.Mapping, len(snap.Mappings))
	for ct, m := range snap.Mappings {
		c.Mappings[ct] = m.Clone()
	}
	c.Palette = slices.Clone(snap.Palette)
	return &c
}
