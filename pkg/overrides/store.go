// Package overrides persists per-user setting override sets. The engine
// itself never touches this state; callers load a snapshot, pass it through
// the resolver/validator contracts, and save the complete replacement.
package overrides

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Set maps canonical setting key to the validated literal value stored for
// one user.
type Set map[string]string

// Clone returns a detached copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for key, value := range s {
		out[key] = value
	}
	return out
}

// Meta is storage-owned metadata for audit and tracing.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Store loads and saves one override snapshot per user identity. Reads may
// run concurrently; writers for the same user are serialized by Manager.
type Store interface {
	Load(ctx context.Context, userID string) (Set, Meta, bool, error)
	Save(ctx context.Context, userID string, set Set, meta Meta) (Meta, error)
}

// Mutator applies one change to a user's override set in place.
type Mutator func(Set) error

// ChangeHook observes committed mutations.
type ChangeHook func(userID string, set Set)

var ErrStoreRequired = errors.New("overrides: store is required")

// Manager guards a Store with the engine's concurrency contract: at most
// one in-flight mutation per user identity, unlimited concurrent reads.
type Manager struct {
	store Store
	hooks []ChangeHook

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithChangeHook registers a hook invoked after every committed mutation.
func WithChangeHook(hook ChangeHook) ManagerOption {
	return func(m *Manager) {
		if hook != nil {
			m.hooks = append(m.hooks, hook)
		}
	}
}

// NewManager wraps store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: store,
		locks: map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Get returns the user's current override set, empty when none exists.
func (m *Manager) Get(ctx context.Context, userID string) (Set, error) {
	if m.store == nil {
		return nil, ErrStoreRequired
	}
	set, _, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("overrides: load %q: %w", userID, err)
	}
	if !ok {
		return Set{}, nil
	}
	return set, nil
}

// Mutate loads the user's set, applies fn, and saves the replacement.
// Mutations for the same user never interleave.
func (m *Manager) Mutate(ctx context.Context, userID string, fn Mutator) (Set, Meta, error) {
	if m.store == nil {
		return nil, Meta{}, ErrStoreRequired
	}
	if fn == nil {
		return nil, Meta{}, errors.New("overrides: mutator is required")
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	set, _, ok, err := m.store.Load(ctx, userID)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("overrides: load %q: %w", userID, err)
	}
	if !ok {
		set = Set{}
	}

	if err := fn(set); err != nil {
		return nil, Meta{}, err
	}

	meta := Meta{SnapshotID: uuid.NewString(), UpdatedAt: time.Now().UTC()}
	savedMeta, err := m.store.Save(ctx, userID, set, meta)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("overrides: save %q: %w", userID, err)
	}
	for _, hook := range m.hooks {
		hook(userID, set.Clone())
	}
	return set, savedMeta, nil
}

// Reset clears the user's override set.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	_, _, err := m.Mutate(ctx, userID, func(set Set) error {
		for key := range set {
			delete(set, key)
		}
		return nil
	})
	return err
}

func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}
