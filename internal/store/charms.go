// Package store holds the in-memory lifecycle collection of charms.
package store

import (
	"errors"
	"fmt"
	"sync"

	"charmstudio/internal/charm"
	"charmstudio/internal/events"
	"charmstudio/internal/logging"
)

var (
	// ErrNotFound is returned when no charm has the requested id.
	ErrNotFound = errors.New("charm not found")
	// ErrDuplicateID is returned when adding a charm whose id is taken.
	ErrDuplicateID = errors.New("duplicate charm id")
	// ErrIllegalMutation is returned when an update breaks a charm invariant.
	ErrIllegalMutation = errors.New("illegal charm mutation")
)

// CharmStore is the in-memory, append-only, insertion-ordered collection of
// charms. Charms go in and come out by value.
type CharmStore struct {
	mu     sync.RWMutex
	charms []charm.Charm
	index  map[string]int
	pub    events.Publisher
}

// NewCharmStore creates an empty store publishing changes to pub (may be nil).
func NewCharmStore(pub events.Publisher) *CharmStore {
	if pub == nil {
		pub = events.Discard
	}
	return &CharmStore{index: make(map[string]int), pub: pub}
}

// Add appends a charm.
func (s *CharmStore) Add(c charm.Charm) error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrIllegalMutation)
	}
	s.mu.Lock()
	if _, exists := s.index[c.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	s.index[c.ID] = len(s.charms)
	s.charms = append(s.charms, c.Clone())
	n := len(s.charms)
	s.mu.Unlock()

	logging.StoreDebug("added charm %s (%s), %d total", c.ID, c.Type, n)
	s.pub.Publish(events.Event{Kind: events.KindCharmAdded, CharmID: c.ID, Message: c.Title})
	return nil
}

// Get returns a copy of one charm.
func (s *CharmStore) Get(id string) (charm.Charm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return charm.Charm{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.charms[i].Clone(), nil
}

// List returns copies of all charms in insertion order.
func (s *CharmStore) List() []charm.Charm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]charm.Charm, len(s.charms))
	for i, c := range s.charms {
		out[i] = c.Clone()
	}
	return out
}

// Update applies mutate to the charm with the given id and stores the result.
// Every other charm is untouched. The result must keep the charm's identity
// fields, may only advance status by one lifecycle step, and may not rewrite
// proof fields once they are set.
func (s *CharmStore) Update(id string, mutate func(charm.Charm) charm.Charm) (charm.Charm, error) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return charm.Charm{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	before := s.charms[i]
	after := mutate(before.Clone())
	if err := checkMutation(before, after); err != nil {
		s.mu.Unlock()
		return charm.Charm{}, err
	}
	s.charms[i] = after.Clone()
	s.mu.Unlock()

	if before.Status != after.Status {
		logging.Store("charm %s: %s -> %s", id, before.Status, after.Status)
	}
	s.pub.Publish(events.Event{Kind: events.KindCharmUpdated, CharmID: id, Message: string(after.Status)})
	return after, nil
}

func checkMutation(before, after charm.Charm) error {
	switch {
	case after.ID != before.ID:
		return fmt.Errorf("%w: id changed", ErrIllegalMutation)
	case after.Type != before.Type, after.Title != before.Title, after.Content != before.Content:
		return fmt.Errorf("%w: identity fields are immutable", ErrIllegalMutation)
	case !after.CreatedAt.Equal(before.CreatedAt):
		return fmt.Errorf("%w: creation time is immutable", ErrIllegalMutation)
	case !sameSources(before.Sources, after.Sources):
		return fmt.Errorf("%w: sources are immutable", ErrIllegalMutation)
	}

	if after.Status != before.Status && !before.Status.CanAdvanceTo(after.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalMutation, before.Status, after.Status)
	}

	for _, f := range []struct{ name, was, now string }{
		{"commitTx", before.CommitTx, after.CommitTx},
		{"spellTx", before.SpellTx, after.SpellTx},
		{"txId", before.TxID, after.TxID},
		{"appId", before.AppID, after.AppID},
		{"vk", before.VK, after.VK},
		{"ownerAddress", before.OwnerAddress, after.OwnerAddress},
	} {
		if f.was != "" && f.was != f.now {
			return fmt.Errorf("%w: %s already set", ErrIllegalMutation, f.name)
		}
	}
	return nil
}

func sameSources(a, b []charm.Source) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
