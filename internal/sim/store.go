package sim

import "sync"

// Store holds the observable conversation-set state. Each scheduler task owns
// one set index and publishes whole-set replacements, so readers never see a
// half-written set. The generation counter fences off publishes from runs
// that were abandoned by a Reset or a newer Begin.
type Store struct {
	mu   sync.RWMutex
	gen  uint64
	sets []ConversationSet
}

func NewStore() *Store {
	return &Store{}
}

// Begin installs n fresh empty sets and returns the generation token that
// publishes for this run must carry.
func (s *Store) Begin(sets []ConversationSet) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sets = make([]ConversationSet, len(sets))
	copy(s.sets, sets)
	return s.gen
}

// Publish replaces one set. A stale generation token makes it a no-op; a late
// publish from an abandoned run must not resurrect its state.
func (s *Store) Publish(gen uint64, idx int, set ConversationSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || idx < 0 || idx >= len(s.sets) {
		return
	}
	s.sets[idx] = set
}

// Snapshot returns a copy of the current set list.
func (s *Store) Snapshot() []ConversationSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ConversationSet, len(s.sets))
	copy(out, s.sets)
	return out
}

// Reset discards all state and invalidates outstanding publishes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.sets = nil
}
