package client

import (
	"sync"

	"github.com/chiptrack/chiptrack/pkg/types"
)

// Store is the single cell holding the last authoritative snapshot plus
// the purely local UI state (selected player, theme). The snapshot is
// replaced wholesale on every push; the local fields live outside it and
// survive replacement. A selected player that later vanishes from the
// snapshot is kept as-is and simply stops matching anything.
type Store struct {
	mu       sync.RWMutex
	snap     types.Snapshot
	haveSnap bool
	selected string
	theme    string
}

const DefaultTheme = "casino"

func NewStore() *Store {
	return &Store{theme: DefaultTheme}
}

// ReplaceSnapshot swaps in a new authoritative snapshot. No merging, no
// field-level defaulting: the server push is trusted wholesale.
func (s *Store) ReplaceSnapshot(snap types.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.haveSnap = true
}

// Snapshot returns the current snapshot; ok is false before the first push.
func (s *Store) Snapshot() (types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.haveSnap
}

func (s *Store) SetSelectedPlayer(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = username
}

func (s *Store) SelectedPlayer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) SetTheme(theme string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
}

func (s *Store) Theme() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Local bundles the local-only fields for the view projection.
func (s *Store) Local() Local {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Local{SelectedPlayer: s.selected, Theme: s.theme}
}

type Local struct {
	SelectedPlayer string
	Theme          string
}
