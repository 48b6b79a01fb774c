package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/chiptrack/chiptrack/pkg/types"
)

const (
	DefaultChips      = 1000
	DefaultSmallBlind = 5
	DefaultBigBlind   = 10
)

// now stamps log entries; tests swap it for a fixed clock.
var now = time.Now

func NewEmptyState() State {
	return State{
		Players:    map[string]types.Player{},
		Round:      types.RoundPreflop,
		SmallBlind: DefaultSmallBlind,
		BigBlind:   DefaultBigBlind,
	}
}

// NewStateFromPlayers rebuilds a state from persisted players, keeping
// their stored positions as the seating order.
func NewStateFromPlayers(players []types.Player) State {
	s := NewEmptyState()
	sorted := slices.Clone(players)
	slices.SortFunc(sorted, func(a, b types.Player) int { return a.Position - b.Position })
	for i, p := range sorted {
		p.Position = i
		p.IsActive = true
		s.Players[p.Username] = p
		s.Order = append(s.Order, p.Username)
	}
	return s
}

func (s State) clone() State {
	ns := s
	ns.Players = maps.Clone(s.Players)
	ns.Order = slices.Clone(s.Order)
	ns.Log = slices.Clone(s.Log)
	return ns
}

func (s *State) updatePositions() {
	for i, name := range s.Order {
		if p, ok := s.Players[name]; ok {
			p.Position = i
			s.Players[name] = p
		}
	}
}

func (s *State) addLog(kind, username string, amount int, message string) {
	s.Log = append(s.Log, types.LogEntry{
		Type:      kind,
		Username:  username,
		Amount:    amount,
		Message:   message,
		Timestamp: now(),
	})
}

// Snapshot projects the state into the wire form. Players are listed in
// seating order; a name in Order with no Player record is skipped rather
// than faulted.
func (s State) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		Players:        []types.Player{},
		PlayerOrder:    slices.Clone(s.Order),
		Active:         s.Active,
		Pot:            s.Pot,
		GameLog:        slices.Clone(s.Log),
		CurrentRound:   s.Round,
		RoundName:      s.Round.DisplayName(),
		SmallBlind:     s.SmallBlind,
		BigBlind:       s.BigBlind,
		DealerPosition: s.DealerPosition,
	}
	if snap.PlayerOrder == nil {
		snap.PlayerOrder = []string{}
	}
	if snap.GameLog == nil {
		snap.GameLog = []types.LogEntry{}
	}
	for _, name := range s.Order {
		if p, ok := s.Players[name]; ok {
			snap.Players = append(snap.Players, p)
		}
	}
	return snap
}

// PlayersSlice returns the players in seating order, for persistence.
func (s State) PlayersSlice() []types.Player {
	out := make([]types.Player, 0, len(s.Players))
	for _, name := range s.Order {
		if p, ok := s.Players[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
