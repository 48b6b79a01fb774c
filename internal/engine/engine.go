package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chiptrack/chiptrack/pkg/types"
)

var ErrNotActive = errors.New("no game in progress")
var ErrNeedTwoPlayers = errors.New("need at least 2 players to start a game")
var ErrUnknownPlayer = errors.New("player not in game")
var ErrDuplicatePlayer = errors.New("player already in game")
var ErrPlayerFolded = errors.New("player has folded")
var ErrInvalidBet = errors.New("invalid bet amount")
var ErrInvalidAmount = errors.New("invalid amount")
var ErrPotExceeded = errors.New("amount exceeds the pot")
var ErrFinalRound = errors.New("already at the final round")
var ErrBadOrder = errors.New("new order must contain the same players")
var ErrUnsupportedCommand = errors.New("unsupported command")

type CommandType string

const (
	CmdAddPlayer     CommandType = "AddPlayer"
	CmdRemovePlayer  CommandType = "RemovePlayer"
	CmdLeaveGame     CommandType = "LeaveGame"
	CmdReorder       CommandType = "Reorder"
	CmdStartGame     CommandType = "StartGame"
	CmdPlaceBet      CommandType = "PlaceBet"
	CmdFold          CommandType = "Fold"
	CmdUnfold        CommandType = "Unfold"
	CmdNextRound     CommandType = "NextRound"
	CmdDistributePot CommandType = "DistributePot"
	CmdEndGame       CommandType = "EndGame"
	CmdAdjustChips   CommandType = "AdjustChips"
)

type Command struct {
	Type       CommandType
	Username   string
	Amount     int
	Chips      int // starting stack for AddPlayer
	SmallBlind int
	BigBlind   int
	Order      []string

	// Seed is a returning player's persisted row. AddPlayer restores the
	// stack and career stats from it instead of starting fresh.
	Seed *types.Player
}

type EventType string

const (
	EvtPlayerJoined   EventType = "PlayerJoined"
	EvtPlayerLeft     EventType = "PlayerLeft"
	EvtPlayerRemoved  EventType = "PlayerRemoved"
	EvtGameStarted    EventType = "GameStarted"
	EvtBetPlaced      EventType = "BetPlaced"
	EvtPlayerFolded   EventType = "PlayerFolded"
	EvtRoundChanged   EventType = "RoundChanged"
	EvtPotDistributed EventType = "PotDistributed"
	EvtGameEnded      EventType = "GameEnded"
	EvtPlayerUpdated  EventType = "PlayerUpdated"
)

type Event struct {
	Type     EventType
	Username string
	Amount   int
	Round    types.Round
}

// State is the whole tracked game. Apply never mutates its input; every
// command returns a fresh copy so broadcast snapshots stay stable.
type State struct {
	Players        map[string]types.Player
	Order          []string
	Active         bool
	Pot            int
	Log            []types.LogEntry
	Round          types.Round
	SmallBlind     int
	BigBlind       int
	DealerPosition int
}

// Apply runs one command against the state. The returned events mirror the
// informational wire events; the caller broadcasts them ahead of the
// snapshot they belong to.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdAddPlayer:
		if _, ok := s.Players[cmd.Username]; ok {
			return nil, s, ErrDuplicatePlayer
		}
		ns := s.clone()
		p := types.Player{Username: cmd.Username, Chips: DefaultChips}
		if cmd.Seed != nil {
			p = *cmd.Seed
			p.Username = cmd.Username
			// per-hand fields never survive a rejoin
			p.CurrentBet = 0
			p.TotalBet = 0
			p.Folded = false
		} else if cmd.Chips > 0 {
			p.Chips = cmd.Chips
		}
		p.Position = len(ns.Order)
		p.IsActive = true
		ns.Players[cmd.Username] = p
		ns.Order = append(ns.Order, cmd.Username)
		ns.addLog(types.LogSystem, cmd.Username, 0,
			fmt.Sprintf("Player %s joined the game", cmd.Username))
		return []Event{{Type: EvtPlayerJoined, Username: cmd.Username}}, ns, nil

	case CmdRemovePlayer, CmdLeaveGame:
		if _, ok := s.Players[cmd.Username]; !ok {
			return nil, s, ErrUnknownPlayer
		}
		ns := s.clone()
		delete(ns.Players, cmd.Username)
		if i := slices.Index(ns.Order, cmd.Username); i >= 0 {
			ns.Order = slices.Delete(ns.Order, i, i+1)
		}
		ns.updatePositions()
		ns.addLog(types.LogSystem, cmd.Username, 0,
			fmt.Sprintf("Player %s left the game", cmd.Username))
		evt := EvtPlayerLeft
		if cmd.Type == CmdRemovePlayer {
			evt = EvtPlayerRemoved
		}
		return []Event{{Type: evt, Username: cmd.Username}}, ns, nil

	case CmdReorder:
		cur := slices.Clone(s.Order)
		next := slices.Clone(cmd.Order)
		slices.Sort(cur)
		slices.Sort(next)
		if !slices.Equal(cur, next) {
			return nil, s, ErrBadOrder
		}
		ns := s.clone()
		ns.Order = slices.Clone(cmd.Order)
		ns.updatePositions()
		return []Event{{Type: EvtPlayerUpdated}}, ns, nil

	case CmdStartGame:
		if len(s.Players) < 2 {
			return nil, s, ErrNeedTwoPlayers
		}
		ns := s.clone()
		ns.Active = true
		ns.Pot = 0
		ns.Round = types.RoundPreflop
		ns.SmallBlind = cmd.SmallBlind
		ns.BigBlind = cmd.BigBlind
		if ns.SmallBlind <= 0 {
			ns.SmallBlind = DefaultSmallBlind
		}
		if ns.BigBlind <= 0 {
			ns.BigBlind = DefaultBigBlind
		}
		ns.Log = nil
		for name, p := range ns.Players {
			p.CurrentBet = 0
			p.TotalBet = 0
			p.Folded = false
			p.HandsPlayed++
			ns.Players[name] = p
		}
		ns.addLog(types.LogGameStart, "", 0, "Game started")
		ns.postBlinds()
		return []Event{{Type: EvtGameStarted}}, ns, nil

	case CmdPlaceBet:
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Active {
			return nil, s, ErrNotActive
		}
		if p.Folded {
			return nil, s, ErrPlayerFolded
		}
		if cmd.Amount <= 0 || cmd.Amount > p.Chips {
			return nil, s, ErrInvalidBet
		}
		ns := s.clone()
		ns.bet(cmd.Username, cmd.Amount)
		ns.addLog(types.LogBet, cmd.Username, cmd.Amount,
			fmt.Sprintf("%s bet $%d in %s. Total pot: $%d.",
				cmd.Username, cmd.Amount, ns.Round.DisplayName(), ns.Pot))
		return []Event{{Type: EvtBetPlaced, Username: cmd.Username, Amount: cmd.Amount}}, ns, nil

	case CmdFold:
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Active {
			return nil, s, ErrNotActive
		}
		ns := s.clone()
		p.Folded = true
		ns.Players[cmd.Username] = p
		ns.addLog(types.LogFold, cmd.Username, 0, fmt.Sprintf("%s folded", cmd.Username))
		return []Event{{Type: EvtPlayerFolded, Username: cmd.Username}}, ns, nil

	case CmdUnfold:
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Active {
			return nil, s, ErrNotActive
		}
		ns := s.clone()
		p.Folded = false
		ns.Players[cmd.Username] = p
		ns.addLog(types.LogFold, cmd.Username, 0, fmt.Sprintf("%s returned to game", cmd.Username))
		return []Event{{Type: EvtPlayerUpdated, Username: cmd.Username}}, ns, nil

	case CmdNextRound:
		if !s.Active {
			return nil, s, ErrNotActive
		}
		next, ok := s.Round.Next()
		if !ok {
			return nil, s, ErrFinalRound
		}
		ns := s.clone()
		ns.Round = next
		for name, p := range ns.Players {
			p.CurrentBet = 0
			ns.Players[name] = p
		}
		ns.addLog(types.LogRoundChange, "", 0,
			fmt.Sprintf("Round changed to %s", next.DisplayName()))
		return []Event{{Type: EvtRoundChanged, Round: next}}, ns, nil

	case CmdDistributePot:
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if !s.Active {
			return nil, s, ErrNotActive
		}
		if cmd.Amount <= 0 {
			return nil, s, ErrInvalidAmount
		}
		if cmd.Amount > s.Pot {
			return nil, s, ErrPotExceeded
		}
		ns := s.clone()
		p.Chips += cmd.Amount
		p.TotalWon += cmd.Amount
		p.HandsWon++
		ns.Players[cmd.Username] = p
		ns.Pot -= cmd.Amount
		ns.addLog(types.LogDistribution, cmd.Username, cmd.Amount,
			fmt.Sprintf("%s received $%d from the pot. Remaining pot: $%d",
				cmd.Username, cmd.Amount, ns.Pot))
		return []Event{{Type: EvtPotDistributed, Username: cmd.Username, Amount: cmd.Amount}}, ns, nil

	case CmdEndGame:
		if !s.Active {
			return nil, s, ErrNotActive
		}
		ns := s.clone()
		ns.Active = false
		ns.addLog(types.LogGameEnd, "", 0, fmt.Sprintf("Game ended with pot: $%d", ns.Pot))
		if len(ns.Order) > 0 {
			ns.DealerPosition = (ns.DealerPosition + 1) % len(ns.Order)
		}
		return []Event{{Type: EvtGameEnded}}, ns, nil

	case CmdAdjustChips:
		p, ok := s.Players[cmd.Username]
		if !ok {
			return nil, s, ErrUnknownPlayer
		}
		if cmd.Amount == 0 {
			return nil, s, ErrInvalidAmount
		}
		ns := s.clone()
		amount := cmd.Amount
		if p.Chips+amount < 0 {
			amount = -p.Chips
		}
		p.Chips += amount
		if amount > 0 {
			p.TotalWon += amount
		} else {
			p.TotalLost -= amount
		}
		ns.Players[cmd.Username] = p
		verb := "added to"
		if amount < 0 {
			verb = "removed from"
		}
		ns.addLog(types.LogSystem, cmd.Username, amount,
			fmt.Sprintf("$%d %s %s's stack", abs(amount), verb, cmd.Username))
		return []Event{{Type: EvtPlayerUpdated, Username: cmd.Username, Amount: amount}}, ns, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// bet moves chips from a player to the pot. Caller has validated amount.
func (s *State) bet(username string, amount int) {
	p := s.Players[username]
	p.Chips -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	p.TotalLost += amount
	s.Players[username] = p
	s.Pot += amount
}

// postBlinds posts the forced bets from the two seats after the dealer.
// A blind is only posted when the seat can cover it in full.
func (s *State) postBlinds() {
	n := len(s.Order)
	if n < 2 {
		return
	}
	sbName := s.Order[(s.DealerPosition+1)%n]
	bbName := s.Order[(s.DealerPosition+2)%n]

	if p, ok := s.Players[sbName]; ok && p.Chips >= s.SmallBlind {
		s.bet(sbName, s.SmallBlind)
		s.addLog(types.LogBlinds, sbName, s.SmallBlind,
			fmt.Sprintf("%s posted small blind: $%d", sbName, s.SmallBlind))
	}
	if p, ok := s.Players[bbName]; ok && p.Chips >= s.BigBlind {
		s.bet(bbName, s.BigBlind)
		s.addLog(types.LogBlinds, bbName, s.BigBlind,
			fmt.Sprintf("%s posted big blind: $%d", bbName, s.BigBlind))
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
