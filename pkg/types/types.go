package types

import "time"

// Round is one betting street of a hand.
type Round string

const (
	RoundPreflop Round = "preflop"
	RoundFlop    Round = "flop"
	RoundTurn    Round = "turn"
	RoundRiver   Round = "river"
)

// RoundOrder is the fixed street progression.
var RoundOrder = []Round{RoundPreflop, RoundFlop, RoundTurn, RoundRiver}

var roundNames = map[Round]string{
	RoundPreflop: "Pre-Flop",
	RoundFlop:    "Flop",
	RoundTurn:    "Turn",
	RoundRiver:   "River",
}

// DisplayName returns the label shown in the round indicator.
func (r Round) DisplayName() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return string(r)
}

// Index returns the position of r in RoundOrder, or -1.
func (r Round) Index() int {
	for i, rr := range RoundOrder {
		if rr == r {
			return i
		}
	}
	return -1
}

// Next returns the following street, ok=false on the river.
func (r Round) Next() (Round, bool) {
	i := r.Index()
	if i < 0 || i >= len(RoundOrder)-1 {
		return r, false
	}
	return RoundOrder[i+1], true
}

// Player is one tracked player. Username is the identity everywhere;
// there is no surrogate id.
type Player struct {
	Username    string `json:"username"`
	Chips       int    `json:"chips"`
	CurrentBet  int    `json:"current_bet"`
	TotalBet    int    `json:"total_bet"`
	Folded      bool   `json:"folded"`
	TotalWon    int    `json:"total_won"`
	TotalLost   int    `json:"total_lost"`
	HandsPlayed int    `json:"hands_played"`
	HandsWon    int    `json:"hands_won"`
	Position    int    `json:"position"`
	IsActive    bool   `json:"is_active"`
}

// Log entry categories. Array order in the log is authoritative; the
// timestamp is for display only.
const (
	LogSystem       = "system"
	LogGameStart    = "gameStart"
	LogGameEnd      = "gameEnd"
	LogBlinds       = "blinds"
	LogBet          = "bet"
	LogFold         = "fold"
	LogRoundChange  = "roundChange"
	LogDistribution = "distribution"
)

type LogEntry struct {
	Type      string    `json:"type"`
	Username  string    `json:"username,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the complete server-pushed game state. It replaces all
// prior state on receipt; clients never merge or patch it.
type Snapshot struct {
	Players        []Player   `json:"players"`
	PlayerOrder    []string   `json:"player_order"`
	Active         bool       `json:"active"`
	Pot            int        `json:"pot"`
	GameLog        []LogEntry `json:"game_log"`
	CurrentRound   Round      `json:"current_round"`
	RoundName      string     `json:"round_name"`
	SmallBlind     int        `json:"small_blind"`
	BigBlind       int        `json:"big_blind"`
	DealerPosition int        `json:"dealer_position"`
}

// PlayerByName looks a player up by username. The snapshot is trusted
// wholesale, so a miss is an expected skip, not a fault.
func (s Snapshot) PlayerByName(username string) (Player, bool) {
	for _, p := range s.Players {
		if p.Username == username {
			return p, true
		}
	}
	return Player{}, false
}
