package types

// Wire event names. These are the contract with every connected client.

// Client -> Server
const (
	EvtJoinGame       = "join_game"
	EvtLeaveGame      = "leave_game"
	EvtStartGame      = "start_game"
	EvtPlaceBet       = "place_bet"
	EvtFold           = "fold"
	EvtUnfold         = "unfold"
	EvtNextRound      = "next_round"
	EvtDistributePot  = "distribute_pot"
	EvtEndGame        = "end_game"
	EvtAdjustChips    = "adjust_chips"
	EvtReorderPlayers = "reorder_players"
)

// Server -> Client
const (
	EvtGameStateUpdate = "game_state_update"
	EvtPlayerJoined    = "player_joined"
	EvtPlayerLeft      = "player_left"
	EvtPlayerRemoved   = "player_removed"
	EvtGameStarted     = "game_started"
	EvtBetPlaced       = "bet_placed"
	EvtPlayerFolded    = "player_folded"
	EvtRoundChanged    = "round_changed"
	EvtPotDistributed  = "pot_distributed"
	EvtGameEnded       = "game_ended"
	EvtPlayerUpdated   = "player_updated"
	EvtError           = "error"
)

// ClientMessage is an intent from a client. Only the fields the named
// event uses are set; join_game, next_round and end_game carry no payload.
type ClientMessage struct {
	Type        string   `json:"type"`
	Username    string   `json:"username,omitempty"`
	Amount      int      `json:"amount,omitempty"`
	SmallBlind  int      `json:"small_blind,omitempty"`
	BigBlind    int      `json:"big_blind,omitempty"`
	PlayerOrder []string `json:"player_order,omitempty"`
}

// ServerMessage is a pushed event. game_state_update carries State and is
// the only event that replaces client state; the rest are informational.
type ServerMessage struct {
	Type     string    `json:"type"`
	Version  int       `json:"version,omitempty"`
	State    *Snapshot `json:"state,omitempty"`
	Username string    `json:"username,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Round    Round     `json:"round,omitempty"`
	Error    string    `json:"error,omitempty"`
}
