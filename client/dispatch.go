package client

import (
	"strconv"
	"strings"
)

// Emitter is the outbound half of the connection the dispatcher needs.
// *Client satisfies it; tests substitute a fake.
type Emitter interface {
	StartGame(smallBlind, bigBlind int) error
	PlaceBet(username string, amount int) error
	Fold(username string) error
	Unfold(username string) error
	NextRound() error
	DistributePot(username string, amount int) error
	EndGame() error
	AdjustChips(username string, amount int) error
	ReorderPlayers(order []string) error
	RemovePlayer(username string) error
}

// Dispatcher turns raw user input into validated intents. Invalid input
// produces exactly one notification and no network traffic; valid input
// produces exactly one emission. It never mutates the snapshot itself.
type Dispatcher struct {
	store    *Store
	notifier *Notifier
	emit     Emitter
}

func NewDispatcher(store *Store, notifier *Notifier, emit Emitter) *Dispatcher {
	return &Dispatcher{store: store, notifier: notifier, emit: emit}
}

func (d *Dispatcher) reject(message string) {
	d.notifier.Notify(message)
}

func parseAmount(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// StartGame parses optional blind overrides. Blank or unparseable input
// falls back to the standard 5/10 structure rather than failing.
func (d *Dispatcher) StartGame(smallBlindRaw, bigBlindRaw string) {
	sb, ok := parseAmount(smallBlindRaw)
	if !ok || sb <= 0 {
		sb = 5
	}
	bb, okBB := parseAmount(bigBlindRaw)
	if !okBB || bb <= 0 {
		bb = 10
	}
	_ = d.emit.StartGame(sb, bb)
}

// Bet places a wager for the currently selected player.
func (d *Dispatcher) Bet(amountRaw string) {
	username := d.store.SelectedPlayer()
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	amount, ok := parseAmount(amountRaw)
	if !ok || amount <= 0 {
		d.reject("Please enter a valid bet amount")
		return
	}
	_ = d.emit.PlaceBet(username, amount)
}

// QuickBet places a pre-computed suggestion amount for the selected player.
func (d *Dispatcher) QuickBet(amount int) {
	username := d.store.SelectedPlayer()
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	if amount <= 0 {
		d.reject("Please enter a valid bet amount")
		return
	}
	_ = d.emit.PlaceBet(username, amount)
}

func (d *Dispatcher) Fold() {
	username := d.store.SelectedPlayer()
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	_ = d.emit.Fold(username)
}

// Unfold brings a mistakenly folded player back into the hand.
func (d *Dispatcher) Unfold() {
	username := d.store.SelectedPlayer()
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	_ = d.emit.Unfold(username)
}

func (d *Dispatcher) NextRound() {
	_ = d.emit.NextRound()
}

// Distribute awards part of the pot to the named winner.
func (d *Dispatcher) Distribute(username, amountRaw string) {
	if username == "" {
		d.reject("Please select a winner first")
		return
	}
	amount, ok := parseAmount(amountRaw)
	if !ok || amount <= 0 {
		d.reject("Please enter a valid payout amount")
		return
	}
	_ = d.emit.DistributePot(username, amount)
}

// EndGame requires an explicit confirmation before anything leaves the
// machine; ending a game is not reversible from the table screen.
func (d *Dispatcher) EndGame(confirmed bool) {
	if !confirmed {
		d.reject("End game cancelled")
		return
	}
	_ = d.emit.EndGame()
}

// AdjustChips applies a signed correction to a player's stack.
func (d *Dispatcher) AdjustChips(username, amountRaw string) {
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	amount, ok := parseAmount(amountRaw)
	if !ok {
		d.reject("Please enter a valid chip amount")
		return
	}
	if amount == 0 {
		d.reject("Adjustment cannot be zero")
		return
	}
	_ = d.emit.AdjustChips(username, amount)
}

// Reorder submits a new seating order. The order must be a permutation of
// the current roster; anything else is rejected locally.
func (d *Dispatcher) Reorder(order []string) {
	snap, ok := d.store.Snapshot()
	if !ok {
		d.reject("No game state yet")
		return
	}
	if !isPermutation(order, snap.PlayerOrder) {
		d.reject("Invalid player order")
		return
	}
	_ = d.emit.ReorderPlayers(order)
}

// Remove kicks a player from the roster after an explicit confirmation.
func (d *Dispatcher) Remove(username string, confirmed bool) {
	if username == "" {
		d.reject("Please select a player first")
		return
	}
	if !confirmed {
		d.reject("Removal cancelled")
		return
	}
	_ = d.emit.RemovePlayer(username)
}

// MovePlayerUp swaps the player one seat toward the front of the order.
func (d *Dispatcher) MovePlayerUp(username string) {
	d.movePlayer(username, -1)
}

// MovePlayerDown swaps the player one seat toward the back of the order.
func (d *Dispatcher) MovePlayerDown(username string) {
	d.movePlayer(username, +1)
}

func (d *Dispatcher) movePlayer(username string, delta int) {
	snap, ok := d.store.Snapshot()
	if !ok {
		d.reject("No game state yet")
		return
	}
	idx := -1
	for i, name := range snap.PlayerOrder {
		if name == username {
			idx = i
			break
		}
	}
	if idx < 0 {
		d.reject("Unknown player")
		return
	}
	j := idx + delta
	if j < 0 || j >= len(snap.PlayerOrder) {
		// already at the boundary, nothing to do
		return
	}
	order := make([]string, len(snap.PlayerOrder))
	copy(order, snap.PlayerOrder)
	order[idx], order[j] = order[j], order[idx]
	_ = d.emit.ReorderPlayers(order)
}

func isPermutation(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]int, len(want))
	for _, name := range want {
		seen[name]++
	}
	for _, name := range got {
		seen[name]--
		if seen[name] < 0 {
			return false
		}
	}
	return true
}
