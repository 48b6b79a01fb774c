package table

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chiptrack/chiptrack/internal/engine"
	"github.com/chiptrack/chiptrack/internal/store"
	"github.com/chiptrack/chiptrack/pkg/types"
)

type Msg interface{ isTableMsg() }

// FromClient submits one command. ClientID routes an engine rejection back
// to the submitting connection as an error event; Reply, when non-nil,
// additionally receives the synchronous result (the REST surface uses it).
type FromClient struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error
}

func (FromClient) isTableMsg() {}

type Join struct {
	ClientID string
	Outbox   chan types.ServerMessage // where this client receives pushes
}

func (Join) isTableMsg() {}

type Leave struct{ ClientID string }

func (Leave) isTableMsg() {}

type Shutdown struct{}

func (Shutdown) isTableMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isTableMsg() {}

// View is a test/REST introspection of the actor's internals.
type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Table struct {
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan types.ServerMessage
	store   store.Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.State, st store.Store, log *zap.Logger) *Table {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	if st == nil {
		st = store.NewMemory()
	}

	t := &Table{
		inbox:   make(chan Msg, 64),
		state:   initial,
		clients: make(map[string]chan types.ServerMessage),
		store:   st,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}

	go t.loop()
	return t
}

// Inbox exposes the actor's mailbox to the WS and HTTP layers.
func (t *Table) Inbox() chan<- Msg { return t.inbox }

func (t *Table) loop() {
	for {
		select {
		case <-t.ctx.Done():
			t.shutdown()
			return

		case m := <-t.inbox:
			switch msg := m.(type) {
			case Join:
				t.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- t.snapshotMsg()

			case Leave:
				// closing the outbox lets the connection's writer
				// goroutine drain out and exit
				if ch, ok := t.clients[msg.ClientID]; ok {
					close(ch)
					delete(t.clients, msg.ClientID)
				}

			case FromClient:
				t.apply(msg)

			case GetState:
				msg.Reply <- View{
					Version:    t.version,
					NumClients: len(t.clients),
					State:      t.state,
				}

			case Shutdown:
				t.shutdown()
				return
			}
		}
	}
}

func (t *Table) apply(msg FromClient) {
	cmd := msg.Cmd
	if cmd.Type == engine.CmdAddPlayer && cmd.Seed == nil {
		cmd.Seed = t.storedPlayer(cmd.Username)
	}

	events, newState, err := engine.Apply(t.state, cmd)
	if msg.Reply != nil {
		msg.Reply <- err
	}
	if err != nil {
		// Rejections go back to the submitting client only; the shared
		// state and everyone else's view are untouched.
		if out, ok := t.clients[msg.ClientID]; ok {
			t.send(msg.ClientID, out, types.ServerMessage{
				Type:  types.EvtError,
				Error: err.Error(),
			})
		}
		return
	}

	t.state = newState
	t.version++
	t.persist(cmd)

	for _, e := range events {
		t.broadcast(wireEvent(e))
	}
	t.broadcast(t.snapshotMsg())
}

// persist mirrors the applied command into the store. Failures are logged
// and dropped; the in-memory state stays authoritative for the session.
// A LeaveGame (disconnect) keeps the player's row so their stack survives
// a reconnect; only the explicit RemovePlayer deletes it.
func (t *Table) persist(cmd engine.Command) {
	ctx, cancel := context.WithTimeout(t.ctx, 5*time.Second)
	defer cancel()

	if cmd.Type == engine.CmdRemovePlayer {
		if err := t.store.DeletePlayer(ctx, cmd.Username); err != nil {
			t.log.Warn("delete player", zap.String("username", cmd.Username), zap.Error(err))
		}
	}
	if err := t.store.SavePlayers(ctx, t.state.PlayersSlice()); err != nil {
		t.log.Warn("save players", zap.Error(err))
	}
}

// storedPlayer fetches a returning player's persisted row, nil for a
// first-time join.
func (t *Table) storedPlayer(username string) *types.Player {
	ctx, cancel := context.WithTimeout(t.ctx, 5*time.Second)
	defer cancel()

	players, err := t.store.LoadPlayers(ctx)
	if err != nil {
		t.log.Warn("load player", zap.String("username", username), zap.Error(err))
		return nil
	}
	for _, p := range players {
		if p.Username == username {
			return &p
		}
	}
	return nil
}

func (t *Table) snapshotMsg() types.ServerMessage {
	snap := t.state.Snapshot()
	return types.ServerMessage{
		Type:    types.EvtGameStateUpdate,
		Version: t.version,
		State:   &snap,
	}
}

func wireEvent(e engine.Event) types.ServerMessage {
	msg := types.ServerMessage{
		Username: e.Username,
		Amount:   e.Amount,
		Round:    e.Round,
	}
	switch e.Type {
	case engine.EvtPlayerJoined:
		msg.Type = types.EvtPlayerJoined
	case engine.EvtPlayerLeft:
		msg.Type = types.EvtPlayerLeft
	case engine.EvtPlayerRemoved:
		msg.Type = types.EvtPlayerRemoved
	case engine.EvtGameStarted:
		msg.Type = types.EvtGameStarted
	case engine.EvtBetPlaced:
		msg.Type = types.EvtBetPlaced
	case engine.EvtPlayerFolded:
		msg.Type = types.EvtPlayerFolded
	case engine.EvtRoundChanged:
		msg.Type = types.EvtRoundChanged
	case engine.EvtPotDistributed:
		msg.Type = types.EvtPotDistributed
	case engine.EvtGameEnded:
		msg.Type = types.EvtGameEnded
	default:
		msg.Type = types.EvtPlayerUpdated
	}
	return msg
}

func (t *Table) shutdown() {
	for id, ch := range t.clients {
		close(ch)
		delete(t.clients, id)
	}
	t.cancel()
}

func (t *Table) broadcast(msg types.ServerMessage) {
	for id, ch := range t.clients {
		t.send(id, ch, msg)
	}
}

func (t *Table) send(id string, ch chan types.ServerMessage, msg types.ServerMessage) {
	select {
	case ch <- msg:
		// ok
	default:
		// Client is slow/full - drop them.
		close(ch)
		delete(t.clients, id)
	}
}
