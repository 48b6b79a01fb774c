package table

import (
	"context"
	"testing"
	"time"

	"github.com/chiptrack/chiptrack/internal/engine"
	"github.com/chiptrack/chiptrack/internal/store"
	"github.com/chiptrack/chiptrack/pkg/types"
)

// helper: receive one message with a timeout so tests never hang
func recvMsg(t *testing.T, ch <-chan types.ServerMessage, within time.Duration) types.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return types.ServerMessage{} // unreachable
	}
}

// helper: receive messages until one of the given type arrives
func recvMsgOfType(t *testing.T, ch <-chan types.ServerMessage, msgType string, within time.Duration) types.ServerMessage {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatalf("client outbox closed while waiting for %q", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", msgType)
			return types.ServerMessage{} // unreachable
		}
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func twoPlayerState(t *testing.T) engine.State {
	t.Helper()
	s := engine.NewEmptyState()
	for _, name := range []string{"alice", "bob"} {
		_, s2, err := engine.Apply(s, engine.Command{Type: engine.CmdAddPlayer, Username: name})
		if err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
		s = s2
	}
	return s
}

func TestTable_JoinReceivesCurrentSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)

	out := make(chan types.ServerMessage, 4)
	tbl.Inbox() <- Join{ClientID: "c1", Outbox: out}

	first := recvMsg(t, out, 100*time.Millisecond)
	if first.Type != types.EvtGameStateUpdate {
		t.Fatalf("want %s on join, got %s", types.EvtGameStateUpdate, first.Type)
	}
	if first.Version != 0 {
		t.Fatalf("after join: want version=0, got %d", first.Version)
	}
	if first.State == nil || len(first.State.Players) != 2 {
		t.Fatalf("join snapshot missing players: %+v", first.State)
	}
}

func TestTable_BetBroadcastsEventThenSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	init := twoPlayerState(t)
	_, init, err := engine.Apply(init, engine.Command{Type: engine.CmdStartGame})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	tbl := New(ctx, init, nil, nil)
	out := make(chan types.ServerMessage, 8)
	tbl.Inbox() <- Join{ClientID: "c1", Outbox: out}
	recvMsg(t, out, 100*time.Millisecond) // join snapshot

	tbl.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdPlaceBet, Username: "alice", Amount: 50,
	}}

	evt := recvMsg(t, out, 100*time.Millisecond)
	if evt.Type != types.EvtBetPlaced || evt.Username != "alice" || evt.Amount != 50 {
		t.Fatalf("want bet_placed alice 50, got %+v", evt)
	}

	snap := recvMsg(t, out, 100*time.Millisecond)
	if snap.Type != types.EvtGameStateUpdate {
		t.Fatalf("want snapshot after event, got %s", snap.Type)
	}
	if snap.Version != 1 {
		t.Fatalf("after bet: want version=1, got %d", snap.Version)
	}
	p, ok := snap.State.PlayerByName("alice")
	if !ok || p.CurrentBet < 50 {
		t.Fatalf("snapshot missing alice's bet: %+v", p)
	}
}

func TestTable_RejectionGoesOnlyToSender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)

	sender := make(chan types.ServerMessage, 4)
	watcher := make(chan types.ServerMessage, 4)
	tbl.Inbox() <- Join{ClientID: "sender", Outbox: sender}
	tbl.Inbox() <- Join{ClientID: "watcher", Outbox: watcher}
	recvMsg(t, sender, 100*time.Millisecond)
	recvMsg(t, watcher, 100*time.Millisecond)

	// betting while no game is active is rejected
	tbl.Inbox() <- FromClient{ClientID: "sender", Cmd: engine.Command{
		Type: engine.CmdPlaceBet, Username: "alice", Amount: 10,
	}}

	errMsg := recvMsg(t, sender, 100*time.Millisecond)
	if errMsg.Type != types.EvtError || errMsg.Error == "" {
		t.Fatalf("want error event for sender, got %+v", errMsg)
	}

	select {
	case msg := <-watcher:
		t.Fatalf("watcher should see nothing on rejection, got %+v", msg)
	case <-time.After(50 * time.Millisecond):
		// good
	}
}

func TestTable_ReplyCarriesSynchronousResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)

	reply := make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdRemovePlayer, Username: "mallory",
	}, Reply: reply}

	select {
	case err := <-reply:
		if err == nil {
			t.Fatalf("want error for unknown player, got nil")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timed out waiting for reply")
	}

	reply = make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdRemovePlayer, Username: "bob",
	}, Reply: reply}

	select {
	case err := <-reply:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timed out waiting for reply")
	}
}

func TestTable_DropSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)

	out := make(chan types.ServerMessage, 1)
	tbl.Inbox() <- Join{ClientID: "c1", Outbox: out}
	// outbox now full with the join snapshot; the next broadcast drops us

	tbl.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{
		Type: engine.CmdAddPlayer, Username: "carol",
	}}

	reply := make(chan View, 1)
	tbl.Inbox() <- GetState{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumClients != 0 {
		t.Fatalf("expected slow client to be dropped; NumClients=%d", view.NumClients)
	}
	if len(view.State.Order) != 3 {
		t.Fatalf("command should still apply; order=%v", view.State.Order)
	}
}

func TestTable_InformationalEventsPrecedeSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)
	out := make(chan types.ServerMessage, 8)
	tbl.Inbox() <- Join{ClientID: "c1", Outbox: out}
	recvMsg(t, out, 100*time.Millisecond)

	tbl.Inbox() <- FromClient{ClientID: "c1", Cmd: engine.Command{Type: engine.CmdStartGame}}

	started := recvMsg(t, out, 100*time.Millisecond)
	if started.Type != types.EvtGameStarted {
		t.Fatalf("want game_started first, got %s", started.Type)
	}
	snap := recvMsgOfType(t, out, types.EvtGameStateUpdate, 100*time.Millisecond)
	if !snap.State.Active {
		t.Fatalf("snapshot after start should be active")
	}
}

func waitErr(t *testing.T, reply <-chan error, within time.Duration) error {
	t.Helper()
	select {
	case err := <-reply:
		return err
	case <-time.After(within):
		t.Fatalf("timed out waiting for reply")
		return nil // unreachable
	}
}

func TestTable_DisconnectKeepsPersistedStack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.NewMemory()
	err := st.SavePlayers(context.Background(), []types.Player{
		{Username: "alice", Chips: 500, HandsWon: 3, Position: 0},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	tbl := New(ctx, engine.NewEmptyState(), st, nil)

	reply := make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdAddPlayer, Username: "alice",
	}, Reply: reply}
	if err := waitErr(t, reply, 100*time.Millisecond); err != nil {
		t.Fatalf("add alice: %v", err)
	}

	view := make(chan View, 1)
	tbl.Inbox() <- GetState{Reply: view}
	p := recvView(t, view, 100*time.Millisecond).State.Players["alice"]
	if p.Chips != 500 {
		t.Fatalf("join should restore the persisted stack, got %d chips", p.Chips)
	}
	if p.HandsWon != 3 {
		t.Fatalf("join should restore career stats, got %+v", p)
	}

	// a disconnect leaves the game but must keep the row
	reply = make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdLeaveGame, Username: "alice",
	}, Reply: reply}
	if err := waitErr(t, reply, 100*time.Millisecond); err != nil {
		t.Fatalf("leave alice: %v", err)
	}

	rows, err := st.LoadPlayers(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].Username != "alice" || rows[0].Chips != 500 {
		t.Fatalf("disconnect must not delete the persisted row, got %+v", rows)
	}

	// rejoining picks the stack back up
	reply = make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdAddPlayer, Username: "alice",
	}, Reply: reply}
	if err := waitErr(t, reply, 100*time.Millisecond); err != nil {
		t.Fatalf("re-add alice: %v", err)
	}
	view = make(chan View, 1)
	tbl.Inbox() <- GetState{Reply: view}
	p = recvView(t, view, 100*time.Millisecond).State.Players["alice"]
	if p.Chips != 500 {
		t.Fatalf("after reconnect: want 500 chips, got %d", p.Chips)
	}

	// only the explicit removal deletes the row
	reply = make(chan error, 1)
	tbl.Inbox() <- FromClient{Cmd: engine.Command{
		Type: engine.CmdRemovePlayer, Username: "alice",
	}, Reply: reply}
	if err := waitErr(t, reply, 100*time.Millisecond); err != nil {
		t.Fatalf("remove alice: %v", err)
	}
	rows, err = st.LoadPlayers(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("removal should delete the persisted row, got %+v", rows)
	}
}

func TestTable_LeaveClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tbl := New(ctx, twoPlayerState(t), nil, nil)

	out := make(chan types.ServerMessage, 4)
	tbl.Inbox() <- Join{ClientID: "c1", Outbox: out}
	recvMsg(t, out, 100*time.Millisecond) // join snapshot

	tbl.Inbox() <- Leave{ClientID: "c1"}

	// the writer goroutine ranges over the outbox; it can only exit once
	// Leave closes the channel
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-time.After(200 * time.Millisecond):
			t.Fatalf("outbox not closed after Leave; writer would leak")
		}
	}
}
