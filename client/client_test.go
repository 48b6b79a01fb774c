package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiptrack/chiptrack/pkg/types"
)

func newClientForTest(cfg Config) (*Client, *Store, *Notifier, *int) {
	store := NewStore()
	notifier := NewNotifier(time.Minute)
	cfg.Notifier = notifier
	c := New(cfg, store)
	renders := new(int)
	c.SetRenderHook(func() { *renders++ })
	return c, store, notifier, renders
}

func TestHandleSnapshotReplacesStateAndRendersOnce(t *testing.T) {
	c, store, _, renders := newClientForTest(Config{})

	snap := testSnapshot()
	c.handle(types.ServerMessage{Type: types.EvtGameStateUpdate, Version: 1, State: &snap})

	got, ok := store.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 100, got.Pot)
	assert.Equal(t, 1, *renders)

	next := testSnapshot()
	next.Pot = 250
	c.handle(types.ServerMessage{Type: types.EvtGameStateUpdate, Version: 2, State: &next})

	got, _ = store.Snapshot()
	assert.Equal(t, 250, got.Pot)
	assert.Equal(t, 2, *renders)
}

func TestHandleInformationalEventsLeaveStateAlone(t *testing.T) {
	c, store, notifier, renders := newClientForTest(Config{})

	snap := testSnapshot()
	c.handle(types.ServerMessage{Type: types.EvtGameStateUpdate, Version: 1, State: &snap})
	require.Equal(t, 1, *renders)

	for _, evt := range []string{
		types.EvtPlayerJoined,
		types.EvtPlayerLeft,
		types.EvtPlayerRemoved,
		types.EvtBetPlaced,
		types.EvtPlayerFolded,
		types.EvtRoundChanged,
		types.EvtPotDistributed,
		types.EvtPlayerUpdated,
	} {
		c.handle(types.ServerMessage{Type: evt, Username: "mallory", Amount: 9999})
	}

	got, ok := store.Snapshot()
	require.True(t, ok)
	assert.Equal(t, snap, got, "informational events must not touch the snapshot")
	assert.Equal(t, 1, *renders, "informational events must not trigger renders")
	assert.Empty(t, notifier.Active())
}

func TestHandleErrorGoesToNotifier(t *testing.T) {
	c, store, notifier, renders := newClientForTest(Config{})

	c.handle(types.ServerMessage{Type: types.EvtError, Error: "Not enough chips"})

	active := notifier.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Not enough chips", active[0].Message)
	assert.Equal(t, 0, *renders)
	_, ok := store.Snapshot()
	assert.False(t, ok, "an error event carries no state")
}

func TestHandleGameLifecycleHooks(t *testing.T) {
	started, ended := 0, 0
	c, store, _, renders := newClientForTest(Config{
		OnGameStarted: func() { started++ },
		OnGameEnded:   func() { ended++ },
	})

	c.handle(types.ServerMessage{Type: types.EvtGameStarted})
	c.handle(types.ServerMessage{Type: types.EvtGameEnded})

	assert.Equal(t, 1, started)
	assert.Equal(t, 1, ended)
	assert.Equal(t, 0, *renders)
	_, ok := store.Snapshot()
	assert.False(t, ok)
}

func TestHandleSnapshotUpdateWithoutStateIsIgnored(t *testing.T) {
	c, store, _, renders := newClientForTest(Config{})

	c.handle(types.ServerMessage{Type: types.EvtGameStateUpdate, Version: 1})

	_, ok := store.Snapshot()
	assert.False(t, ok)
	assert.Equal(t, 0, *renders)
}
