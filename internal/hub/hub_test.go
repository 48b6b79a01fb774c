package hub

import (
	"context"
	"testing"
	"time"

	"github.com/chiptrack/chiptrack/internal/store"
	"github.com/chiptrack/chiptrack/internal/table"
	"github.com/chiptrack/chiptrack/pkg/types"
)

func recvTable(t *testing.T, ch <-chan *table.Table, within time.Duration) *table.Table {
	t.Helper()
	select {
	case tbl := <-ch:
		return tbl
	case <-time.After(within):
		t.Fatalf("timed out waiting for table")
		return nil // unreachable
	}
}

func TestHub_EnsureTableIsIdempotent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil, nil)

	reply := make(chan *table.Table, 1)
	h.Inbox() <- EnsureTable{Code: DefaultCode, Reply: reply}
	first := recvTable(t, reply, 100*time.Millisecond)
	if first == nil {
		t.Fatalf("expected a table")
	}

	reply = make(chan *table.Table, 1)
	h.Inbox() <- EnsureTable{Code: DefaultCode, Reply: reply}
	second := recvTable(t, reply, 100*time.Millisecond)
	if second != first {
		t.Fatalf("ensure created a second table for the same code")
	}
}

func TestHub_GetMissingTableIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil, nil)

	reply := make(chan *table.Table, 1)
	h.Inbox() <- GetTable{Code: "nope", Reply: reply}
	if tbl := recvTable(t, reply, 100*time.Millisecond); tbl != nil {
		t.Fatalf("want nil for unknown code, got %v", tbl)
	}
}

func TestHub_NewTableSeededFromStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := store.NewMemory()
	if err := mem.SavePlayers(ctx, []types.Player{
		{Username: "alice", Chips: 750, Position: 0},
		{Username: "bob", Chips: 1250, Position: 1},
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := NewHub(ctx, mem, nil)

	reply := make(chan *table.Table, 1)
	h.Inbox() <- EnsureTable{Code: DefaultCode, Reply: reply}
	tbl := recvTable(t, reply, 100*time.Millisecond)

	view := make(chan table.View, 1)
	tbl.Inbox() <- table.GetState{Reply: view}
	select {
	case v := <-view:
		if len(v.State.Order) != 2 {
			t.Fatalf("want 2 persisted players, got %v", v.State.Order)
		}
		if v.State.Players["bob"].Chips != 1250 {
			t.Fatalf("bob chips: want 1250, got %d", v.State.Players["bob"].Chips)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timed out waiting for table view")
	}
}
