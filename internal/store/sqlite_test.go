package store

import (
	"context"
	"testing"

	"github.com/chiptrack/chiptrack/pkg/types"
)

func TestSQLite_RoundTrip(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	in := []types.Player{
		{Username: "alice", Chips: 900, CurrentBet: 50, TotalBet: 100, Folded: false, Position: 0},
		{Username: "bob", Chips: 1100, Folded: true, HandsWon: 2, Position: 1},
	}
	if err := s.SavePlayers(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 players, got %d", len(out))
	}
	if out[0].Username != "alice" || out[1].Username != "bob" {
		t.Fatalf("position ordering broken: %v, %v", out[0].Username, out[1].Username)
	}
	if out[0].Chips != 900 || out[0].CurrentBet != 50 {
		t.Fatalf("alice fields lost: %+v", out[0])
	}
	if !out[1].Folded || out[1].HandsWon != 2 {
		t.Fatalf("bob fields lost: %+v", out[1])
	}
}

func TestSQLite_SaveIsUpsert(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.SavePlayers(ctx, []types.Player{{Username: "alice", Chips: 1000}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SavePlayers(ctx, []types.Player{{Username: "alice", Chips: 300}}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	out, err := s.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].Chips != 300 {
		t.Fatalf("upsert failed: %+v", out)
	}
}

func TestSQLite_DeletePlayer(t *testing.T) {
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.SavePlayers(ctx, []types.Player{
		{Username: "alice"}, {Username: "bob", Position: 1},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.DeletePlayer(ctx, "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out, err := s.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].Username != "bob" {
		t.Fatalf("delete missed: %+v", out)
	}
}
