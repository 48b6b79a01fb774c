package store

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/chiptrack/chiptrack/pkg/types"
)

// Store persists the chip roster between server runs. The live game state
// stays in memory; only players and their tallies are written through.
type Store interface {
	LoadPlayers(ctx context.Context) ([]types.Player, error)
	SavePlayers(ctx context.Context, players []types.Player) error
	DeletePlayer(ctx context.Context, username string) error
	Close() error
}

// NewStoreFromEnv picks a backend from CHIPTRACK_DB: "sqlite" (default),
// "postgres", or "memory". The returned mode string is for startup logs.
func NewStoreFromEnv() (Store, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("CHIPTRACK_DB")))
	switch mode {
	case "", "sqlite":
		path := strings.TrimSpace(os.Getenv("CHIPTRACK_SQLITE_PATH"))
		if path == "" {
			path = defaultSQLitePath
		}
		s, err := NewSQLite(path)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite:" + path, nil
	case "postgres":
		dsn := strings.TrimSpace(os.Getenv("CHIPTRACK_DATABASE_DSN"))
		if dsn == "" {
			dsn = defaultPostgresDSN
		}
		s, err := NewPostgres(dsn)
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil
	case "memory":
		return NewMemory(), "memory", nil
	default:
		return nil, "", fmt.Errorf("unknown CHIPTRACK_DB mode %q", mode)
	}
}

// Memory keeps the roster in-process. Used by tests and for tables that
// should not outlive the server.
type Memory struct {
	mu      sync.Mutex
	players map[string]types.Player
}

func NewMemory() *Memory {
	return &Memory{players: make(map[string]types.Player)}
}

func (m *Memory) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b types.Player) int { return a.Position - b.Position })
	return out, nil
}

func (m *Memory) SavePlayers(ctx context.Context, players []types.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range players {
		m.players[p.Username] = p
	}
	return nil
}

func (m *Memory) DeletePlayer(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.players, username)
	return nil
}

func (m *Memory) Close() error { return nil }
