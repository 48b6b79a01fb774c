package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chiptrack/chiptrack/pkg/types"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "chiptrack.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS players (
	username     TEXT PRIMARY KEY,
	chips        INTEGER NOT NULL DEFAULT 0,
	current_bet  INTEGER NOT NULL DEFAULT 0,
	total_bet    INTEGER NOT NULL DEFAULT 0,
	folded       INTEGER NOT NULL DEFAULT 0,
	total_won    INTEGER NOT NULL DEFAULT 0,
	total_lost   INTEGER NOT NULL DEFAULT 0,
	hands_played INTEGER NOT NULL DEFAULT 0,
	hands_won    INTEGER NOT NULL DEFAULT 0,
	position     INTEGER NOT NULL DEFAULT 0
);`

type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) LoadPlayers(ctx context.Context) ([]types.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, chips, current_bet, total_bet, folded,
		       total_won, total_lost, hands_played, hands_won, position
		FROM players ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Player
	for rows.Next() {
		var p types.Player
		if err := rows.Scan(&p.Username, &p.Chips, &p.CurrentBet, &p.TotalBet, &p.Folded,
			&p.TotalWon, &p.TotalLost, &p.HandsPlayed, &p.HandsWon, &p.Position); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) SavePlayers(ctx context.Context, players []types.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range players {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players (username, chips, current_bet, total_bet, folded,
			                     total_won, total_lost, hands_played, hands_won, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(username) DO UPDATE SET
				chips = excluded.chips,
				current_bet = excluded.current_bet,
				total_bet = excluded.total_bet,
				folded = excluded.folded,
				total_won = excluded.total_won,
				total_lost = excluded.total_lost,
				hands_played = excluded.hands_played,
				hands_won = excluded.hands_won,
				position = excluded.position`,
			p.Username, p.Chips, p.CurrentBet, p.TotalBet, p.Folded,
			p.TotalWon, p.TotalLost, p.HandsPlayed, p.HandsWon, p.Position); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) DeletePlayer(ctx context.Context, username string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE username = ?`, username)
	return err
}
