package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tycoon/internal/game"
)

// SQLite stores snapshots in a single-file database.
type SQLite struct {
	conn *sqlx.DB
}

type sqliteSummaryRow struct {
	ID             string `db:"id"`
	CompanyName    string `db:"company_name"`
	GameDate       string `db:"game_date"`
	CashCents      int64  `db:"cash_cents"`
	ValuationCents int64  `db:"valuation_cents"`
	UpdatedAt      int64  `db:"updated_at"`
}

func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir %s: %w", dir, err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		company_name TEXT NOT NULL,
		game_date TEXT NOT NULL,
		cash_cents INTEGER NOT NULL,
		valuation_cents INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_updated ON games(updated_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLite) Save(ctx context.Context, id string, st *game.State) error {
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	sum := summarize(id, st, time.Now().UTC())
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO games (id, company_name, game_date, cash_cents, valuation_cents, state_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_name = excluded.company_name,
			game_date = excluded.game_date,
			cash_cents = excluded.cash_cents,
			valuation_cents = excluded.valuation_cents,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, id, sum.CompanyName, sum.Date.Format(time.DateOnly), sum.CashCents, sum.ValuationCents, string(raw), sum.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("save game %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, id string) (*game.State, error) {
	var raw string
	err := s.conn.GetContext(ctx, &raw, `SELECT state_json FROM games WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return decodeState([]byte(raw))
}

func (s *SQLite) List(ctx context.Context) ([]game.GameSummary, error) {
	var rows []sqliteSummaryRow
	err := s.conn.SelectContext(ctx, &rows, `
		SELECT id, company_name, game_date, cash_cents, valuation_cents, updated_at
		FROM games
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]game.GameSummary, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(time.DateOnly, r.GameDate)
		if err != nil {
			return nil, fmt.Errorf("list games: bad date for %s: %w", r.ID, err)
		}
		out = append(out, game.GameSummary{
			ID:             r.ID,
			CompanyName:    r.CompanyName,
			Date:           date,
			CashCents:      r.CashCents,
			ValuationCents: r.ValuationCents,
			UpdatedAt:      time.Unix(0, r.UpdatedAt).UTC(),
		})
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
