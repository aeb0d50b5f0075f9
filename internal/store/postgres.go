package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tycoon/internal/db"
	"tycoon/internal/game"
)

// Postgres stores snapshots as jsonb in tycoon.games.
type Postgres struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := db.Connect(ctx, databaseURL, db.DefaultPoolOptions())
	if err != nil {
		return nil, err
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	return db.Migrate(ctx, p.pool,
		`CREATE SCHEMA IF NOT EXISTS tycoon`,
		`CREATE TABLE IF NOT EXISTS tycoon.games (
			id TEXT PRIMARY KEY,
			company_name TEXT NOT NULL,
			game_date DATE NOT NULL,
			cash_cents BIGINT NOT NULL,
			valuation_cents BIGINT NOT NULL,
			state JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_updated ON tycoon.games (updated_at DESC)`,
	)
}

func (p *Postgres) Save(ctx context.Context, id string, st *game.State) error {
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO tycoon.games (id, company_name, game_date, cash_cents, valuation_cents, state)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET company_name = EXCLUDED.company_name,
		    game_date = EXCLUDED.game_date,
		    cash_cents = EXCLUDED.cash_cents,
		    valuation_cents = EXCLUDED.valuation_cents,
		    state = EXCLUDED.state,
		    updated_at = now()
	`, id, st.Company.Name, st.Date, st.Company.CashCents, st.Company.ValuationCents, raw)
	if err != nil {
		return fmt.Errorf("save game %s: %w", id, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, id string) (*game.State, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT state FROM tycoon.games WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	return decodeState(raw)
}

func (p *Postgres) List(ctx context.Context) ([]game.GameSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, company_name, game_date, cash_cents, valuation_cents, updated_at
		FROM tycoon.games
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	out := make([]game.GameSummary, 0, 16)
	for rows.Next() {
		var s game.GameSummary
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.Date, &s.CashCents, &s.ValuationCents, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Date = s.Date.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM tycoon.games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Open picks the backend from the configured urls: Postgres, then SQLite, then memory.
func Open(ctx context.Context, databaseURL, sqlitePath string) (Store, string, error) {
	switch {
	case databaseURL != "":
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		s, err := OpenPostgres(connectCtx, databaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil
	case sqlitePath != "":
		s, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	default:
		return NewMemory(), "memory", nil
	}
}
