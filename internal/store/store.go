// Package store persists game snapshots as JSON documents keyed by game id.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tycoon/internal/game"
)

// Store is implemented by the postgres, sqlite and memory backends.
// Load and Delete of an unknown id return an error wrapping game.ErrGameNotFound.
type Store interface {
	Save(ctx context.Context, id string, st *game.State) error
	Load(ctx context.Context, id string) (*game.State, error)
	List(ctx context.Context) ([]game.GameSummary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

func summarize(id string, st *game.State, now time.Time) game.GameSummary {
	return game.GameSummary{
		ID:             id,
		CompanyName:    st.Company.Name,
		Date:           st.Date,
		CashCents:      st.Company.CashCents,
		ValuationCents: st.Company.ValuationCents,
		UpdatedAt:      now,
	}
}

func encodeState(st *game.State) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("encode snapshot: %w", game.ErrGameNotStarted)
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

func decodeState(raw []byte) (*game.State, error) {
	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &st, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", game.ErrGameNotFound, id)
}
