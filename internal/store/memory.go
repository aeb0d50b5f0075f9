package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tycoon/internal/game"
)

type memoryEntry struct {
	raw     []byte
	summary game.GameSummary
}

// Memory keeps encoded snapshots in a map. Used when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	games map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]memoryEntry)}
}

func (m *Memory) Save(_ context.Context, id string, st *game.State) error {
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[id] = memoryEntry{raw: raw, summary: summarize(id, st, time.Now().UTC())}
	return nil
}

func (m *Memory) Load(_ context.Context, id string) (*game.State, error) {
	m.mu.RLock()
	entry, ok := m.games[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return decodeState(entry.raw)
}

func (m *Memory) List(_ context.Context) ([]game.GameSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.GameSummary, 0, len(m.games))
	for _, entry := range m.games {
		out = append(out, entry.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return notFound(id)
	}
	delete(m.games, id)
	return nil
}

func (m *Memory) Close() error { return nil }
