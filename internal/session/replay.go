package session

import (
	"context"
	"errors"

	"tycoon/internal/game"
)

// Replay applies commands in order. A rejected command does not stop the
// ones after it; each gets its own result.
func (m *Manager) Replay(ctx context.Context, id string, commands []game.ReplayCommand) ([]game.ReplayResult, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	out := make([]game.ReplayResult, 0, len(commands))
	for _, cmd := range commands {
		r := game.ReplayResult{IdempotencyKey: cmd.IdempotencyKey, Kind: cmd.Action.Kind}
		res, err := m.Do(ctx, id, cmd.IdempotencyKey, cmd.Action)
		switch {
		case err == nil:
			r.Status = game.ReplayApplied
			r.Result = &res
		case errors.Is(err, game.ErrDuplicateIdempotency):
			r.Status = game.ReplayDuplicate
		default:
			r.Status = game.ReplayRejected
			r.Error = err.Error()
		}
		out = append(out, r)
	}
	m.log.Info("replay applied", "game_id", id, "commands", len(commands))
	return out, nil
}
