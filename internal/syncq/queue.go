// Package syncq is the CLI's offline command queue. Actions that could not
// reach the server are stored here and replayed later in order.
package syncq

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tycoon/internal/cli"
	"tycoon/internal/game"
)

type Command struct {
	GameID         string      `json:"game_id"`
	Action         game.Action `json:"action"`
	IdempotencyKey string      `json:"idempotency_key"`
	QueuedAt       time.Time   `json:"queued_at"`
}

func queuePath() (string, error) {
	dir, err := cli.BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "queue.json"), nil
}

func Load() ([]Command, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("read queue %s: %w", path, err)
	}
	return out, nil
}

func Save(commands []Command) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	if len(commands) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return cli.WriteFileAtomic(path, raw)
}

func Push(cmd Command) error {
	commands, err := Load()
	if err != nil {
		return err
	}
	if cmd.QueuedAt.IsZero() {
		cmd.QueuedAt = time.Now().UTC()
	}
	commands = append(commands, cmd)
	return Save(commands)
}

// Batches groups commands by game, keeping queue order inside each game
// and the order in which games first appear.
func Batches(commands []Command) ([]string, map[string][]game.ReplayCommand) {
	order := make([]string, 0, 4)
	byGame := make(map[string][]game.ReplayCommand)
	for _, cmd := range commands {
		if _, ok := byGame[cmd.GameID]; !ok {
			order = append(order, cmd.GameID)
		}
		byGame[cmd.GameID] = append(byGame[cmd.GameID], game.ReplayCommand{
			Action:         cmd.Action,
			IdempotencyKey: cmd.IdempotencyKey,
		})
	}
	return order, byGame
}

// Remaining drops the commands of the games in done.
func Remaining(commands []Command, done map[string]bool) []Command {
	out := make([]Command, 0, len(commands))
	for _, cmd := range commands {
		if !done[cmd.GameID] {
			out = append(out, cmd)
		}
	}
	return out
}
