package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tycoon/internal/game"
)

//go:embed defaults/tuning.yaml
var defaultTuningYAML []byte

// LoadTuning loads the game parameters.
// Search order: customPath -> ~/.tycoon/tuning.yaml -> ./configs/tuning.yaml -> embedded default.
// Keys missing from a file keep their built-in values. A file that exists but
// fails to parse or validate is an error.
func LoadTuning(customPath string) (game.Params, error) {
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return game.Params{}, fmt.Errorf("failed to read tuning %s: %w", customPath, err)
		}
		p, err := parseTuning(data)
		if err != nil {
			return game.Params{}, fmt.Errorf("failed to parse tuning %s: %w", customPath, err)
		}
		return p, nil
	}

	for _, path := range []string{userTuningPath(), filepath.Join("configs", "tuning.yaml")} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return game.Params{}, fmt.Errorf("failed to read tuning %s: %w", path, err)
		}
		p, err := parseTuning(data)
		if err != nil {
			return game.Params{}, fmt.Errorf("failed to parse tuning %s: %w", path, err)
		}
		return p, nil
	}

	p, err := parseTuning(defaultTuningYAML)
	if err != nil {
		return game.DefaultParams(), nil
	}
	return p, nil
}

func parseTuning(data []byte) (game.Params, error) {
	p := game.DefaultParams()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return game.Params{}, err
	}
	if err := p.Validate(); err != nil {
		return game.Params{}, err
	}
	return p, nil
}

func userTuningPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tycoon", "tuning.yaml")
}
