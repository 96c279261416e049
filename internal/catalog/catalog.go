// Package catalog loads the list of arcade games the server publishes.
//
// The catalog is deployment data, not code: a default list is embedded in the
// binary and an operator can point CATALOG_FILE at a replacement. Either way
// it is read once at startup and upserted into the store.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/arcade-leaderboard/internal/model"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

type file struct {
	Games []model.Game `yaml:"games"`
}

// Default returns the embedded catalog.
func Default() ([]model.Game, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) ([]model.Game, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading %s: %w", path, err)
	}
	games, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return games, nil
}

// Parse decodes a YAML catalog and checks that every game has an id and a
// name, and that no id repeats.
func Parse(data []byte) ([]model.Game, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	seen := make(map[string]bool, len(f.Games))
	for i, g := range f.Games {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			return nil, fmt.Errorf("game #%d has no id", i+1)
		}
		if strings.TrimSpace(g.Name) == "" {
			return nil, fmt.Errorf("game %s has no name", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate game id %s", id)
		}
		seen[id] = true
		f.Games[i].ID = id
	}

	if f.Games == nil {
		f.Games = []model.Game{}
	}
	return f.Games, nil
}
