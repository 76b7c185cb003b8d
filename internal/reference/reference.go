// Package reference ships the default RDA table and loads overrides from disk.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitalsync/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed rda.yaml
var defaultRDA []byte

// Default returns a fresh copy of the embedded RDA table
func Default() *domain.RDATable {
	table, err := Parse(defaultRDA)
	if err != nil {
		panic(fmt.Sprintf("embedded rda.yaml is invalid: %v", err))
	}
	return table
}

// Parse decodes a YAML RDA table, keeping document order
func Parse(data []byte) (*domain.RDATable, error) {
	table := domain.NewRDATable()
	if err := yaml.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("parsing rda table: %w", err)
	}
	return table, nil
}

// LoadFile reads an RDA table from path. Files ending in .json are decoded as
// JSON, everything else as YAML.
func LoadFile(path string) (*domain.RDATable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rda table: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		table := domain.NewRDATable()
		if err := table.UnmarshalJSON(data); err != nil {
			return nil, fmt.Errorf("parsing rda table %s: %w", path, err)
		}
		return table, nil
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Load returns the table at path, or the embedded default when path is empty
func Load(path string) (*domain.RDATable, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
