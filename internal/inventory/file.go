package inventory

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFile reads an inventory from a YAML or JSON file.
func LoadFile(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}

	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse inventory file: %w", err)
	}

	inv.Normalize()
	if _, err := inv.Index(); err != nil {
		return nil, fmt.Errorf("invalid inventory %s: %w", path, err)
	}

	return &inv, nil
}

// SaveFile writes inv as YAML, creating parent directories.
func SaveFile(path string, inv *Inventory) error {
	if inv == nil {
		return fmt.Errorf("inventory cannot be nil")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to prepare inventory directory: %w", err)
	}

	data, err := yaml.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write inventory file: %w", err)
	}
	return nil
}
