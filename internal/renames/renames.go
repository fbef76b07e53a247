// Package renames stores user-chosen display names for shortcuts.
//
// The file is a flat JSON object keyed by app id:
//
//	{"2881136137": "Hades (modded)"}
//
// An override replaces the name a platform reports. The app id is left alone,
// so renamed shortcuts keep their artwork.
package renames

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/five82/gridsync/internal/platform"
)

// Map holds display name overrides by app id.
type Map map[uint32]string

// Load reads the overrides at path. A missing file is an empty map; an
// unreadable or corrupt one is an empty map plus the error.
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Map{}, nil
		}
		return Map{}, fmt.Errorf("read renames: %w", err)
	}
	m := Map{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return Map{}, fmt.Errorf("parse renames: %w", err)
	}
	return m, nil
}

// Save replaces the file at path with m.
func Save(path string, m Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal renames: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create renames dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".renames-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write renames: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write renames: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace renames: %w", err)
	}
	return nil
}

// Set records name for id. A blank name removes the override.
func (m Map) Set(id uint32, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		delete(m, id)
		return
	}
	m[id] = name
}

// Name returns the override for g, or its discovered name.
func (m Map) Name(g platform.Game) string {
	if name, ok := m[g.ID]; ok && name != "" {
		return name
	}
	return g.Name
}

// Apply returns games with overrides applied to their names.
func (m Map) Apply(games []platform.Game) []platform.Game {
	out := make([]platform.Game, len(games))
	for i, g := range games {
		g.Name = m.Name(g)
		out[i] = g
	}
	return out
}
