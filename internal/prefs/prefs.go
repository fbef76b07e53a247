// Package prefs keeps choices made from the UI and the CLI: the theme, games
// that are never synced and artwork categories that are never downloaded.
//
// The file is TOML, by default ~/.config/gridsync/prefs.toml:
//
//	theme = "Nightfox"
//	ignored_games = [2881136137]
//
//	[banned_images]
//	3012345678 = ["hero", "logo"]
//
// A missing or unreadable file yields defaults so a bad edit never blocks
// startup; Load still reports the problem so callers can log it.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/gridsync/internal/artwork"
)

// Prefs holds user preferences for gridsync.
type Prefs struct {
	Theme string `toml:"theme"`
	// IgnoredGames are app ids never synced.
	IgnoredGames []uint32 `toml:"ignored_games"`
	// BannedImages maps an app id to artwork categories never downloaded.
	BannedImages map[string][]string `toml:"banned_images"`
}

const (
	defaultPrefsPath = "~/.config/gridsync/prefs.toml"
	defaultTheme     = "Dracula"
)

func defaults() Prefs { return Prefs{Theme: defaultTheme} }

// Load reads preferences from path (empty means the default location). The
// returned Prefs are always usable: a missing file gives defaults and no
// error, an unreadable or corrupt one gives defaults and the reason.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return defaults(), fmt.Errorf("resolve prefs path: %w", err)
	}

	f, err := os.Open(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return defaults(), nil
	}
	if err != nil {
		return defaults(), fmt.Errorf("open prefs: %w", err)
	}
	defer func() { _ = f.Close() }()

	var p Prefs
	if err := toml.NewDecoder(f).Decode(&p); err != nil {
		return defaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	p.normalize()
	return p, nil
}

// Save replaces the preferences file at path.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	p.normalize()
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(name, resolved); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// normalize fills the theme and keeps id lists sorted and unique.
func (p *Prefs) normalize() {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	slices.Sort(p.IgnoredGames)
	p.IgnoredGames = slices.Compact(p.IgnoredGames)
	for id, types := range p.BannedImages {
		slices.Sort(types)
		p.BannedImages[id] = slices.Compact(types)
	}
}

// Ignored reports whether id is excluded from syncing.
func (p Prefs) Ignored(id uint32) bool {
	return slices.Contains(p.IgnoredGames, id)
}

// Ignore excludes id from syncing.
func (p *Prefs) Ignore(id uint32) {
	if i, found := slices.BinarySearch(p.IgnoredGames, id); !found {
		p.IgnoredGames = slices.Insert(p.IgnoredGames, i, id)
	}
}

// Ban stops t artwork from being downloaded for id.
func (p *Prefs) Ban(id uint32, t artwork.Type) {
	if p.BannedImages == nil {
		p.BannedImages = map[string][]string{}
	}
	key := strconv.FormatUint(uint64(id), 10)
	types := p.BannedImages[key]
	if i, found := slices.BinarySearch(types, t.String()); !found {
		p.BannedImages[key] = slices.Insert(types, i, t.String())
	}
}

// Banned returns every banned artwork slot. Unparseable entries are skipped.
func (p Prefs) Banned() artwork.Set {
	set := artwork.Set{}
	for rawID, types := range p.BannedImages {
		id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 32)
		if err != nil {
			continue
		}
		for _, name := range types {
			if t, err := artwork.ParseType(name); err == nil {
				set.Add(artwork.Ref{AppID: uint32(id), Type: t})
			}
		}
	}
	return set
}

func resolvePath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = defaultPrefsPath
	}
	if rest, ok := strings.CutPrefix(p, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		p = filepath.Join(home, rest)
	}
	return filepath.Abs(p)
}
