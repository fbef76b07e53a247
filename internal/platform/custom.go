package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// CustomGame is a game entry declared in the configuration file.
type CustomGame struct {
	Name          string
	Exe           string
	StartDir      string
	LaunchOptions string
	Env           map[string]string
}

// Custom is a platform whose games are listed in the configuration rather than
// discovered from a launcher.
type Custom struct {
	name    string
	enabled bool
	games   []CustomGame
	stat    func(string) (os.FileInfo, error)
}

// NewCustom returns a configuration-backed platform.
func NewCustom(name string, enabled bool, games []CustomGame) *Custom {
	return &Custom{name: strings.TrimSpace(name), enabled: enabled, games: games, stat: os.Stat}
}

// Name implements Platform.
func (c *Custom) Name() string { return c.name }

// Enabled implements Platform.
func (c *Custom) Enabled() bool { return c.enabled }

// SettingsValid implements Platform.
func (c *Custom) SettingsValid() error {
	if c.name == "" {
		return errors.New("platform name is empty")
	}
	for i, g := range c.games {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("game %d has no name", i)
		}
		if strings.TrimSpace(g.Exe) == "" {
			return fmt.Errorf("game %q has no executable", g.Name)
		}
	}
	return nil
}

// Discover returns the configured games whose executable exists.
func (c *Custom) Discover(ctx context.Context) ([]Game, error) {
	if err := c.SettingsValid(); err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(c.games))
	for _, cg := range c.games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := c.stat(cg.Exe); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", cg.Exe, err)
		}
		games = append(games, NewGame(c.name, cg.Name, cg.StartDir, cg.Exe, cg.LaunchOptions, cg.Env))
	}
	return games, nil
}
