package platform

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/five82/gridsync/internal/steam"
)

// ManagedTag marks shortcuts created by gridsync. Only shortcuts carrying it
// are ever removed.
const ManagedTag = "gridsync"

// Game is one installed game reported by a platform.
type Game struct {
	ID               uint32
	Name             string
	Platform         string
	InstallPath      string
	Executable       string
	LaunchParameters string
	Env              map[string]string
}

// Platform discovers installed games for one launcher.
type Platform interface {
	Name() string
	Enabled() bool
	// SettingsValid reports configuration problems that make Discover
	// pointless.
	SettingsValid() error
	Discover(ctx context.Context) ([]Game, error)
}

// NewGame builds a Game and derives its id from the shortcut it will become.
func NewGame(platform, name, installPath, executable, params string, env map[string]string) Game {
	g := Game{
		Name:             strings.TrimSpace(name),
		Platform:         platform,
		InstallPath:      installPath,
		Executable:       executable,
		LaunchParameters: params,
		Env:              env,
	}
	g.ID = steam.AppID(g.Target(), g.Name)
	return g
}

// Target returns the quoted launch target Steam stores in Exe.
func (g Game) Target() string {
	exe := g.Executable
	if exe != "" && !filepath.IsAbs(exe) && g.InstallPath != "" {
		exe = filepath.Join(g.InstallPath, exe)
	}
	return quote(exe)
}

// StartDir returns the quoted working directory for the shortcut.
func (g Game) StartDir() string {
	dir := g.InstallPath
	if dir == "" && g.Executable != "" {
		dir = filepath.Dir(g.Executable)
	}
	return quote(dir)
}

// Shortcut converts g into the shortcut Steam should hold, using name as the
// display name. The id stays the discovered one so renames keep their slot.
func (g Game) Shortcut(name string) steam.Shortcut {
	if strings.TrimSpace(name) == "" {
		name = g.Name
	}
	cmd := CommandLine{}
	keys := make([]string, 0, len(g.Env))
	for k := range g.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.AddEnv(k, g.Env[k])
	}
	if g.LaunchParameters != "" {
		cmd.AddParameter(g.LaunchParameters)
	}

	s := steam.NewShortcut(name, g.Target(), g.StartDir(), cmd.LaunchOptions(), g.Platform, ManagedTag)
	s.AppID = g.ID
	return s
}

func quote(s string) string {
	if s == "" || runtime.GOOS == "windows" {
		return s
	}
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s
	}
	return `"` + s + `"`
}
