package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/gridsync/internal/platform"
)

// Config is the resolved gridsync configuration.
type Config struct {
	// Path is the config file that was read, even when it did not exist.
	Path    string
	DataDir string

	Steam     Steam
	GridDB    GridDB
	UI        UI
	Platforms []Platform
}

// Steam locates the Steam installation and controls shortcut pruning.
type Steam struct {
	Location string
	// User restricts syncing to one userdata id. Empty means every user.
	User         string
	PruneMissing bool
}

// GridDB configures artwork lookup and download.
type GridDB struct {
	AuthKey        string
	BaseURL        string
	DownloadImages bool
	MinImageSize   int64
	Concurrency    int
	ImageTimeout   time.Duration
	SearchTimeout  time.Duration
}

// UI configures the terminal interface.
type UI struct {
	Refresh time.Duration
	Theme   string
}

// Platform is a config-defined game list.
type Platform struct {
	Name    string
	Enabled bool
	Games   []platform.CustomGame
}

const (
	defaultConfigPath    = "~/.config/gridsync/config.toml"
	defaultDataDir       = "~/.config/gridsync"
	defaultMinImageSize  = 2
	defaultConcurrency   = 8
	defaultImageTimeout  = 2 * time.Minute
	defaultSearchTimeout = 10 * time.Second
	defaultRefresh       = time.Second
)

type rawConfig struct {
	DataDir string `toml:"data_dir"`
	Steam   struct {
		Location     string `toml:"location"`
		User         string `toml:"user"`
		PruneMissing *bool  `toml:"prune_missing"`
	} `toml:"steam"`
	GridDB struct {
		AuthKey        string `toml:"auth_key"`
		BaseURL        string `toml:"base_url"`
		DownloadImages *bool  `toml:"download_images"`
		MinImageSize   int64  `toml:"min_image_size"`
		Concurrency    int    `toml:"concurrency"`
		ImageTimeout   string `toml:"image_timeout"`
		SearchTimeout  string `toml:"search_timeout"`
	} `toml:"griddb"`
	UI struct {
		Refresh string `toml:"refresh"`
		Theme   string `toml:"theme"`
	} `toml:"ui"`
	Platforms []struct {
		Name    string `toml:"name"`
		Enabled *bool  `toml:"enabled"`
		Games   []struct {
			Name          string            `toml:"name"`
			Exe           string            `toml:"exe"`
			StartDir      string            `toml:"start_dir"`
			LaunchOptions string            `toml:"launch_options"`
			Env           map[string]string `toml:"env"`
		} `toml:"game"`
	} `toml:"platform"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DataDir: mustExpand(defaultDataDir),
		Steam:   Steam{PruneMissing: true},
		GridDB: GridDB{
			DownloadImages: true,
			MinImageSize:   defaultMinImageSize,
			Concurrency:    defaultConcurrency,
			ImageTimeout:   defaultImageTimeout,
			SearchTimeout:  defaultSearchTimeout,
		},
		UI: UI{Refresh: defaultRefresh},
	}
}

// Load reads the config at path, or the default location when path is empty.
// A missing file yields Default.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.Path = resolved

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if dir := strings.TrimSpace(raw.DataDir); dir != "" {
		cfg.DataDir = mustExpand(dir)
	}

	cfg.Steam.Location = strings.TrimSpace(raw.Steam.Location)
	if cfg.Steam.Location != "" {
		cfg.Steam.Location = mustExpand(cfg.Steam.Location)
	}
	cfg.Steam.User = strings.TrimSpace(raw.Steam.User)
	if raw.Steam.PruneMissing != nil {
		cfg.Steam.PruneMissing = *raw.Steam.PruneMissing
	}

	g := raw.GridDB
	cfg.GridDB.AuthKey = strings.TrimSpace(g.AuthKey)
	cfg.GridDB.BaseURL = strings.TrimSpace(g.BaseURL)
	if g.DownloadImages != nil {
		cfg.GridDB.DownloadImages = *g.DownloadImages
	}
	if g.MinImageSize > 0 {
		cfg.GridDB.MinImageSize = g.MinImageSize
	}
	if g.Concurrency > 0 {
		cfg.GridDB.Concurrency = g.Concurrency
	}
	if cfg.GridDB.ImageTimeout, err = parseDuration("griddb.image_timeout", g.ImageTimeout, defaultImageTimeout); err != nil {
		return Config{}, err
	}
	if cfg.GridDB.SearchTimeout, err = parseDuration("griddb.search_timeout", g.SearchTimeout, defaultSearchTimeout); err != nil {
		return Config{}, err
	}

	if cfg.UI.Refresh, err = parseDuration("ui.refresh", raw.UI.Refresh, defaultRefresh); err != nil {
		return Config{}, err
	}
	cfg.UI.Theme = strings.TrimSpace(raw.UI.Theme)

	for i, rp := range raw.Platforms {
		p := Platform{Name: strings.TrimSpace(rp.Name), Enabled: true}
		if p.Name == "" {
			return Config{}, fmt.Errorf("platform %d: name is required", i)
		}
		if rp.Enabled != nil {
			p.Enabled = *rp.Enabled
		}
		for _, rg := range rp.Games {
			game := platform.CustomGame{
				Name:          strings.TrimSpace(rg.Name),
				Exe:           strings.TrimSpace(rg.Exe),
				StartDir:      strings.TrimSpace(rg.StartDir),
				LaunchOptions: strings.TrimSpace(rg.LaunchOptions),
				Env:           rg.Env,
			}
			if game.Exe != "" {
				game.Exe = mustExpand(game.Exe)
			}
			if game.StartDir != "" {
				game.StartDir = mustExpand(game.StartDir)
			}
			p.Games = append(p.Games, game)
		}
		cfg.Platforms = append(cfg.Platforms, p)
	}

	return cfg, nil
}

// BuildPlatforms turns the configured game lists into discovery sources.
func (c Config) BuildPlatforms() []platform.Platform {
	out := make([]platform.Platform, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		out = append(out, platform.NewCustom(p.Name, p.Enabled, p.Games))
	}
	return out
}

// RenamesPath returns the rename overrides file.
func (c Config) RenamesPath() string { return c.dataPath("renames.json") }

// GridCachePath returns the SteamGridDB id cache file.
func (c Config) GridCachePath() string { return c.dataPath("grid_cache.json") }

// PrefsPath returns the preferences file.
func (c Config) PrefsPath() string { return c.dataPath("prefs.toml") }

// LogPath returns the log file.
func (c Config) LogPath() string { return c.dataPath("gridsync.log") }

// BackupDir returns where shortcuts.vdf backups are kept.
func (c Config) BackupDir() string { return c.dataPath("backups") }

func (c Config) dataPath(name string) string {
	dir := strings.TrimSpace(c.DataDir)
	if dir == "" {
		dir = mustExpand(defaultDataDir)
	}
	return filepath.Join(dir, name)
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse config: %s must be positive", field)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
