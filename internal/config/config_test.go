package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/gridsync/internal/platform"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	wantDataDir, err := expandPath(defaultDataDir)
	if err != nil {
		t.Fatalf("expandPath(defaultDataDir) returned error: %v", err)
	}
	if cfg.DataDir != wantDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, wantDataDir)
	}
	if !cfg.Steam.PruneMissing || !cfg.GridDB.DownloadImages {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.GridDB.MinImageSize != defaultMinImageSize || cfg.GridDB.Concurrency != defaultConcurrency {
		t.Fatalf("GridDB = %+v", cfg.GridDB)
	}
	if cfg.GridCachePath() != filepath.Join(wantDataDir, "grid_cache.json") {
		t.Fatalf("GridCachePath = %q", cfg.GridCachePath())
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
data_dir = "  ~/gs  "

[steam]
location = " ~/.steam/steam "
user = " 12345 "
prune_missing = false

[griddb]
auth_key = "  key  "
download_images = false
min_image_size = 1024
concurrency = 3
image_timeout = "30s"
search_timeout = "2s"

[ui]
refresh = "250ms"
theme = " Slate "

[[platform]]
name = " Emulators "

  [[platform.game]]
  name = " Tetris "
  exe = "~/bin/tetris"
  launch_options = " -fullscreen "
  env = { SDL_VIDEODRIVER = "wayland" }

[[platform]]
name = "Disabled"
enabled = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DataDir != filepath.Join(home, "gs") {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
	wantSteam := Steam{Location: filepath.Join(home, ".steam/steam"), User: "12345", PruneMissing: false}
	if diff := cmp.Diff(wantSteam, cfg.Steam); diff != "" {
		t.Fatalf("Steam mismatch (-want +got):\n%s", diff)
	}
	wantGrid := GridDB{
		AuthKey:        "key",
		DownloadImages: false,
		MinImageSize:   1024,
		Concurrency:    3,
		ImageTimeout:   30 * time.Second,
		SearchTimeout:  2 * time.Second,
	}
	if diff := cmp.Diff(wantGrid, cfg.GridDB); diff != "" {
		t.Fatalf("GridDB mismatch (-want +got):\n%s", diff)
	}
	if cfg.UI.Refresh != 250*time.Millisecond || cfg.UI.Theme != "Slate" {
		t.Fatalf("UI = %+v", cfg.UI)
	}
	wantPlatforms := []Platform{
		{Name: "Emulators", Enabled: true, Games: []platform.CustomGame{{
			Name:          "Tetris",
			Exe:           filepath.Join(home, "bin/tetris"),
			LaunchOptions: "-fullscreen",
			Env:           map[string]string{"SDL_VIDEODRIVER": "wayland"},
		}}},
		{Name: "Disabled", Enabled: false},
	}
	if diff := cmp.Diff(wantPlatforms, cfg.Platforms); diff != "" {
		t.Fatalf("Platforms mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.BuildPlatforms(); len(got) != 2 || got[1].Enabled() {
		t.Fatalf("BuildPlatforms = %v", got)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, `[steam`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	_, err := Load(writeConfig(t, "[griddb]\nimage_timeout = \"soon\"\n"))
	if err == nil || !strings.Contains(err.Error(), "griddb.image_timeout") {
		t.Fatalf("Load error = %v, want image_timeout error", err)
	}
}

func TestLoad_PlatformNeedsName(t *testing.T) {
	if _, err := Load(writeConfig(t, "[[platform]]\nname = \" \"\n")); err == nil {
		t.Fatal("Load returned nil error for nameless platform")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestDataPaths_DefaultWhenDataDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/gridsync.log")) {
		t.Fatalf("LogPath = %q, want it to end with /gridsync.log", got)
	}
}
