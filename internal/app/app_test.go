package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/prefs"
	"github.com/five82/gridsync/internal/reconcile"
	"github.com/five82/gridsync/internal/renames"
	"github.com/five82/gridsync/internal/steam"
)

func TestWriteReport(t *testing.T) {
	rep := orchestrator.Report{
		Games:  3,
		Failed: []string{"Heroic"},
		Users: []orchestrator.UserReport{{
			User:    steam.User{ID: "42"},
			Applied: reconcile.Counts{Add: 2, Delete: 1},
		}},
		Images:   orchestrator.ImageStats{Planned: 10, Downloaded: 8, NotFound: 2},
		Started:  time.Unix(0, 0),
		Finished: time.Unix(3, 0),
	}

	var buf bytes.Buffer
	writeReport(&buf, rep)
	got := buf.String()
	for _, want := range []string{
		"games: 3\n",
		"failed platforms: Heroic\n",
		"user 42: 2 added, 0 updated, 1 deleted\n",
		"images: 10 planned, 8 downloaded, 2 not found, 0 undersized, 0 failed\n",
		"took 3s\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("report missing %q:\n%s", want, got)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "Nord", "Dracula"); got != "Nord" {
		t.Fatalf("firstNonEmpty = %q, want Nord", got)
	}
	if got := firstNonEmpty(); got != "" {
		t.Fatalf("firstNonEmpty() = %q, want empty", got)
	}
}

func writeConfig(t *testing.T) (Options, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "data_dir = \"" + filepath.ToSlash(dir) + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return Options{ConfigPath: path}, dir
}

func TestRename(t *testing.T) {
	opts, dir := writeConfig(t)

	if err := Rename(opts, 3000000001, "Hades II"); err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	m, err := renames.Load(filepath.Join(dir, "renames.json"))
	if err != nil {
		t.Fatalf("renames.Load returned error: %v", err)
	}
	if m[3000000001] != "Hades II" {
		t.Fatalf("renames = %v", m)
	}

	if err := Rename(opts, 3000000001, ""); err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	m, _ = renames.Load(filepath.Join(dir, "renames.json"))
	if _, ok := m[3000000001]; ok {
		t.Fatalf("empty name should remove the override, got %v", m)
	}
}

func TestSetGridID(t *testing.T) {
	opts, dir := writeConfig(t)

	if err := SetGridID(opts, 3000000001, "Hades", 1145); err != nil {
		t.Fatalf("SetGridID returned error: %v", err)
	}
	res, ok := griddb.OpenCache(filepath.Join(dir, "grid_cache.json"), nil, nil).Lookup(3000000001)
	if !ok || res.GridID != 1145 || !res.Found {
		t.Fatalf("Lookup = %+v, %v", res, ok)
	}
}

func TestIgnoreAndBan(t *testing.T) {
	opts, dir := writeConfig(t)

	if err := Ignore(opts, 3000000001); err != nil {
		t.Fatalf("Ignore returned error: %v", err)
	}
	if err := Ban(opts, 3000000002, artwork.Hero); err != nil {
		t.Fatalf("Ban returned error: %v", err)
	}

	p, err := prefs.Load(filepath.Join(dir, "prefs.toml"))
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if !p.Ignored(3000000001) {
		t.Fatalf("IgnoredGames = %v", p.IgnoredGames)
	}
	if !p.Banned().Has(artwork.Ref{AppID: 3000000002, Type: artwork.Hero}) {
		t.Fatalf("BannedImages = %v", p.BannedImages)
	}
}

func TestResearch_RequiresAuthKey(t *testing.T) {
	opts, _ := writeConfig(t)

	if _, err := Research(context.Background(), opts, 1, "Hades"); err == nil || !strings.Contains(err.Error(), "auth_key") {
		t.Fatalf("Research error = %v, want auth_key error", err)
	}
}

func TestResearch_StoresTopResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/search/autocomplete/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":4321,"name":"Hades"}]}`))
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "data_dir = \"" + filepath.ToSlash(dir) + "\"\n\n[griddb]\nauth_key = \"secret\"\nbase_url = \"" + server.URL + "/api/v2\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res, err := Research(context.Background(), Options{ConfigPath: path}, 3000000001, "Hades")
	if err != nil {
		t.Fatalf("Research returned error: %v", err)
	}
	if !res.Found || res.GridID != 4321 {
		t.Fatalf("Research = %+v", res)
	}
	cached, ok := griddb.OpenCache(filepath.Join(dir, "grid_cache.json"), nil, nil).Lookup(3000000001)
	if !ok || cached.GridID != 4321 {
		t.Fatalf("Lookup = %+v, %v", cached, ok)
	}
}

func TestLoadPrefs_LogsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("theme = [\n"), 0o644); err != nil {
		t.Fatalf("write prefs: %v", err)
	}
	core, logs := observer.New(zapcore.WarnLevel)

	p := loadPrefs(path, zap.New(core))
	if p.Theme == "" {
		t.Fatal("loadPrefs returned prefs without a theme")
	}
	entries := logs.FilterMessage("preferences unreadable, using defaults").All()
	if len(entries) != 1 {
		t.Fatalf("warn entries = %d, want 1 (all: %v)", len(entries), logs.All())
	}
}

func TestSetArtwork_ListsThenDownloadsChoice(t *testing.T) {
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 3, 2))); err != nil {
		t.Fatal(err)
	}
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/search/autocomplete/"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":4321,"name":"Hades"}]}`))
		case strings.HasSuffix(r.URL.Path, "/logos/game/4321"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success":true,"data":[` +
				`{"id":1,"width":400,"height":100,"style":"official","url":"` + server.URL + `/img/first.png"},` +
				`{"id":2,"width":800,"height":200,"style":"white","url":"` + server.URL + `/img/second.png"}]}`))
		case strings.HasPrefix(r.URL.Path, "/img/"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	steamDir := filepath.Join(dir, "steam")
	user := steam.User{ID: "1000", Dir: filepath.Join(steamDir, "userdata", "1000")}
	hades := steam.NewShortcut("Hades", "/games/hades/Hades.x86_64", "/games/hades", "")
	if err := os.MkdirAll(filepath.Dir(user.ShortcutsPath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(user.ShortcutsPath(), steam.Encode([]steam.Shortcut{hades}), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.toml")
	body := "data_dir = \"" + filepath.ToSlash(dir) + "\"\n\n" +
		"[steam]\nlocation = \"" + filepath.ToSlash(steamDir) + "\"\n\n" +
		"[griddb]\nauth_key = \"secret\"\nbase_url = \"" + server.URL + "/api/v2\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	opts := Options{ConfigPath: path}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := SetArtwork(ctx, opts, hades.AppID, artwork.Logo, "", &out); err != nil {
		t.Fatalf("SetArtwork list returned error: %v", err)
	}
	if !strings.Contains(out.String(), "first.png") || !strings.Contains(out.String(), "second.png") {
		t.Fatalf("candidate list:\n%s", out.String())
	}
	target := images.NewKey(user.GridDir(), artwork.Logo, hades.AppID).Path("png")
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("listing wrote artwork: %v", err)
	}

	out.Reset()
	if err := SetArtwork(ctx, opts, hades.AppID, artwork.Logo, "1", &out); err != nil {
		t.Fatalf("SetArtwork returned error: %v", err)
	}
	if !strings.Contains(out.String(), "(3x2)") {
		t.Fatalf("download output: %s", out.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("chosen artwork missing: %v", err)
	}

	out.Reset()
	if err := SetArtwork(ctx, opts, hades.AppID, artwork.Hero, server.URL+"/img/hero.png", &out); err != nil {
		t.Fatalf("SetArtwork by url returned error: %v", err)
	}

	if err := SetArtwork(ctx, opts, hades.AppID, artwork.Logo, "7", &out); err == nil || !strings.Contains(err.Error(), "invalid choice") {
		t.Fatalf("out of range choice error = %v", err)
	}
	if err := SetArtwork(ctx, opts, 1, artwork.Logo, "0", &out); err == nil || !strings.Contains(err.Error(), "no steam user") {
		t.Fatalf("unknown shortcut error = %v", err)
	}
}
