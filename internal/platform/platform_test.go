package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/gridsync/internal/steam"
)

func TestCommandLine_LaunchOptions(t *testing.T) {
	tests := []struct {
		name  string
		build func(*CommandLine)
		want  string
	}{
		{"empty", func(*CommandLine) {}, ""},
		{"params only", func(c *CommandLine) {
			c.AddParameter("-windowed")
			c.AddPathParameter("/games/save")
		}, "-windowed '/games/save'"},
		{"env", func(c *CommandLine) {
			c.AddEnv("dxvk_hud", "1")
			c.AddParameter("-skipintro")
		}, "DXVK_HUD=1 %command% -skipintro"},
		{"wrapper without params", func(c *CommandLine) {
			c.AddPreParameter("gamemoderun")
		}, "gamemoderun %command%"},
		{"blank values ignored", func(c *CommandLine) {
			c.AddEnv(" ", "x")
			c.AddParameter("  ")
			c.AddPreParameter("")
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c CommandLine
			tt.build(&c)
			if got := c.LaunchOptions(); got != tt.want {
				t.Fatalf("LaunchOptions() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGame_ShortcutKeepsDiscoveredID(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("quoting differs on windows")
	}
	g := NewGame("Custom", " Hades ", "/games/hades", "Hades.x86_64", "-vulkan", map[string]string{"b": "2", "a": "1"})
	if g.Name != "Hades" {
		t.Fatalf("Name = %q", g.Name)
	}
	if got, want := g.Target(), `"/games/hades/Hades.x86_64"`; got != want {
		t.Fatalf("Target() = %q, want %q", got, want)
	}
	if g.ID != steam.AppID(g.Target(), "Hades") {
		t.Fatalf("ID = %d, want derived id", g.ID)
	}

	s := g.Shortcut("Hades (renamed)")
	if s.AppID != g.ID {
		t.Fatalf("AppID = %d, want %d", s.AppID, g.ID)
	}
	if s.AppName != "Hades (renamed)" {
		t.Fatalf("AppName = %q", s.AppName)
	}
	if s.StartDir != `"/games/hades"` {
		t.Fatalf("StartDir = %q", s.StartDir)
	}
	if got, want := s.LaunchOptions, "A=1 B=2 %command% -vulkan"; got != want {
		t.Fatalf("LaunchOptions = %q, want %q", got, want)
	}
	if !s.HasTag("custom") || !s.HasTag(ManagedTag) {
		t.Fatalf("Tags = %v", s.Tags)
	}
	if g.Shortcut("").AppName != "Hades" {
		t.Fatal("blank name should fall back to the discovered one")
	}
}

func TestCustom_DiscoverSkipsMissingExecutables(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "game.sh")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := NewCustom("Custom", true, []CustomGame{
		{Name: "Present", Exe: exe},
		{Name: "Gone", Exe: filepath.Join(dir, "missing.sh")},
	})
	games, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(games) != 1 || games[0].Name != "Present" || games[0].Platform != "Custom" {
		t.Fatalf("games = %+v", games)
	}
}

func TestCustom_SettingsValid(t *testing.T) {
	if err := NewCustom("", true, nil).SettingsValid(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := NewCustom("X", true, []CustomGame{{Name: "A"}}).SettingsValid(); err == nil {
		t.Fatal("expected error for missing exe")
	}
	if err := NewCustom("X", true, []CustomGame{{Name: "A", Exe: "/a"}}).SettingsValid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type fakePlatform struct {
	name    string
	enabled bool
	games   []Game
	err     error
	release chan struct{}
}

func (f *fakePlatform) Name() string { return f.name }
func (f *fakePlatform) Enabled() bool { return f.enabled }
func (f *fakePlatform) SettingsValid() error { return nil }
func (f *fakePlatform) Discover(ctx context.Context) ([]Game, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.games, f.err
}

func TestCollector_MergesSuccessfulPlatforms(t *testing.T) {
	a := &fakePlatform{name: "A", enabled: true, games: []Game{{ID: 1, Name: "one", Platform: "A"}}}
	b := &fakePlatform{name: "B", enabled: true, err: errors.New("manifest unreadable")}
	off := &fakePlatform{name: "Off", enabled: false, games: []Game{{ID: 9}}}
	c := &fakePlatform{name: "C", enabled: true, games: []Game{{ID: 2, Name: "two", Platform: "C"}}}

	col := NewCollector([]Platform{a, b, off, c}, nil)
	if col.AllReady() {
		t.Fatal("AllReady before Start")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	col.Start(ctx)
	if err := col.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if !col.AllReady() {
		t.Fatal("AllReady false after Wait")
	}

	res := col.Results()
	if len(res.Games) != 2 || res.Games[0].ID != 1 || res.Games[1].ID != 2 {
		t.Fatalf("Games = %+v", res.Games)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "B" {
		t.Fatalf("Failed = %v", res.Failed)
	}
	statuses := col.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("len(Statuses) = %d, want 3", len(statuses))
	}
	for _, st := range statuses {
		if st.Status.Phase != Fetched {
			t.Fatalf("%s phase = %v", st.Name, st.Status.Phase)
		}
	}
}

func TestCollector_WaitHonoursContext(t *testing.T) {
	slow := &fakePlatform{name: "Slow", enabled: true, release: make(chan struct{})}
	col := NewCollector([]Platform{slow}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	col.Start(ctx)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer waitCancel()
	if err := col.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait error = %v, want deadline exceeded", err)
	}
	if got := col.Statuses()[0].Status.Phase; got != Fetching {
		t.Fatalf("phase = %v, want fetching", got)
	}
	if res := col.Results(); len(res.Failed) != 0 || len(res.Pending) != 1 {
		t.Fatalf("Results = %+v, want one pending platform", res)
	}

	close(slow.release)
	if err := col.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	cancel()
}

type panicPlatform struct{ fakePlatform }

func (p *panicPlatform) Discover(context.Context) ([]Game, error) { panic("boom") }

func TestCollector_RecoversPanics(t *testing.T) {
	p := &panicPlatform{fakePlatform{name: "P", enabled: true}}
	col := NewCollector([]Platform{p}, nil)
	col.Start(context.Background())
	if err := col.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := col.Statuses()[0].Status
	if st.Err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

// roundPlatform blocks its first discovery on release and answers later
// calls immediately, so two rounds finish out of order.
type roundPlatform struct {
	calls   atomic.Int32
	release chan struct{}
}

func (p *roundPlatform) Name() string         { return "Rounds" }
func (p *roundPlatform) Enabled() bool        { return true }
func (p *roundPlatform) SettingsValid() error { return nil }
func (p *roundPlatform) Discover(context.Context) ([]Game, error) {
	if p.calls.Add(1) == 1 {
		<-p.release
		return []Game{{ID: 1, Name: "stale"}}, nil
	}
	return []Game{{ID: 2, Name: "fresh"}}, nil
}

func TestCollector_RestartDropsStaleRound(t *testing.T) {
	p := &roundPlatform{release: make(chan struct{})}
	col := NewCollector([]Platform{p}, nil)
	ctx := context.Background()

	col.Start(ctx)
	deadline := time.Now().Add(2 * time.Second)
	for p.calls.Load() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("first round never started")
		}
		time.Sleep(time.Millisecond)
	}

	col.Start(ctx)
	if err := col.Wait(ctx); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if games := col.Results().Games; len(games) != 1 || games[0].Name != "fresh" {
		t.Fatalf("Games after restart = %+v, want fresh", games)
	}

	close(p.release)
	time.Sleep(20 * time.Millisecond)
	if games := col.Results().Games; len(games) != 1 || games[0].Name != "fresh" {
		t.Fatalf("Games after stale round finished = %+v, want fresh", games)
	}
}

func TestCollector_WaitWithoutPlatforms(t *testing.T) {
	col := NewCollector(nil, nil)
	if err := col.Wait(context.Background()); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
}
