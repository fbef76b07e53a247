package renames

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/gridsync/internal/platform"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "renames.json")
	m := Map{}
	m.Set(100, " Hades (modded) ")
	m.Set(200, "Celeste")
	m.Set(200, "")
	if err := Save(path, m); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"100\": \"Hades (modded)\"\n}"; string(raw) != want {
		t.Fatalf("file = %q, want %q", raw, want)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if diff := cmp.Diff(Map{100: "Hades (modded)"}, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(filepath.Join(dir, "missing.json"))
	if err != nil || len(m) != 0 {
		t.Fatalf("Load(missing) = %v, %v", m, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(bad)
	if err == nil {
		t.Fatal("Load(bad) returned nil error")
	}
	if m == nil {
		t.Fatal("Load(bad) returned nil map")
	}
}

func TestApply_OverrideWins(t *testing.T) {
	games := []platform.Game{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	got := Map{2: "TWO"}.Apply(games)
	if got[0].Name != "one" || got[1].Name != "TWO" || got[1].ID != 2 {
		t.Fatalf("Apply = %+v", got)
	}
	if games[1].Name != "two" {
		t.Fatal("Apply mutated its input")
	}
}
