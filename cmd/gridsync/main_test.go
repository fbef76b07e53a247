package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/gridsync/internal/renames"
)

func TestParseAppID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"3000000001", 3000000001, false},
		{" 42 ", 42, false},
		{"4294967296", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseAppID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseAppID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("parseAppID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRenameCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("data_dir = \""+filepath.ToSlash(dir)+"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "rename", "3000000001", "Hades II"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("rename returned error: %v", err)
	}
	if !strings.Contains(out.String(), `renamed 3000000001 to "Hades II"`) {
		t.Fatalf("output = %q", out.String())
	}
	m, err := renames.Load(filepath.Join(dir, "renames.json"))
	if err != nil || m[3000000001] != "Hades II" {
		t.Fatalf("renames = %v, %v", m, err)
	}
}

func TestGridIDCommand_RejectsBadID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"gridid", "1", "Hades", "not-a-number"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "invalid griddb id") {
		t.Fatalf("gridid error = %v, want invalid griddb id", err)
	}
}

func TestRootCommand_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("root command accepted a positional argument")
	}
}

func TestBanCommand_RejectsUnknownCategory(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"ban", "1", "poster"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "unknown artwork type") {
		t.Fatalf("ban error = %v, want unknown artwork type", err)
	}
}

func TestArtworkCommand_ValidatesArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown category", args: []string{"artwork", "1", "poster"}, want: "unknown artwork type"},
		{name: "bad id", args: []string{"artwork", "x", "logo"}, want: "invalid shortcut id"},
		{name: "too many args", args: []string{"artwork", "1", "logo", "0", "extra"}, want: "accepts between 2 and 3 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetErr(new(bytes.Buffer))
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("artwork error = %v, want %q", err, tt.want)
			}
		})
	}
}
