package artwork

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileNames(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{Grid, "100p.png"},
		{Hero, "100_hero.png"},
		{WideGrid, "100.png"},
		{Logo, "100_logo.png"},
		{Icon, "100_icon.png"},
		{BigPicture, "100_bigpicture.png"},
	}
	for _, tc := range cases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			got := tc.typ.FileName(100, ".png")
			if got != tc.want {
				t.Fatalf("FileName = %q, want %q", got, tc.want)
			}
			ref, ok := ParseFileName(got)
			if !ok || ref != (Ref{AppID: 100, Type: tc.typ}) {
				t.Fatalf("ParseFileName(%q) = %v,%v, want %v", got, ref, ok, tc.typ)
			}
		})
	}
}

func TestParseFileName_RejectsUnknown(t *testing.T) {
	for _, name := range []string{"notes.txt", "abc_hero.png", "100.bmp", ".png"} {
		if _, ok := ParseFileName(name); ok {
			t.Fatalf("ParseFileName(%q) ok, want rejection", name)
		}
	}
}

func TestScan_SkipsSmallFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	write("7p.png", 10)
	write("7_hero.jpg", 1)
	write("readme.txt", 100)

	set, err := Scan(dir, 2)
	if err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if !set.Has(Ref{AppID: 7, Type: Grid}) {
		t.Fatalf("grid missing from %v", set)
	}
	if set.Has(Ref{AppID: 7, Type: Hero}) {
		t.Fatalf("undersized hero should be treated as absent")
	}
	if len(set) != 1 {
		t.Fatalf("len(set) = %d, want 1", len(set))
	}
}

func TestScan_MissingDir(t *testing.T) {
	set, err := Scan(filepath.Join(t.TempDir(), "nope"), 1)
	if err != nil || len(set) != 0 {
		t.Fatalf("Scan = %v, %v; want empty, nil", set, err)
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		contentType, url, want string
	}{
		{"image/png", "", "png"},
		{"image/jpeg; charset=binary", "", "jpg"},
		{"image/webp", "x.png", "webp"},
		{"image/vnd.microsoft.icon", "", "ico"},
		{"application/octet-stream", "https://cdn/x/y.JPEG?size=1", "jpg"},
		{"", "https://cdn/thing", "png"},
	}
	for _, tc := range cases {
		if got := ExtensionFor(tc.contentType, tc.url); got != tc.want {
			t.Fatalf("ExtensionFor(%q, %q) = %q, want %q", tc.contentType, tc.url, got, tc.want)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range All() {
		got, err := ParseType(" " + typ.String() + " ")
		if err != nil || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseType("banner"); err == nil {
		t.Fatal("ParseType(banner) returned nil error")
	}
}
