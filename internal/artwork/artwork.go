// Package artwork names the Steam artwork categories and maps them to the
// file names Steam looks for in a user's grid directory.
package artwork

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Type is one artwork category.
type Type int

const (
	Grid Type = iota
	Hero
	WideGrid
	Logo
	Icon
	BigPicture
)

// Extensions lists the file extensions Steam accepts, in lookup order.
var Extensions = []string{"png", "jpg", "ico", "webp"}

var allTypes = []Type{Grid, Hero, WideGrid, Logo, Icon, BigPicture}

var requiredTypes = []Type{Grid, Hero, WideGrid, Logo, Icon}

// All returns every known category.
func All() []Type {
	return append([]Type(nil), allTypes...)
}

// Required returns the categories a shortcut needs before it is considered
// complete.
func Required() []Type {
	return append([]Type(nil), requiredTypes...)
}

// String returns the configuration key of the category.
func (t Type) String() string {
	switch t {
	case Grid:
		return "grid"
	case Hero:
		return "hero"
	case WideGrid:
		return "wide_grid"
	case Logo:
		return "logo"
	case Icon:
		return "icon"
	case BigPicture:
		return "big_picture"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Label returns a human readable category name.
func (t Type) Label() string {
	switch t {
	case Grid:
		return "Grid"
	case Hero:
		return "Hero"
	case WideGrid:
		return "Wide grid"
	case Logo:
		return "Logo"
	case Icon:
		return "Icon"
	case BigPicture:
		return "Big picture"
	default:
		return t.String()
	}
}

// ParseType parses a category key produced by String.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range allTypes {
		if t.String() == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown artwork type %q", s)
}

// Stem returns the file name without extension Steam uses for appID.
func (t Type) Stem(appID uint32) string {
	id := strconv.FormatUint(uint64(appID), 10)
	switch t {
	case Grid:
		return id + "p"
	case Hero:
		return id + "_hero"
	case WideGrid:
		return id
	case Logo:
		return id + "_logo"
	case Icon:
		return id + "_icon"
	case BigPicture:
		return id + "_bigpicture"
	default:
		return id
	}
}

// FileName returns the full file name for appID with extension ext.
func (t Type) FileName(appID uint32, ext string) string {
	return t.Stem(appID) + "." + strings.TrimPrefix(ext, ".")
}

// Ref identifies one artwork slot of one shortcut.
type Ref struct {
	AppID uint32
	Type  Type
}

func (r Ref) String() string {
	return r.Type.Stem(r.AppID)
}

// Set is the collection of artwork slots known to be present.
type Set map[Ref]struct{}

// Has reports whether ref is present.
func (s Set) Has(ref Ref) bool {
	_, ok := s[ref]
	return ok
}

// Add marks ref as present.
func (s Set) Add(ref Ref) {
	s[ref] = struct{}{}
}

// Scan lists gridDir and returns every slot backed by a file of at least
// minSize bytes. A missing directory yields an empty set.
func Scan(gridDir string, minSize int64) (Set, error) {
	set := Set{}
	entries, err := os.ReadDir(gridDir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return set, fmt.Errorf("read grid dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ref, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() < minSize {
			continue
		}
		set.Add(ref)
	}
	return set, nil
}

// ParseFileName maps a grid file name back to its slot.
func ParseFileName(name string) (Ref, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if !knownExtension(ext) {
		return Ref{}, false
	}
	stem := strings.TrimSuffix(name, "."+ext)

	typ := WideGrid
	for _, candidate := range []struct {
		suffix string
		typ    Type
	}{
		{"_bigpicture", BigPicture},
		{"_hero", Hero},
		{"_logo", Logo},
		{"_icon", Icon},
		{"p", Grid},
	} {
		if strings.HasSuffix(stem, candidate.suffix) {
			stem = strings.TrimSuffix(stem, candidate.suffix)
			typ = candidate.typ
			break
		}
	}
	id, err := strconv.ParseUint(stem, 10, 32)
	if err != nil {
		return Ref{}, false
	}
	return Ref{AppID: uint32(id), Type: typ}, true
}

// ExtensionFor picks a file extension from a content type, falling back to the
// extension of rawURL and finally to png.
func ExtensionFor(contentType, rawURL string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "image/png":
			return "png"
		case "image/jpeg", "image/jpg":
			return "jpg"
		case "image/webp":
			return "webp"
		case "image/vnd.microsoft.icon", "image/x-icon":
			return "ico"
		}
	}
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(trimmed), "."))
	if ext == "jpeg" {
		ext = "jpg"
	}
	if knownExtension(ext) {
		return ext
	}
	return "png"
}

func knownExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}
