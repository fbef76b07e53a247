package images

import (
	"path/filepath"

	"github.com/five82/gridsync/internal/artwork"
)

// Key names one artwork slot: the grid directory of a user plus the slot's file
// stem, cleaned and slash separated, without extension.
type Key string

// NewKey returns the key for appID's t artwork inside gridDir.
func NewKey(gridDir string, t artwork.Type, appID uint32) Key {
	return KeyFromPath(filepath.Join(gridDir, t.Stem(appID)))
}

// KeyFromPath normalises an extension-less path into a Key.
func KeyFromPath(p string) Key {
	return Key(filepath.ToSlash(filepath.Clean(p)))
}

// Path returns the file the slot is stored in for extension ext.
func (k Key) Path(ext string) string {
	return filepath.FromSlash(string(k) + "." + ext)
}

func (k Key) String() string { return string(k) }
