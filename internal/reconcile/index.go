package reconcile

import (
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/steam"
)

// Discovered is a game together with the platform that reported it.
type Discovered struct {
	Platform string
	Game     platform.Game
}

// Collision records two platforms reporting the same id. Winner is the one
// kept.
type Collision struct {
	ID       uint32
	Replaced string
	Winner   string
}

// Index is the id lookup a reconciliation runs against.
type Index struct {
	Discovered map[uint32]Discovered
	Existing   map[uint32]struct{}
	Collisions []Collision
	// Unavailable lists platforms whose discovery failed. Their shortcuts are
	// left alone instead of being deleted.
	Unavailable []string
}

// BuildIndex keys games and existing shortcuts by id. When two games share an
// id the later one wins and the clash is appended to Collisions.
func BuildIndex(games []platform.Game, existing []steam.Shortcut) Index {
	idx := Index{
		Discovered: make(map[uint32]Discovered, len(games)),
		Existing:   make(map[uint32]struct{}, len(existing)),
	}
	for _, g := range games {
		if prev, ok := idx.Discovered[g.ID]; ok {
			idx.Collisions = append(idx.Collisions, Collision{
				ID:       g.ID,
				Replaced: prev.Platform,
				Winner:   g.Platform,
			})
		}
		idx.Discovered[g.ID] = Discovered{Platform: g.Platform, Game: g}
	}
	for _, s := range existing {
		idx.Existing[s.AppID] = struct{}{}
	}
	return idx
}

// IDs returns discovered ∪ existing.
func (idx Index) IDs() map[uint32]struct{} {
	ids := make(map[uint32]struct{}, len(idx.Discovered)+len(idx.Existing))
	for id := range idx.Discovered {
		ids[id] = struct{}{}
	}
	for id := range idx.Existing {
		ids[id] = struct{}{}
	}
	return ids
}

func (idx Index) unavailable(s steam.Shortcut) bool {
	for _, p := range idx.Unavailable {
		if s.HasTag(p) {
			return true
		}
	}
	return false
}
