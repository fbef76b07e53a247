package reconcile

import (
	"cmp"
	"slices"
	"strings"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/steam"
)

// Actions partitions a reconciliation result into disjoint buckets.
type Actions[T any] struct {
	Add           []T
	Update        []T
	Delete        []T
	ImageDownload []T
	None          []T
}

// Counts is the size of each bucket.
type Counts struct {
	Add           int
	Update        int
	Delete        int
	ImageDownload int
	None          int
}

// Counts returns the size of every bucket.
func (a Actions[T]) Counts() Counts {
	return Counts{
		Add:           len(a.Add),
		Update:        len(a.Update),
		Delete:        len(a.Delete),
		ImageDownload: len(a.ImageDownload),
		None:          len(a.None),
	}
}

// Total is the number of items across all buckets.
func (c Counts) Total() int {
	return c.Add + c.Update + c.Delete + c.ImageDownload + c.None
}

// Changes is the number of items that alter shortcuts.vdf.
func (c Counts) Changes() int {
	return c.Add + c.Update + c.Delete
}

// Map applies f to every item, keeping bucket membership and order.
func Map[T, U any](a Actions[T], f func(T) U) Actions[U] {
	conv := func(in []T) []U {
		if in == nil {
			return nil
		}
		out := make([]U, len(in))
		for i, v := range in {
			out[i] = f(v)
		}
		return out
	}
	return Actions[U]{
		Add:           conv(a.Add),
		Update:        conv(a.Update),
		Delete:        conv(a.Delete),
		ImageDownload: conv(a.ImageDownload),
		None:          conv(a.None),
	}
}

// Entry is one shortcut id and what is known about it.
type Entry struct {
	ID       uint32
	Platform string
	// Desired is the shortcut the discovered game maps to; nil for deletes
	// and for shortcuts of unavailable platforms.
	Desired *steam.Shortcut
	// Existing is the shortcut currently in Steam; nil for adds.
	Existing *steam.Shortcut
	// Missing lists required artwork categories not yet on disk.
	Missing []artwork.Type
}

// Name returns the display name of the entry.
func (e Entry) Name() string {
	if e.Desired != nil {
		return e.Desired.AppName
	}
	if e.Existing != nil {
		return e.Existing.AppName
	}
	return ""
}

// Shortcut returns the shortcut to store for an add or update. Fields Steam or
// the user maintain on the existing entry are carried over.
func (e Entry) Shortcut() steam.Shortcut {
	switch {
	case e.Desired == nil && e.Existing != nil:
		return e.Existing.Clone()
	case e.Desired == nil:
		return steam.Shortcut{}
	}
	s := e.Desired.Clone()
	if e.Existing != nil {
		ex := e.Existing
		s.IsHidden = ex.IsHidden
		s.LastPlayTime = ex.LastPlayTime
		s.OpenVR = ex.OpenVR
		s.Devkit = ex.Devkit
		s.DevkitGameID = ex.DevkitGameID
		s.DevkitOverrideAppID = ex.DevkitOverrideAppID
		s.FlatpakAppID = ex.FlatpakAppID
		if s.Icon == "" {
			s.Icon = ex.Icon
		}
		if s.ShortcutPath == "" {
			s.ShortcutPath = ex.ShortcutPath
		}
	}
	return s
}

// Options tunes Reconcile.
type Options struct {
	// Banned artwork slots count as present.
	Banned artwork.Set
}

// Reconcile partitions discovered ∪ existing ids. known holds the artwork
// slots present on disk. The result is sorted by id within each bucket and
// depends only on the inputs.
func Reconcile(idx Index, existing []steam.Shortcut, known artwork.Set, opts Options) Actions[Entry] {
	var out Actions[Entry]
	seen := make(map[uint32]struct{}, len(existing))

	for i := range existing {
		ex := existing[i].Clone()
		if _, dup := seen[ex.AppID]; dup {
			continue
		}
		seen[ex.AppID] = struct{}{}

		d, ok := idx.Discovered[ex.AppID]
		if !ok {
			e := Entry{ID: ex.AppID, Platform: platformTag(ex), Existing: &ex}
			if idx.unavailable(ex) {
				out.None = append(out.None, e)
			} else {
				out.Delete = append(out.Delete, e)
			}
			continue
		}

		desired := d.Game.Shortcut(d.Game.Name)
		e := Entry{
			ID:       ex.AppID,
			Platform: d.Platform,
			Desired:  &desired,
			Existing: &ex,
			Missing:  missing(ex.AppID, known, opts.Banned),
		}
		switch {
		case !desired.LaunchEqual(ex) || desired.AppName != ex.AppName:
			out.Update = append(out.Update, e)
		case len(e.Missing) > 0:
			out.ImageDownload = append(out.ImageDownload, e)
		default:
			out.None = append(out.None, e)
		}
	}

	for id, d := range idx.Discovered {
		if _, ok := seen[id]; ok {
			continue
		}
		desired := d.Game.Shortcut(d.Game.Name)
		out.Add = append(out.Add, Entry{
			ID:       id,
			Platform: d.Platform,
			Desired:  &desired,
			Missing:  missing(id, known, opts.Banned),
		})
	}

	for _, bucket := range []*[]Entry{&out.Add, &out.Update, &out.Delete, &out.ImageDownload, &out.None} {
		slices.SortFunc(*bucket, func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) })
	}
	return out
}

func missing(id uint32, known, banned artwork.Set) []artwork.Type {
	var out []artwork.Type
	for _, t := range artwork.Required() {
		ref := artwork.Ref{AppID: id, Type: t}
		if known.Has(ref) || banned.Has(ref) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func platformTag(s steam.Shortcut) string {
	for _, t := range s.Tags {
		if !strings.EqualFold(t, platform.ManagedTag) {
			return t
		}
	}
	return ""
}
