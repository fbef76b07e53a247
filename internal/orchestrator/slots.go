package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/reconcile"
	"github.com/five82/gridsync/internal/steam"
)

// ErrImagesDisabled is returned by artwork operations when no image cache or
// SteamGridDB client is wired.
var ErrImagesDisabled = errors.New("artwork downloads disabled")

// Slot is one artwork category of one shortcut for one Steam user.
type Slot struct {
	User  steam.User
	AppID uint32
	Name  string
	Type  artwork.Type
	// OnDisk is set when a usable file existed when the slot was listed.
	OnDisk bool
}

// Key returns the cache key of the slot.
func (s Slot) Key() images.Key { return images.NewKey(s.User.GridDir(), s.Type, s.AppID) }

func (s Slot) job() slotJob {
	return slotJob{key: s.Key(), appID: s.AppID, name: s.Name, typ: s.Type}
}

// SlotState is a slot with its cache entry. Tracked is false when the cache
// has never seen the slot.
type SlotState struct {
	Slot
	Entry   images.Entry
	Tracked bool
}

// Slots lists the required artwork of every shortcut the plans keep, ordered
// by user then app id. Banned categories are left out.
func (o *Orchestrator) Slots(plans []UserPlan) []Slot {
	banned := o.opts.Prefs.Banned()
	var out []Slot
	for _, p := range plans {
		a := p.Actions
		entries := slices.Concat(a.Add, a.Update, a.ImageDownload, a.None)
		slices.SortFunc(entries, func(x, y reconcile.Entry) int { return cmp.Compare(x.ID, y.ID) })
		for _, e := range entries {
			for _, t := range artwork.Required() {
				if banned.Has(artwork.Ref{AppID: e.ID, Type: t}) {
					continue
				}
				out = append(out, Slot{
					User:   p.User,
					AppID:  e.ID,
					Name:   e.Name(),
					Type:   t,
					OnDisk: !slices.Contains(e.Missing, t),
				})
			}
		}
	}
	return out
}

// Observe reads the cache entry of every slot without blocking.
func (o *Orchestrator) Observe(slots []Slot) []SlotState {
	out := make([]SlotState, len(slots))
	for i, s := range slots {
		out[i].Slot = s
		if o.opts.Images != nil {
			out[i].Entry, out[i].Tracked = o.opts.Images.Observe(s.Key())
		}
	}
	return out
}

// Retry forgets what the cache holds for the slot and downloads it again from
// the best SteamGridDB candidate. It returns once the download has started.
func (o *Orchestrator) Retry(ctx context.Context, s Slot) error {
	if !o.imagesEnabled() {
		return ErrImagesDisabled
	}
	url, err := o.findImage(ctx, s.job())
	if err != nil {
		return err
	}
	key := s.Key()
	cache := o.opts.Images
	cache.Clear(key)
	// Request rather than Ensure: a corrupt file on disk would otherwise be
	// accepted again.
	cache.Request(key, url, o.opts.MinImageSize)
	o.logger.Info("retrying artwork",
		zap.Uint32("app_id", s.AppID), zap.Stringer("type", s.Type), zap.String("url", url))
	return nil
}

// Candidates lists the SteamGridDB artwork available for the slot, best first.
func (o *Orchestrator) Candidates(ctx context.Context, s Slot) ([]griddb.Image, error) {
	if o.opts.GridIDs == nil || o.opts.Artwork == nil {
		return nil, ErrImagesDisabled
	}
	return o.candidates(ctx, s.job())
}

// Download replaces the slot's file with the image at url and waits for it to
// be fetched and decoded.
func (o *Orchestrator) Download(ctx context.Context, s Slot, url string) (images.Entry, error) {
	cache := o.opts.Images
	if cache == nil {
		return images.Entry{}, ErrImagesDisabled
	}
	key := s.Key()
	cache.Clear(key)
	cache.Request(key, url, o.opts.MinImageSize)
	if err := cache.Wait(ctx, key); err != nil {
		return images.Entry{}, fmt.Errorf("wait for download: %w", err)
	}
	e, _ := cache.Observe(key)
	if e.State == images.Failed {
		return e, e.Err
	}
	return cache.Load(key)
}
