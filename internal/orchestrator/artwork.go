package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/reconcile"
)

var (
	errNoMatch   = errors.New("no steamgriddb match")
	errNoArtwork = errors.New("no artwork available")
)

type slotJob struct {
	key   images.Key
	appID uint32
	name  string
	typ   artwork.Type
	url   string
}

// planSlots lists every missing artwork slot of entries that will exist in
// Steam after the commit.
func planSlots(plans []UserPlan) []slotJob {
	var jobs []slotJob
	for _, p := range plans {
		grid := p.User.GridDir()
		for _, bucket := range [][]reconcile.Entry{p.Actions.Add, p.Actions.Update, p.Actions.ImageDownload} {
			for _, e := range bucket {
				for _, t := range e.Missing {
					jobs = append(jobs, slotJob{
						key:   images.NewKey(grid, t, e.ID),
						appID: e.ID,
						name:  e.Name(),
						typ:   t,
					})
				}
			}
		}
	}
	return jobs
}

// acquire resolves a source URL for every planned slot with bounded
// concurrency, then downloads them all and waits for the downloads to settle.
func (o *Orchestrator) acquire(ctx context.Context, plans []UserPlan) (ImageStats, error) {
	jobs := planSlots(plans)
	stats := ImageStats{Planned: len(jobs)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)
	for i := range jobs {
		g.Go(func() error {
			url, err := o.findImage(gctx, jobs[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				o.logger.Info("no artwork found",
					zap.Uint32("app_id", jobs[i].appID),
					zap.String("name", jobs[i].name),
					zap.Stringer("type", jobs[i].typ),
					zap.Error(err))
				mu.Lock()
				stats.NotFound++
				mu.Unlock()
				return nil
			}
			jobs[i].url = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("find artwork: %w", err)
	}

	cache := o.opts.Images
	keys := make([]images.Key, 0, len(jobs))
	for _, j := range jobs {
		if j.url == "" {
			continue
		}
		// Every planned slot is missing on disk, so whatever the cache holds
		// for it is stale.
		if e, ok := cache.Observe(j.key); ok && e.State != images.Downloading {
			cache.Clear(j.key)
		}
		keys = append(keys, j.key)
	}
	o.progress.Send(Progress{Stage: DownloadingImages, Count: len(keys)})
	for _, j := range jobs {
		if j.url != "" {
			cache.Ensure(j.key, j.url, o.opts.MinImageSize)
		}
	}
	if err := cache.Wait(ctx, keys...); err != nil {
		return stats, fmt.Errorf("wait for downloads: %w", err)
	}

	for _, k := range keys {
		e, ok := cache.Observe(k)
		switch {
		case !ok:
		case e.State == images.Failed:
			stats.Failed++
		case e.Undersized:
			stats.Undersized++
		default:
			stats.Downloaded++
		}
	}
	return stats, nil
}

func (o *Orchestrator) findImage(ctx context.Context, j slotJob) (string, error) {
	candidates, err := o.candidates(ctx, j)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", errNoArtwork
	}
	return candidates[0].URL, nil
}

// candidates lists downloadable artwork for j in SteamGridDB order.
func (o *Orchestrator) candidates(ctx context.Context, j slotJob) ([]griddb.Image, error) {
	res, err := o.opts.GridIDs.Resolve(ctx, j.appID, j.name)
	if err != nil {
		return nil, fmt.Errorf("resolve grid id: %w", err)
	}
	if !res.Found {
		return nil, errNoMatch
	}
	list, err := o.opts.Artwork.Images(ctx, res.GridID, j.typ)
	if err != nil {
		return nil, fmt.Errorf("list %s artwork: %w", j.typ, err)
	}
	return slices.DeleteFunc(list, func(img griddb.Image) bool { return img.URL == "" }), nil
}

// linkIcons points managed shortcuts without an icon at their downloaded icon
// file and rewrites the users whose lists changed.
func (o *Orchestrator) linkIcons(plans []UserPlan) (int, error) {
	linked := 0
	for _, p := range plans {
		existing, err := o.opts.Store.Read(p.User)
		if err != nil {
			return linked, fmt.Errorf("read shortcuts for user %s: %w", p.User.ID, err)
		}
		changed := 0
		for i := range existing {
			s := &existing[i]
			if s.Icon != "" || !s.HasTag(platform.ManagedTag) {
				continue
			}
			key := images.NewKey(p.User.GridDir(), artwork.Icon, s.AppID)
			e, ok := o.opts.Images.Observe(key)
			if !ok || e.Undersized {
				continue
			}
			if e.State == images.Downloaded {
				if e, err = o.opts.Images.Load(key); err != nil {
					o.logger.Warn("icon unusable", zap.Uint32("app_id", s.AppID), zap.Error(err))
					continue
				}
			}
			if e.State != images.Loaded {
				continue
			}
			s.Icon = e.Path
			changed++
		}
		if changed == 0 {
			continue
		}
		if err := o.opts.Store.Write(p.User, existing); err != nil {
			return linked, fmt.Errorf("write shortcuts for user %s: %w", p.User.ID, err)
		}
		linked += changed
	}
	return linked, nil
}
