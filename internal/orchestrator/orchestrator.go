package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/prefs"
	"github.com/five82/gridsync/internal/reconcile"
	"github.com/five82/gridsync/internal/renames"
	"github.com/five82/gridsync/internal/steam"
	"github.com/five82/gridsync/internal/watch"
)

var (
	// ErrBusy is returned by Run while another pass is running.
	ErrBusy = errors.New("sync already running")
	// ErrNoUsers is returned when the store lists no Steam users.
	ErrNoUsers = errors.New("no steam users found")
)

const defaultConcurrency = 8

// Resolver maps a shortcut to its SteamGridDB game.
type Resolver interface {
	Resolve(ctx context.Context, id uint32, name string) (griddb.Resolution, error)
}

// ArtworkSource lists artwork candidates for a SteamGridDB game.
type ArtworkSource interface {
	Images(ctx context.Context, gameID int, t artwork.Type) ([]griddb.Image, error)
}

var (
	_ Resolver      = (*griddb.Cache)(nil)
	_ ArtworkSource = (*griddb.Client)(nil)
)

// Options wires an Orchestrator. Collector and Store are required; image
// acquisition runs only when DownloadImages is set and Images, GridIDs and
// Artwork are all present.
type Options struct {
	Collector    *platform.Collector
	Store        steam.Store
	Renames      renames.Map
	Prefs        prefs.Prefs
	PruneMissing bool

	DownloadImages bool
	Images         *images.Cache
	GridIDs        Resolver
	Artwork        ArtworkSource
	MinImageSize   int64
	Concurrency    int

	Logger *zap.Logger
	Now    func() time.Time
}

// UserPlan is the reconciliation of one Steam user.
type UserPlan struct {
	User       steam.User
	Existing   []steam.Shortcut
	Actions    reconcile.Actions[reconcile.Entry]
	Collisions []reconcile.Collision
}

// Preview is a reconciliation that has not been committed.
type Preview struct {
	Games   int
	Failed  []string
	Pending []string
	Users   []UserPlan
}

// UserReport describes what a pass did for one user.
type UserReport struct {
	User    steam.User
	Applied reconcile.Counts
	Written bool
	// Final is the reconciliation after artwork was fetched.
	Final reconcile.Counts
}

// ImageStats tallies the artwork phase.
type ImageStats struct {
	Planned    int
	NotFound   int
	Downloaded int
	Undersized int
	Failed     int
	Linked     int
}

// Report summarises a finished pass.
type Report struct {
	Games    int
	Failed   []string
	Users    []UserReport
	Images   ImageStats
	Started  time.Time
	Finished time.Time
}

// OK reports whether every platform contributed.
func (r Report) OK() bool { return len(r.Failed) == 0 }

// Orchestrator runs sync passes. One pass runs at a time.
type Orchestrator struct {
	opts     Options
	logger   *zap.Logger
	progress *watch.Value[Progress]
	running  atomic.Bool
}

// New returns an Orchestrator for opts.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Orchestrator{
		opts:     opts,
		logger:   opts.Logger,
		progress: watch.New(Progress{}),
	}
}

// Progress returns the channel carrying the current pass's stage.
func (o *Orchestrator) Progress() *watch.Value[Progress] { return o.progress }

// Running reports whether a pass is in progress.
func (o *Orchestrator) Running() bool { return o.running.Load() }

// Preview reconciles the games discovered so far without writing anything.
// Platforms still fetching are treated as unavailable.
func (o *Orchestrator) Preview(ctx context.Context) (Preview, error) {
	if err := ctx.Err(); err != nil {
		return Preview{}, err
	}
	games, res := o.collect()
	plans, err := o.plan(games, res.Unavailable())
	if err != nil {
		return Preview{}, err
	}
	return Preview{Games: len(games), Failed: res.Failed, Pending: res.Pending, Users: plans}, nil
}

// Run performs one full pass: wait for discovery, reconcile every user,
// commit shortcut changes, acquire missing artwork and reconcile again.
func (o *Orchestrator) Run(ctx context.Context) (Report, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer o.running.Store(false)

	rep := Report{Started: o.opts.Now()}
	o.progress.Send(Progress{Stage: Starting})
	err := o.run(ctx, &rep)
	rep.Finished = o.opts.Now()
	o.progress.Send(Progress{Stage: Done, Err: err})

	if err != nil {
		o.logger.Error("sync failed", zap.Error(err))
		return rep, err
	}
	o.logger.Info("sync finished",
		zap.Int("games", rep.Games),
		zap.Strings("failed_platforms", rep.Failed),
		zap.Int("images_downloaded", rep.Images.Downloaded),
		zap.Int("images_failed", rep.Images.Failed),
		zap.Duration("elapsed", rep.Finished.Sub(rep.Started)))
	return rep, nil
}

func (o *Orchestrator) run(ctx context.Context, rep *Report) error {
	if o.opts.Collector != nil {
		if err := o.opts.Collector.Wait(ctx); err != nil {
			return fmt.Errorf("wait for platforms: %w", err)
		}
	}
	games, res := o.collect()
	rep.Games = len(games)
	rep.Failed = res.Failed
	o.progress.Send(Progress{Stage: FoundGames, Count: len(games)})

	plans, err := o.plan(games, res.Unavailable())
	if err != nil {
		return err
	}
	for _, p := range plans {
		for _, c := range p.Collisions {
			o.logger.Warn("duplicate shortcut id across platforms",
				zap.Uint32("app_id", c.ID), zap.String("replaced", c.Replaced), zap.String("winner", c.Winner))
		}
		ur, err := o.commit(p)
		if err != nil {
			return err
		}
		rep.Users = append(rep.Users, ur)
	}

	o.progress.Send(Progress{Stage: FindingImages})
	if o.imagesEnabled() {
		stats, err := o.acquire(ctx, plans)
		rep.Images = stats
		if err != nil {
			return err
		}
		linked, err := o.linkIcons(plans)
		rep.Images.Linked = linked
		if err != nil {
			return err
		}
	} else {
		o.progress.Send(Progress{Stage: DownloadingImages})
	}

	final, err := o.plan(games, res.Unavailable())
	if err != nil {
		return err
	}
	counts := make(map[string]reconcile.Counts, len(final))
	for _, p := range final {
		counts[p.User.ID] = p.Actions.Counts()
	}
	for i := range rep.Users {
		rep.Users[i].Final = counts[rep.Users[i].User.ID]
	}
	return nil
}

// collect merges discovery results with renames and drops ignored games.
func (o *Orchestrator) collect() ([]platform.Game, platform.Results) {
	var res platform.Results
	if o.opts.Collector != nil {
		res = o.opts.Collector.Results()
	}
	games := o.opts.Renames.Apply(res.Games)
	games = slices.DeleteFunc(games, func(g platform.Game) bool { return o.opts.Prefs.Ignored(g.ID) })
	return games, res
}

func (o *Orchestrator) users() ([]steam.User, error) {
	if o.opts.Store == nil {
		return nil, ErrNoUsers
	}
	users, err := o.opts.Store.Users()
	if err != nil {
		return nil, fmt.Errorf("locate steam users (check [steam] location in config.toml): %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w (check [steam] location in config.toml)", ErrNoUsers)
	}
	return users, nil
}

func (o *Orchestrator) plan(games []platform.Game, unavailable []string) ([]UserPlan, error) {
	users, err := o.users()
	if err != nil {
		return nil, err
	}
	banned := o.opts.Prefs.Banned()
	plans := make([]UserPlan, 0, len(users))
	for _, u := range users {
		existing, err := o.opts.Store.Read(u)
		if err != nil {
			return nil, fmt.Errorf("read shortcuts for user %s: %w", u.ID, err)
		}
		known, err := artwork.Scan(u.GridDir(), o.opts.MinImageSize)
		if err != nil {
			o.logger.Warn("artwork scan failed", zap.String("user", u.ID), zap.Error(err))
		}
		idx := reconcile.BuildIndex(games, existing)
		idx.Unavailable = unavailable
		plans = append(plans, UserPlan{
			User:       u,
			Existing:   existing,
			Actions:    reconcile.Reconcile(idx, existing, known, reconcile.Options{Banned: banned}),
			Collisions: idx.Collisions,
		})
	}
	return plans, nil
}

func (o *Orchestrator) commit(p UserPlan) (UserReport, error) {
	next, deleted := apply(p.Existing, p.Actions, o.opts.PruneMissing)
	ur := UserReport{
		User: p.User,
		Applied: reconcile.Counts{
			Add:    len(p.Actions.Add),
			Update: len(p.Actions.Update),
			Delete: deleted,
		},
	}
	if ur.Applied.Changes() == 0 {
		return ur, nil
	}
	if err := o.opts.Store.Write(p.User, next); err != nil {
		return ur, fmt.Errorf("write shortcuts for user %s: %w", p.User.ID, err)
	}
	ur.Written = true
	o.logger.Info("committed shortcuts",
		zap.String("user", p.User.ID),
		zap.Int("added", ur.Applied.Add),
		zap.Int("updated", ur.Applied.Update),
		zap.Int("deleted", ur.Applied.Delete))
	return ur, nil
}

// apply builds the shortcut list after committing a. Deletes only remove
// shortcuts gridsync created, and only when prune is set.
func apply(existing []steam.Shortcut, a reconcile.Actions[reconcile.Entry], prune bool) ([]steam.Shortcut, int) {
	updates := make(map[uint32]reconcile.Entry, len(a.Update))
	for _, e := range a.Update {
		updates[e.ID] = e
	}
	deletes := map[uint32]struct{}{}
	if prune {
		for _, e := range a.Delete {
			if e.Existing != nil && e.Existing.HasTag(platform.ManagedTag) {
				deletes[e.ID] = struct{}{}
			}
		}
	}

	out := make([]steam.Shortcut, 0, len(existing)+len(a.Add))
	deleted := 0
	for _, s := range existing {
		if _, ok := deletes[s.AppID]; ok {
			deleted++
			continue
		}
		if e, ok := updates[s.AppID]; ok {
			out = append(out, e.Shortcut())
			continue
		}
		out = append(out, s.Clone())
	}
	for _, e := range a.Add {
		out = append(out, e.Shortcut())
	}
	return out, deleted
}

func (o *Orchestrator) imagesEnabled() bool {
	return o.opts.DownloadImages && o.opts.Images != nil && o.opts.GridIDs != nil && o.opts.Artwork != nil
}
