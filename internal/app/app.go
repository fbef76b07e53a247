package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/config"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/logging"
	"github.com/five82/gridsync/internal/logtail"
	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/prefs"
	"github.com/five82/gridsync/internal/renames"
	"github.com/five82/gridsync/internal/state"
	"github.com/five82/gridsync/internal/steam"
	"github.com/five82/gridsync/internal/ui"
)

// Options configure the gridsync application.
type Options struct {
	ConfigPath string // empty uses default ~/.config/gridsync/config.toml
	Debug      bool
	NoVsync    bool
}

// runtime is the wired set of components shared by the TUI and headless modes.
type runtime struct {
	cfg       config.Config
	logger    *zap.Logger
	prefs     prefs.Prefs
	collector *platform.Collector
	orch      *orchestrator.Orchestrator
	images    *images.Cache
}

func open(ctx context.Context, opts Options, stderr bool) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Path: cfg.LogPath(), Stderr: stderr, Debug: opts.Debug})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	userPrefs := loadPrefs(cfg.PrefsPath(), logger)
	names, err := renames.Load(cfg.RenamesPath())
	if err != nil {
		logger.Warn("rename overrides unreadable, ignoring them", zap.Error(err))
	}

	store, err := openStore(cfg, logger.Named("steam"))
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	collector := platform.NewCollector(cfg.BuildPlatforms(), logger.Named("platform"))
	collector.Start(ctx)

	rt := &runtime{cfg: cfg, logger: logger, prefs: userPrefs, collector: collector}
	orchOpts := orchestrator.Options{
		Collector:      collector,
		Store:          store,
		Renames:        names,
		Prefs:          userPrefs,
		PruneMissing:   cfg.Steam.PruneMissing,
		DownloadImages: cfg.GridDB.DownloadImages,
		MinImageSize:   cfg.GridDB.MinImageSize,
		Concurrency:    cfg.GridDB.Concurrency,
		Logger:         logger.Named("sync"),
	}
	if err := rt.wireArtwork(&orchOpts); err != nil {
		rt.close()
		return nil, err
	}
	rt.orch = orchestrator.New(orchOpts)

	logger.Info("gridsync started",
		zap.String("config", cfg.Path),
		zap.String("steam", store.Location),
		zap.Int("platforms", len(collector.Statuses())))
	return rt, nil
}

func openStore(cfg config.Config, logger *zap.Logger) (*steam.FileStore, error) {
	home, _ := os.UserHomeDir()
	location, err := steam.Locate(cfg.Steam.Location, home)
	if err != nil {
		return nil, fmt.Errorf("locate steam (set [steam] location in %s): %w", cfg.Path, err)
	}
	return &steam.FileStore{
		Location:  location,
		UserID:    cfg.Steam.User,
		BackupDir: cfg.BackupDir(),
		Logger:    logger,
	}, nil
}

func loadPrefs(path string, logger *zap.Logger) prefs.Prefs {
	p, err := prefs.Load(path)
	if err != nil {
		logger.Warn("preferences unreadable, using defaults", zap.String("path", path), zap.Error(err))
	}
	return p
}

func (rt *runtime) wireArtwork(o *orchestrator.Options) error {
	g := rt.cfg.GridDB
	if !g.DownloadImages {
		return nil
	}
	if strings.TrimSpace(g.AuthKey) == "" {
		rt.logger.Warn("griddb auth_key not set, artwork downloads disabled")
		o.DownloadImages = false
		return nil
	}
	client, err := griddb.NewClient(g.BaseURL, g.AuthKey, g.SearchTimeout)
	if err != nil {
		return fmt.Errorf("init steamgriddb client: %w", err)
	}
	rt.images = images.New(images.NewHTTPFetcher(g.ImageTimeout), images.Options{
		Timeout: g.ImageTimeout,
		Logger:  rt.logger.Named("images"),
	})
	o.Images = rt.images
	o.GridIDs = griddb.OpenCache(rt.cfg.GridCachePath(), client, rt.logger.Named("griddb"))
	o.Artwork = client
	return nil
}

func (rt *runtime) close() {
	if rt.images != nil {
		rt.images.Close()
	}
	_ = rt.logger.Sync()
}

// Run boots the gridsync TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	rt, err := open(ctx, opts, false)
	if err != nil {
		return err
	}
	defer rt.close()

	store := &state.Store{}
	StartPoller(ctx, store, rt.orch, defaultPollInterval, rt.logger.Named("poller"))

	var logChanges <-chan struct{}
	if w, err := logtail.Watch(rt.cfg.LogPath()); err != nil {
		rt.logger.Warn("log watch unavailable, polling the log file", zap.Error(err))
	} else {
		defer func() { _ = w.Close() }()
		logChanges = w.Changes()
	}

	return ui.Run(ui.Options{
		Context:    ctx,
		Syncer:     rt.orch,
		Discovery:  rt.collector,
		Artwork:    rt.orch,
		Store:      store,
		Logger:     rt.logger.Named("ui"),
		LogPath:    rt.cfg.LogPath(),
		LogChanges: logChanges,
		Refresh:    rt.cfg.UI.Refresh,
		NoVsync:    opts.NoVsync,
		ThemeName:  firstNonEmpty(rt.cfg.UI.Theme, rt.prefs.Theme),
		Prefs:      rt.prefs,
		PrefsPath:  rt.cfg.PrefsPath(),
	})
}

// RunHeadless performs a single sync pass and writes a summary to out. The
// report's OK method tells callers whether every platform contributed.
func RunHeadless(ctx context.Context, opts Options, out io.Writer) (orchestrator.Report, error) {
	rt, err := open(ctx, opts, true)
	if err != nil {
		return orchestrator.Report{}, err
	}
	defer rt.close()

	rep, err := rt.orch.Run(ctx)
	if err != nil {
		return rep, err
	}
	writeReport(out, rep)
	return rep, nil
}

// Rename stores a display name override for the shortcut id. An empty name
// removes the override. It takes effect on the next sync pass.
func Rename(opts Options, id uint32, name string) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	names, err := renames.Load(cfg.RenamesPath())
	if err != nil {
		return fmt.Errorf("load renames: %w", err)
	}
	names.Set(id, name)
	if err := renames.Save(cfg.RenamesPath(), names); err != nil {
		return fmt.Errorf("save renames: %w", err)
	}
	return nil
}

// SetGridID pins the SteamGridDB game used for the shortcut id.
func SetGridID(opts Options, id uint32, name string, gridID int) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cache := griddb.OpenCache(cfg.GridCachePath(), nil, nil)
	if err := cache.Set(id, name, gridID); err != nil {
		return fmt.Errorf("save grid id: %w", err)
	}
	return nil
}

// Research forces a fresh SteamGridDB search for the shortcut id and stores
// the top result.
func Research(ctx context.Context, opts Options, id uint32, name string) (griddb.Resolution, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return griddb.Resolution{}, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.GridDB.AuthKey) == "" {
		return griddb.Resolution{}, errors.New("griddb auth_key not set in config")
	}
	client, err := griddb.NewClient(cfg.GridDB.BaseURL, cfg.GridDB.AuthKey, cfg.GridDB.SearchTimeout)
	if err != nil {
		return griddb.Resolution{}, fmt.Errorf("init steamgriddb client: %w", err)
	}
	res, err := griddb.OpenCache(cfg.GridCachePath(), client, nil).Research(ctx, id, name)
	if err != nil {
		return griddb.Resolution{}, fmt.Errorf("search %q: %w", name, err)
	}
	return res, nil
}

// Ignore excludes the shortcut id from future syncs.
func Ignore(opts Options, id uint32) error {
	return updatePrefs(opts, func(p *prefs.Prefs) { p.Ignore(id) })
}

// Ban stops t artwork from being downloaded for the shortcut id.
func Ban(opts Options, id uint32, t artwork.Type) error {
	return updatePrefs(opts, func(p *prefs.Prefs) { p.Ban(id, t) })
}

func updatePrefs(opts Options, fn func(*prefs.Prefs)) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	p, err := prefs.Load(cfg.PrefsPath())
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}
	fn(&p)
	if err := prefs.Save(cfg.PrefsPath(), p); err != nil {
		return fmt.Errorf("save prefs: %w", err)
	}
	return nil
}

func writeReport(w io.Writer, rep orchestrator.Report) {
	fmt.Fprintf(w, "games: %d\n", rep.Games)
	if len(rep.Failed) > 0 {
		fmt.Fprintf(w, "failed platforms: %s\n", strings.Join(rep.Failed, ", "))
	}
	for _, u := range rep.Users {
		fmt.Fprintf(w, "user %s: %d added, %d updated, %d deleted\n",
			u.User.ID, u.Applied.Add, u.Applied.Update, u.Applied.Delete)
	}
	img := rep.Images
	if img.Planned > 0 {
		fmt.Fprintf(w, "images: %d planned, %d downloaded, %d not found, %d undersized, %d failed\n",
			img.Planned, img.Downloaded, img.NotFound, img.Undersized, img.Failed)
	}
	fmt.Fprintf(w, "took %s\n", rep.Finished.Sub(rep.Started).Round(10*time.Millisecond))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
