package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/artwork"
	"github.com/five82/gridsync/internal/config"
	"github.com/five82/gridsync/internal/griddb"
	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/steam"
)

// SetArtwork picks the t artwork of the shortcut id by hand. With an empty
// choice it lists the SteamGridDB candidates to out. Otherwise choice is a
// candidate index from that list or an image URL, and the image replaces the
// slot for every Steam user that has the shortcut.
func SetArtwork(ctx context.Context, opts Options, id uint32, t artwork.Type, choice string, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	slots, err := shortcutSlots(store, id, t)
	if err != nil {
		return err
	}

	cache := images.New(images.NewHTTPFetcher(cfg.GridDB.ImageTimeout), images.Options{Timeout: cfg.GridDB.ImageTimeout})
	defer cache.Close()
	orchOpts := orchestrator.Options{
		Store:          store,
		DownloadImages: true,
		Images:         cache,
		MinImageSize:   cfg.GridDB.MinImageSize,
	}
	if strings.TrimSpace(cfg.GridDB.AuthKey) != "" {
		client, err := griddb.NewClient(cfg.GridDB.BaseURL, cfg.GridDB.AuthKey, cfg.GridDB.SearchTimeout)
		if err != nil {
			return fmt.Errorf("init steamgriddb client: %w", err)
		}
		orchOpts.GridIDs = griddb.OpenCache(cfg.GridCachePath(), client, nil)
		orchOpts.Artwork = client
	}
	o := orchestrator.New(orchOpts)

	choice = strings.TrimSpace(choice)
	url := choice
	if !isImageURL(choice) {
		list, err := o.Candidates(ctx, slots[0])
		if errors.Is(err, orchestrator.ErrImagesDisabled) {
			return errors.New("griddb auth_key not set in config")
		}
		if err != nil {
			return fmt.Errorf("list %s artwork for %q: %w", t.Label(), slots[0].Name, err)
		}
		if choice == "" {
			writeCandidates(out, slots[0], list)
			return nil
		}
		i, err := strconv.Atoi(choice)
		if err != nil || i < 0 || i >= len(list) {
			return fmt.Errorf("invalid choice %q: want an index from 0 to %d or an image URL", choice, len(list)-1)
		}
		url = list[i].URL
	}

	for _, s := range slots {
		e, err := o.Download(ctx, s, url)
		if err != nil {
			return fmt.Errorf("download %s for user %s: %w", t.Label(), s.User.ID, err)
		}
		fmt.Fprintf(out, "user %s: %s (%dx%d)\n", s.User.ID, e.Path, e.Width, e.Height)
	}
	return nil
}

// shortcutSlots returns the t slot of shortcut id for every user that has it.
func shortcutSlots(store steam.Store, id uint32, t artwork.Type) ([]orchestrator.Slot, error) {
	users, err := store.Users()
	if err != nil {
		return nil, fmt.Errorf("locate steam users: %w", err)
	}
	var slots []orchestrator.Slot
	for _, u := range users {
		shortcuts, err := store.Read(u)
		if err != nil {
			return nil, fmt.Errorf("read shortcuts for user %s: %w", u.ID, err)
		}
		for _, s := range shortcuts {
			if s.AppID == id {
				slots = append(slots, orchestrator.Slot{User: u, AppID: id, Name: s.AppName, Type: t})
				break
			}
		}
	}
	if len(slots) == 0 {
		return nil, fmt.Errorf("no steam user has shortcut %d", id)
	}
	return slots, nil
}

func writeCandidates(w io.Writer, s orchestrator.Slot, list []griddb.Image) {
	if len(list) == 0 {
		fmt.Fprintf(w, "no %s artwork on SteamGridDB for %q\n", s.Type.Label(), s.Name)
		return
	}
	fmt.Fprintf(w, "%s artwork for %q:\n", s.Type.Label(), s.Name)
	for i, img := range list {
		fmt.Fprintf(w, "%3d  %4dx%-4d  %-10s  %s\n", i, img.Width, img.Height, img.Style, img.URL)
	}
}

func isImageURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
