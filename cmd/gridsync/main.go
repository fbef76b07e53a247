package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/gridsync/internal/app"
	"github.com/five82/gridsync/internal/artwork"
)

// errIncomplete marks a headless pass that finished with failed platforms.
var errIncomplete = errors.New("sync incomplete")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "gridsync: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var (
		opts    app.Options
		noUI    bool
		noVsync bool
	)

	root := &cobra.Command{
		Use:   "gridsync",
		Short: "Sync non-Steam games into Steam with artwork from SteamGridDB",
		Long: `gridsync discovers games from the platforms configured in config.toml,
reconciles them with each Steam user's shortcuts.vdf and downloads missing
grid, hero, logo and icon artwork from SteamGridDB.

Without --no-ui it starts an interactive terminal interface.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.NoVsync = noVsync
			if !noUI {
				return app.Run(cmd.Context(), opts)
			}
			rep, err := app.RunHeadless(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !rep.OK() {
				return fmt.Errorf("%w: platforms failed: %s", errIncomplete, strings.Join(rep.Failed, ", "))
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/gridsync/config.toml)")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "log at debug level")
	root.Flags().BoolVar(&noUI, "no-ui", false, "run one sync pass without the terminal interface")
	root.Flags().BoolVar(&noVsync, "no-vsync", false, "redraw on every progress change instead of on the refresh tick")

	root.AddCommand(
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Override the Steam name of a shortcut (empty name removes the override)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				if err := app.Rename(opts, id, args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed %d to %q\n", id, strings.TrimSpace(args[1]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "gridid <id> <name> <griddb-id>",
			Short: "Pin the SteamGridDB game used for a shortcut's artwork",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				gridID, err := strconv.Atoi(args[2])
				if err != nil || gridID < 0 {
					return fmt.Errorf("invalid griddb id %q", args[2])
				}
				if err := app.SetGridID(opts, id, args[1], gridID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "grid id for %d set to %d\n", id, gridID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "research <id> <name>",
			Short: "Search SteamGridDB again for a shortcut, replacing the cached match",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				res, err := app.Research(cmd.Context(), opts, id, args[1])
				if err != nil {
					return err
				}
				if !res.Found {
					fmt.Fprintf(cmd.OutOrStdout(), "no SteamGridDB match for %q\n", args[1])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "grid id for %d set to %d\n", id, res.GridID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "ignore <id>",
			Short: "Never sync the shortcut with this id",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				if err := app.Ignore(opts, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ignoring %d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "ban <id> <category>",
			Short: "Never download one artwork category (grid, hero, wide_grid, logo, icon) for a shortcut",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				t, err := artwork.ParseType(args[1])
				if err != nil {
					return err
				}
				if err := app.Ban(opts, id, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s artwork banned for %d\n", t.Label(), id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "artwork <id> <category> [index|url]",
			Short: "List SteamGridDB artwork for a shortcut, or download the chosen image",
			Long: `Without a choice, artwork lists the SteamGridDB candidates for one category
(grid, hero, wide_grid, logo, icon) of a shortcut. Pass an index from that
list or an image URL to replace the artwork for every Steam user.`,
			Args: cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseAppID(args[0])
				if err != nil {
					return err
				}
				t, err := artwork.ParseType(args[1])
				if err != nil {
					return err
				}
				choice := ""
				if len(args) == 3 {
					choice = args[2]
				}
				return app.SetArtwork(cmd.Context(), opts, id, t, choice, cmd.OutOrStdout())
			},
		},
	)
	return root
}

func parseAppID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid shortcut id %q: %w", s, err)
	}
	return uint32(id), nil
}
