// Package config loads the gridsync configuration file.
//
// # Overview
//
// Configuration lives in ~/.config/gridsync/config.toml. Every field is
// optional; gridsync runs against a default Steam install with no file at all.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/gridsync/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing/empty, use defaults
//
// # TOML Format
//
//	data_dir = "~/.config/gridsync"
//
//	[steam]
//	location = "~/.steam/steam"   # autodetected when empty
//	user = ""                     # every user when empty
//	prune_missing = true
//
//	[griddb]
//	auth_key = "..."
//	download_images = true
//	min_image_size = 2
//	concurrency = 8
//	image_timeout = "2m"
//	search_timeout = "10s"
//
//	[ui]
//	refresh = "1s"
//	theme = "Dracula"
//
//	[[platform]]
//	name = "Emulators"
//	enabled = true
//
//	  [[platform.game]]
//	  name = "Tetris"
//	  exe = "~/bin/tetris"
//	  start_dir = "~/bin"
//	  launch_options = "-fullscreen"
//	  env = { SDL_VIDEODRIVER = "wayland" }
//
// Durations use time.ParseDuration syntax. Tilde expansion is applied to
// data_dir, steam.location and the exe and start_dir of each game.
//
// # Data Directory
//
// Files gridsync maintains itself sit under data_dir:
//
//   - renames.json: display name overrides
//   - grid_cache.json: resolved SteamGridDB ids
//   - prefs.toml: UI preferences, ignored games, banned artwork
//   - gridsync.log: log file
//   - backups/: copies of shortcuts.vdf taken before each write
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and invalid durations, both mentioning "parse config"
//   - [[platform]] entries without a name
package config
