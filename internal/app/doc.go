// Package app is the composition root of gridsync.
//
// # Overview
//
// open wires configuration, logging, the Steam shortcut store, platform
// discovery, the SteamGridDB client and id cache, the image cache and the
// orchestrator. Run starts the preview poller and the TUI on top of that;
// RunHeadless performs one sync pass and prints a summary.
//
//	┌──────────────┐
//	│   open()     │
//	└──────┬───────┘
//	       ├─────> config.Load()           Read config.toml
//	       ├─────> logging.New()           zap logger to gridsync.log
//	       ├─────> steam.Locate()          Find the Steam root
//	       ├─────> platform.NewCollector() Start discovery
//	       ├─────> griddb / images         Artwork clients, when configured
//	       └─────> orchestrator.New()
//
// # Polling Behavior
//
// The poller recomputes orchestrator.Preview every two seconds and stores it
// in a state.Store for the UI. It skips rounds while a sync pass runs. After
// consecutive failures the delay doubles up to 30 seconds.
//
// # Error Handling
//
// Fatal errors (returned from Run and RunHeadless):
//   - Invalid config.toml
//   - Steam installation not found
//   - A sync pass that cannot list users or read a shortcut store
//
// Recoverable errors are logged: unreadable rename overrides, failed
// previews, failed platforms and failed downloads.
//
// Rename and SetGridID edit the persisted overrides without starting
// discovery.
package app
