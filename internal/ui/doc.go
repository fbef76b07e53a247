// Package ui provides the gridsync terminal interface, built with Bubble Tea.
//
// # Package Structure
//
//   - ui.go: Options, the Syncer and Discovery interfaces, and Run
//   - model.go: the root Model, its messages and commands
//   - view.go: rendering of the header, platform list, user summary, last
//     sync report, log pane and help footer
//   - keys.go: key bindings shared with the bubbles help widget
//   - theme.go: color themes and the log palette
//   - style.go: background-safe text rendering helpers
//
// # Data Flow
//
// The model never blocks. Every Refresh tick it copies a state.Snapshot
// (the poller's latest preview and the last sync report), the collector's
// platform statuses and the orchestrator's progress. With NoVsync it also
// subscribes to the progress channel and redraws on every change.
//
// A sync pass runs inside a tea.Cmd; its report is recorded in the store when
// it finishes. The log pane tails the zap log file through logtail and scrolls
// with the viewport keys.
//
// # Keyboard Shortcuts
//
//	s         Run a sync pass
//	r         Rediscover platforms
//	l         Toggle the log pane
//	T         Cycle theme (saved to prefs.toml)
//	?         Toggle full help
//	q/ctrl+c  Quit
package ui
