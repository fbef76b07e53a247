// Package logtail reads the end of the gridsync log and styles it for the
// TUI.
//
// # Reading Log Files
//
// Read keeps a ring buffer of the last maxLines lines, so the cost is one
// sequential pass and O(maxLines) memory whatever the file size:
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// A missing file is not an error; it yields no lines.
//
// # Parsing
//
// The log is written by zap's console encoder, one tab separated entry per
// line:
//
//	<time>\t<LEVEL>\t[<logger>\t]<message>[\t<json fields>]
//
// Parse splits a line into an Entry. Lines that do not start with a time and a
// known level are reported as non-entries and rendered untouched.
//
// # Rendering
//
// Palette holds one lipgloss style per part. The UI builds it from the active
// theme; the zero Palette renders plain text.
//
// # Watching
//
// Watch uses fsnotify on the log directory and signals when the log file is
// created or written, so the log pane rereads only after new output.
package logtail
