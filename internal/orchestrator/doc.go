// Package orchestrator runs sync passes.
//
// A pass waits for platform discovery, reconciles every Steam user's
// shortcuts against the discovered games, commits additions, updates and
// (when pruning is enabled) deletions of shortcuts gridsync created, then
// resolves and downloads the artwork the reconciliation found missing before
// reconciling once more for the final report.
//
// Progress is published through a watch.Value so the terminal UI and the
// headless runner can follow a pass without polling the orchestrator.
// Preview performs the same reconciliation without touching disk.
package orchestrator
