// Package platform defines game discovery sources and runs them.
//
// A Platform reports the games one launcher has installed. Launcher specific
// parsers live outside this module; Custom covers games listed directly in the
// configuration file.
//
// Collector runs every enabled platform concurrently. Each platform gets its
// own watch.Value[Status] that moves NeedsFetched → Fetching → Fetched, so the
// UI can show per-platform progress without blocking. A platform that fails or
// panics ends in Fetched with Err set and contributes no games.
package platform
