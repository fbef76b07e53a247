// Package griddb resolves shortcuts to SteamGridDB games and lists their
// artwork.
//
// # Client
//
// Client wraps the v2 REST API at https://www.steamgriddb.com/api/v2. Every
// request carries the user's key as a bearer token and every response is the
// {"success", "data", "errors"} envelope. A 404 means "nothing found" and is
// reported as an empty result.
//
// # Cache
//
// Cache maps a shortcut app id to the SteamGridDB game id found by searching
// the shortcut's name. Hits never touch the network. A miss searches once,
// even when several goroutines miss on the same id at the same time, then
// stores the top result or an explicit "no match" and rewrites
// grid_cache.json in full. Search errors are returned and not remembered, so
// the next Resolve tries again. Research and Set replace an entry on request.
package griddb
