// Package images downloads shortcut artwork into Steam's grid directories.
//
// # Keys
//
// A Key names one artwork slot: the grid directory of a Steam user joined
// with the slot's file stem (see artwork.Type.Stem), cleaned and slash
// separated, without an extension. The file on disk is Key + "." + ext, where
// ext follows the response content type.
//
// # States
//
//	Request ──→ Downloading ──→ Downloaded ──Load──→ Loaded
//	                 │               │
//	                 └──→ Failed ←───┘
//
// Loaded and Failed stay until Clear. Nothing retries on its own; a retry is
// Clear followed by Request.
//
// A payload smaller than the requested minimum still lands in Downloaded,
// flagged Undersized. The file is written, Load rejects it, and the next
// Ensure treats it as absent and fetches again.
//
// # Concurrency
//
// Request inserts the Downloading entry and starts the fetch goroutine under
// one lock, so at most one fetch runs per Key however many callers race.
// Observe copies the entry under the same lock and never waits on I/O, which
// makes it safe to call from a render loop. Every fetch carries a generation;
// results for an entry that was cleared or replaced in the meantime are thrown
// away, including the temp file. A fetch that outlives Options.Timeout moves
// its entry to Failed with ErrTimeout.
//
// Wait blocks until a set of keys has left Downloading. It is for batch
// callers; UI code should stick to Observe.
package images
