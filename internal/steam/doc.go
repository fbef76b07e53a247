// Package steam reads and writes the shortcut lists Steam keeps for non-Steam
// games.
//
// # Overview
//
// Each Steam user profile lives under <steam>/userdata/<id>. Its non-Steam game
// entries are stored in config/shortcuts.vdf using Valve's binary VDF layout,
// and custom artwork is read from config/grid.
//
// # Binary layout
//
// A node starts with a type byte followed by a NUL terminated key:
//
//	0x00 key      nested map, closed by 0x08
//	0x01 key val  NUL terminated string
//	0x02 key u32  little endian integer
//
// The file is a single map named "shortcuts" whose children are keyed "0",
// "1", ... and each describe one shortcut. Keys are matched case-insensitively
// when reading; files in the wild use both "appid" and "AppID".
//
// # App ids
//
// Steam derives the id of a shortcut from its target and name:
// crc32(exe + name) | 0x80000000. The same id names the shortcut's artwork
// files.
//
// # Store
//
// FileStore is the on-disk Store. Writes go to a temp file that is renamed over
// shortcuts.vdf; when BackupDir is set the previous file is copied there first.
package steam
