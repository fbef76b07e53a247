package steam

import (
	"hash/crc32"
	"slices"
	"strings"
)

// Shortcut is one non-Steam game entry as stored in shortcuts.vdf.
type Shortcut struct {
	AppID               uint32
	AppName             string
	Exe                 string
	StartDir            string
	Icon                string
	ShortcutPath        string
	LaunchOptions       string
	IsHidden            bool
	AllowDesktopConfig  bool
	AllowOverlay        bool
	OpenVR              bool
	Devkit              bool
	DevkitGameID        string
	DevkitOverrideAppID uint32
	LastPlayTime        uint32
	FlatpakAppID        string
	Tags                []string
}

// AppID derives the id Steam assigns to a shortcut with the given target and
// name.
func AppID(exe, name string) uint32 {
	return crc32.ChecksumIEEE([]byte(exe+name)) | 0x80000000
}

// NewShortcut builds a shortcut with Steam's defaults and a derived app id.
func NewShortcut(name, exe, startDir, launchOptions string, tags ...string) Shortcut {
	return Shortcut{
		AppID:              AppID(exe, name),
		AppName:            name,
		Exe:                exe,
		StartDir:           startDir,
		Icon:               "",
		LaunchOptions:      launchOptions,
		AllowDesktopConfig: true,
		AllowOverlay:       true,
		Tags:               append([]string(nil), tags...),
	}
}

// HasTag reports whether the shortcut carries tag, ignoring case.
func (s Shortcut) HasTag(tag string) bool {
	return slices.ContainsFunc(s.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// LaunchEqual reports whether two shortcuts start the same program the same
// way.
func (s Shortcut) LaunchEqual(o Shortcut) bool {
	return s.Exe == o.Exe && s.StartDir == o.StartDir && s.LaunchOptions == o.LaunchOptions
}

// Clone returns a deep copy.
func (s Shortcut) Clone() Shortcut {
	s.Tags = append([]string(nil), s.Tags...)
	return s
}
