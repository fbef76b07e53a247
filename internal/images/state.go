package images

import (
	"errors"
	"time"
)

// State is the lifecycle stage of one slot.
type State int

const (
	// Downloading means a fetch is in flight.
	Downloading State = iota
	// Downloaded means the file is on disk but not decoded.
	Downloaded
	// Loaded means the file decoded; terminal until Clear.
	Loaded
	// Failed means the fetch, write or decode failed; terminal until Clear.
	Failed
)

func (s State) String() string {
	switch s {
	case Downloading:
		return "downloading"
	case Downloaded:
		return "downloaded"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrTimeout marks a fetch that did not finish within Options.Timeout.
	ErrTimeout = errors.New("download timed out")
	// ErrUndersized marks a payload smaller than the requested minimum.
	ErrUndersized = errors.New("image smaller than minimum size")
	// ErrNotDownloaded is returned by Load for slots not in Downloaded.
	ErrNotDownloaded = errors.New("image not downloaded")
)

// Entry is a snapshot of one slot.
type Entry struct {
	State State
	// Path is the file on disk once the slot has been Downloaded.
	Path string
	Err  error
	Size int64
	// Width and Height are set once Loaded.
	Width  int
	Height int
	// Undersized reports a payload below the minimum size. The file is kept but
	// Load rejects it and the next disk check fetches again.
	Undersized bool
	// Since is when the slot entered its current state.
	Since time.Time
}
