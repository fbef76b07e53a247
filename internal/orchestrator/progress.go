package orchestrator

import "fmt"

// Stage is a coarse step of a sync pass. Stages only move forward within a
// pass.
type Stage int

const (
	NotStarted Stage = iota
	Starting
	FoundGames
	FindingImages
	DownloadingImages
	Done
)

func (s Stage) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Starting:
		return "starting"
	case FoundGames:
		return "found games"
	case FindingImages:
		return "finding images"
	case DownloadingImages:
		return "downloading images"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Progress is the latest stage of the current pass. Count is the number of
// games for FoundGames and of images for DownloadingImages. Err is set when a
// pass ends early.
type Progress struct {
	Stage Stage
	Count int
	Err   error
}

func (p Progress) String() string {
	switch {
	case p.Stage == FoundGames:
		return fmt.Sprintf("found %d games", p.Count)
	case p.Stage == DownloadingImages:
		return fmt.Sprintf("downloading %d images", p.Count)
	case p.Stage == Done && p.Err != nil:
		return "failed: " + p.Err.Error()
	default:
		return p.Stage.String()
	}
}

// Running reports whether a pass is between Starting and Done.
func (p Progress) Running() bool {
	return p.Stage > NotStarted && p.Stage < Done
}
