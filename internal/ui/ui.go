package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/prefs"
	"github.com/five82/gridsync/internal/state"
	"github.com/five82/gridsync/internal/watch"
)

// Syncer runs sync passes and publishes their progress.
type Syncer interface {
	Run(ctx context.Context) (orchestrator.Report, error)
	Progress() *watch.Value[orchestrator.Progress]
	Running() bool
}

// Discovery reports per-platform discovery and can start a fresh round.
type Discovery interface {
	Start(ctx context.Context)
	AllReady() bool
	Statuses() []platform.NamedStatus
}

// Artwork lists per-shortcut artwork slots and restarts their downloads.
type Artwork interface {
	Slots(plans []orchestrator.UserPlan) []orchestrator.Slot
	Observe(slots []orchestrator.Slot) []orchestrator.SlotState
	Retry(ctx context.Context, s orchestrator.Slot) error
}

// Ensure the production types implement the UI interfaces at compile time.
var (
	_ Syncer    = (*orchestrator.Orchestrator)(nil)
	_ Discovery = (*platform.Collector)(nil)
	_ Artwork   = (*orchestrator.Orchestrator)(nil)
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Syncer     Syncer
	Discovery  Discovery
	// Artwork backs the artwork pane. Without it the pane only says so.
	Artwork    Artwork
	Store      *state.Store
	Logger     *zap.Logger
	LogPath    string
	// LogChanges, when set, signals writes to LogPath. Without it the log
	// pane rereads the file on every tick.
	LogChanges <-chan struct{}
	// Refresh is the redraw cadence. NoVsync additionally redraws on every
	// progress change.
	Refresh    time.Duration
	NoVsync    bool
	ThemeName  string
	Prefs      prefs.Prefs
	PrefsPath  string
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a state store")
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context.Err() != nil {
		return nil
	}
	return err
}
