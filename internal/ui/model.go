package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/logtail"
	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/platform"
	"github.com/five82/gridsync/internal/prefs"
	"github.com/five82/gridsync/internal/state"
)

const (
	defaultRefresh = time.Second
	logLineLimit   = 500
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	syncer    Syncer
	discovery Discovery
	artwork   Artwork
	store     *state.Store
	logger    *zap.Logger
	logPath   string
	logChange <-chan struct{}
	refresh   time.Duration
	noVsync   bool
	prefs     prefs.Prefs
	prefsPath string

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	logs     viewport.Model
	width    int
	height   int
	ready    bool
	showLogs bool
	showArt  bool
	cursor   int
	notice   string

	// Data state
	snapshot  state.Snapshot
	progress  orchestrator.Progress
	platforms []platform.NamedStatus
	logLines  []string
	slots     []orchestrator.SlotState
	syncing   bool
	syncErr   error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}
	theme := GetTheme(themeName)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	m := Model{
		ctx:       ctx,
		syncer:    opts.Syncer,
		discovery: opts.Discovery,
		artwork:   opts.Artwork,
		store:     opts.Store,
		logger:    logger,
		logPath:   opts.LogPath,
		logChange: opts.LogChanges,
		refresh:   refresh,
		noVsync:   opts.NoVsync,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		theme:     theme,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		logs:      viewport.New(0, 0),
	}
	m.pull()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.refresh), m.spinner.Tick}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.noVsync && m.syncer != nil {
		cmds = append(cmds, waitProgressCmd(m.ctx, m.syncer))
	}
	if m.logChange != nil {
		cmds = append(cmds, waitLogCmd(m.ctx, m.logChange))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeLogs()
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.pullArtwork()
		return m, nil

	case retryDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("retry %s %s failed: %v", msg.slot.Name, msg.slot.Type.Label(), msg.err)
		}
		m.pullArtwork()
		return m, nil

	case progressMsg:
		m.progress = orchestrator.Progress(msg)
		m.pull()
		cmds := []tea.Cmd{waitProgressCmd(m.ctx, m.syncer)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case syncDoneMsg:
		m.syncing = false
		m.syncErr = msg.err
		if msg.err == nil && m.store != nil {
			m.store.RecordReport(msg.report)
		}
		m.pull()
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil

	case logChangedMsg:
		cmds := []tea.Cmd{waitLogCmd(m.ctx, m.logChange)}
		if m.showLogs {
			cmds = append(cmds, readLogsCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case logLinesMsg:
		m.setLogLines(msg)
		return m, nil

	case logErrorMsg:
		m.notice = "log unavailable: " + msg.err.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeLogs()
		return m, nil

	case key.Matches(msg, m.keys.Sync):
		if m.syncer == nil {
			return m, nil
		}
		if m.syncing || m.syncer.Running() {
			m.notice = "sync already running"
			return m, nil
		}
		m.syncing = true
		m.syncErr = nil
		m.notice = ""
		return m, runSyncCmd(m.ctx, m.syncer)

	case key.Matches(msg, m.keys.Rediscover):
		if m.discovery == nil {
			return m, nil
		}
		if m.syncing || !m.discovery.AllReady() {
			m.notice = "discovery or sync in progress"
			return m, nil
		}
		m.discovery.Start(m.ctx)
		m.notice = ""
		m.pull()
		return m, nil

	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		if m.showLogs {
			m.showArt = false
			return m, readLogsCmd(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.Artwork):
		m.showArt = !m.showArt
		if m.showArt {
			m.showLogs = false
			m.pullArtwork()
		}
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		return m.retrySelected()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
				m.logger.Warn("save prefs failed", zap.Error(err))
			}
		}
		m.renderLogContent()
		return m, nil
	}

	if m.showArt {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.cursor--
		case key.Matches(msg, m.keys.Down):
			m.cursor++
		case key.Matches(msg, m.keys.PageUp):
			m.cursor -= m.artRows()
		case key.Matches(msg, m.keys.PageDown):
			m.cursor += m.artRows()
		}
		m.clampCursor()
		return m, nil
	}
	if m.showLogs {
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd
	}
	return m, nil
}

// retrySelected clears the highlighted slot and downloads it again.
func (m Model) retrySelected() (tea.Model, tea.Cmd) {
	if !m.showArt || m.artwork == nil || len(m.slots) == 0 {
		return m, nil
	}
	st := m.slots[m.cursor]
	if st.Tracked && st.Entry.State == images.Downloading {
		m.notice = "download already running"
		return m, nil
	}
	m.notice = ""
	return m, retryCmd(m.ctx, m.artwork, st.Slot)
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	m.pull()
	if m.showLogs && m.logChange == nil {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.refresh))
	return m, tea.Batch(cmds...)
}

// pull reads the non-blocking sources: platform statuses and pass progress.
func (m *Model) pull() {
	if m.discovery != nil {
		m.platforms = m.discovery.Statuses()
	}
	if m.syncer != nil {
		m.progress = m.syncer.Progress().Borrow()
	}
	m.pullArtwork()
}

// pullArtwork refreshes the artwork pane from the latest preview and the
// image cache. It never blocks on downloads.
func (m *Model) pullArtwork() {
	if !m.showArt || m.artwork == nil || !m.snapshot.HasPreview {
		return
	}
	m.slots = m.artwork.Observe(m.artwork.Slots(m.snapshot.Preview.Users))
	m.clampCursor()
}

func (m *Model) clampCursor() {
	m.cursor = max(min(m.cursor, len(m.slots)-1), 0)
}

// artRows is how many slots the artwork pane shows at once.
func (m Model) artRows() int {
	return max(m.height/2-2, 3)
}

func (m *Model) resizeLogs() {
	m.logs.Width = max(m.width-4, 0)
	m.logs.Height = max(m.height/2-2, 3)
}

func (m *Model) setLogLines(lines []string) {
	m.logLines = lines
	m.renderLogContent()
}

func (m *Model) renderLogContent() {
	follow := m.logs.AtBottom() || m.logs.TotalLineCount() == 0
	m.logs.SetContent(strings.Join(m.theme.Palette().RenderLines(m.logLines), "\n"))
	if follow {
		m.logs.GotoBottom()
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type progressMsg orchestrator.Progress

type syncDoneMsg struct {
	report orchestrator.Report
	err    error
}

type logChangedMsg struct{}

type logLinesMsg []string

type logErrorMsg struct{ err error }

type retryDoneMsg struct {
	slot orchestrator.Slot
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// waitProgressCmd delivers the next progress change. The change channel is
// taken before the command runs so no send is missed.
func waitProgressCmd(ctx context.Context, s Syncer) tea.Cmd {
	v := s.Progress()
	changed := v.Changed()
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
		return progressMsg(v.Borrow())
	}
}

func runSyncCmd(ctx context.Context, s Syncer) tea.Cmd {
	return func() tea.Msg {
		rep, err := s.Run(ctx)
		return syncDoneMsg{report: rep, err: err}
	}
}

func retryCmd(ctx context.Context, a Artwork, s orchestrator.Slot) tea.Cmd {
	return func() tea.Msg {
		return retryDoneMsg{slot: s, err: a.Retry(ctx, s)}
	}
}

func waitLogCmd(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return logChangedMsg{}
		}
	}
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logLineLimit)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logLinesMsg(lines)
	}
}
