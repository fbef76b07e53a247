package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/gridsync/internal/images"
	"github.com/five82/gridsync/internal/orchestrator"
	"github.com/five82/gridsync/internal/platform"
)

const nameWidth = 18

func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderPlatforms())
	b.WriteString("\n")
	b.WriteString(m.renderUsers())
	b.WriteString("\n")
	b.WriteString(m.renderLastSync())
	if m.showLogs {
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	}
	if m.showArt {
		b.WriteString("\n")
		b.WriteString(m.renderArtwork())
	}

	body := b.String()
	footer := m.renderFooter()
	gap := m.height - lipgloss.Height(body) - lipgloss.Height(footer)
	if gap > 0 {
		body += strings.Repeat("\n", gap)
	}
	return body + "\n" + footer
}

// renderHeader renders the logo, the pass progress and the theme name.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	progress := m.progressLine()
	var progressStyle lipgloss.Style
	switch {
	case m.progress.Stage == orchestrator.Done && m.progress.Err != nil:
		progressStyle = styles.DangerText
	case m.progress.Running() || m.syncing:
		progressStyle = styles.InfoText
	default:
		progressStyle = styles.MutedText
	}
	if m.progress.Running() || m.syncing {
		progress = m.spinner.View() + " " + progress
	}

	left := bg.Join([]string{
		bg.Render("gridsync", styles.Logo),
		bg.Render(progress, progressStyle),
		bg.Render(m.notice, styles.WarningText),
	}, "  ")
	right := bg.Render(m.theme.Name, styles.FaintText)

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	return styles.Header.Width(m.width).Render(left + bg.Spaces(pad) + right)
}

func (m Model) progressLine() string {
	switch {
	case m.syncing && m.progress.Stage == orchestrator.NotStarted:
		return "starting"
	case m.progress.Stage == orchestrator.NotStarted:
		return "idle"
	default:
		return m.progress.String()
	}
}

func (m Model) renderPlatforms() string {
	styles := m.theme.Styles()
	lines := []string{styles.Section.Render("Platforms")}
	if len(m.platforms) == 0 {
		lines = append(lines, "  "+styles.MutedText.Render("no platforms enabled, add [[platform]] entries to config.toml"))
		return strings.Join(lines, "\n")
	}
	for _, ps := range m.platforms {
		lines = append(lines, "  "+m.platformLine(ps))
	}
	return strings.Join(lines, "\n")
}

func (m Model) platformLine(ps platform.NamedStatus) string {
	styles := m.theme.Styles()
	name := fmt.Sprintf("%-*s", nameWidth, truncate(ps.Name, nameWidth))
	st := ps.Status
	switch {
	case st.Phase == platform.NeedsFetched:
		return styles.FaintText.Render("· ") + styles.Text.Render(name) + styles.MutedText.Render("waiting")
	case st.Phase == platform.Fetching:
		return m.spinner.View() + " " + styles.Text.Render(name) + styles.InfoText.Render("discovering")
	case st.Err != nil:
		msg := truncate(st.Err.Error(), max(m.width-nameWidth-14, 20))
		return styles.DangerText.Render("✗ ") + styles.Text.Render(name) + styles.DangerText.Render("failed: ") + styles.MutedText.Render(msg)
	default:
		return styles.SuccessText.Render("✓ ") + styles.Text.Render(name) + styles.Text.Render(fmt.Sprintf("%d games", len(st.Games)))
	}
}

func (m Model) renderUsers() string {
	styles := m.theme.Styles()
	lines := []string{styles.Section.Render("Steam users")}
	snap := m.snapshot

	if !snap.HasPreview {
		switch {
		case snap.LastError != nil:
			lines = append(lines, "  "+styles.DangerText.Render(snap.LastError.Error()))
		default:
			lines = append(lines, "  "+styles.MutedText.Render("computing preview..."))
		}
		return strings.Join(lines, "\n")
	}

	if len(snap.Preview.Users) == 0 {
		lines = append(lines, "  "+styles.MutedText.Render("no users"))
	}
	for _, u := range snap.Preview.Users {
		c := u.Actions.Counts()
		parts := []string{
			styles.Text.Render(fmt.Sprintf("%-*s", nameWidth, truncate(u.User.ID, nameWidth))),
			m.count("add", c.Add),
			m.count("update", c.Update),
			m.count("delete", c.Delete),
			m.count("images", c.ImageDownload),
			m.count("none", c.None),
		}
		if n := len(u.Collisions); n > 0 {
			parts = append(parts, styles.WarningText.Render(fmt.Sprintf("%d id collisions", n)))
		}
		lines = append(lines, "  "+strings.Join(parts, "  "))
	}
	if pending := snap.Preview.Pending; len(pending) > 0 {
		lines = append(lines, "  "+styles.FaintText.Render("still discovering: "+strings.Join(pending, ", ")))
	}
	if snap.IsFailing() && snap.LastError != nil {
		lines = append(lines, "  "+styles.WarningText.Render("preview failing: "+snap.LastError.Error()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) count(action string, n int) string {
	label := map[string]string{
		"add":    "to add",
		"update": "to update",
		"delete": "to delete",
		"images": "need images",
		"none":   "in sync",
	}[action]
	return m.theme.Styles().ActionStyle(action).Render(fmt.Sprintf("%d %s", n, label))
}

func (m Model) renderLastSync() string {
	styles := m.theme.Styles()
	lines := []string{styles.Section.Render("Last sync")}
	if m.syncErr != nil {
		lines = append(lines, "  "+styles.DangerText.Render("failed: "+m.syncErr.Error()))
	}
	if !m.snapshot.HasReport {
		if m.syncErr == nil {
			lines = append(lines, "  "+styles.MutedText.Render("none yet, press s to sync"))
		}
		return strings.Join(lines, "\n")
	}

	rep := m.snapshot.Report
	summary := fmt.Sprintf("%s  %d games  %d images downloaded",
		rep.Finished.Format("15:04:05"), rep.Games, rep.Images.Downloaded)
	if rep.Images.Failed > 0 {
		summary += fmt.Sprintf("  %d failed", rep.Images.Failed)
	}
	lines = append(lines, "  "+styles.Text.Render(summary))
	for _, u := range rep.Users {
		lines = append(lines, "  "+styles.MutedText.Render(fmt.Sprintf("%s: %d added, %d updated, %d deleted",
			u.User.ID, u.Applied.Add, u.Applied.Update, u.Applied.Delete)))
	}
	if len(rep.Failed) > 0 {
		lines = append(lines, "  "+styles.WarningText.Render("platforms skipped: "+strings.Join(rep.Failed, ", ")))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.Section.Render("Log") + " " + styles.FaintText.Render(truncate(m.logPath, max(m.width-10, 10)))
	content := m.logs.View()
	if len(m.logLines) == 0 {
		content = styles.MutedText.Render("log is empty")
	}
	return title + "\n" + styles.Pane.Width(max(m.width-2, 0)).Render(content)
}

func (m Model) renderArtwork() string {
	styles := m.theme.Styles()
	lines := []string{styles.Section.Render("Artwork")}
	switch {
	case m.artwork == nil:
		lines = append(lines, "  "+styles.MutedText.Render("artwork downloads disabled"))
		return strings.Join(lines, "\n")
	case !m.snapshot.HasPreview:
		lines = append(lines, "  "+styles.MutedText.Render("computing preview..."))
		return strings.Join(lines, "\n")
	case len(m.slots) == 0:
		lines = append(lines, "  "+styles.MutedText.Render("no shortcuts"))
		return strings.Join(lines, "\n")
	}

	rows := m.artRows()
	start := max(min(m.cursor-rows/2, len(m.slots)-rows), 0)
	end := min(start+rows, len(m.slots))
	selected := NewBgStyle(m.theme.SurfaceAlt)
	for i := start; i < end; i++ {
		line := m.slotLine(m.slots[i])
		if i == m.cursor {
			lines = append(lines, selected.FillLine(styles.AccentText.Render("› ")+line, max(m.width-2, 0)))
			continue
		}
		lines = append(lines, "  "+line)
	}
	if len(m.slots) > rows {
		lines = append(lines, "  "+styles.FaintText.Render(fmt.Sprintf("%d of %d", m.cursor+1, len(m.slots))))
	}
	return strings.Join(lines, "\n")
}

func (m Model) slotLine(st orchestrator.SlotState) string {
	styles := m.theme.Styles()
	name := fmt.Sprintf("%-*s", nameWidth, truncate(st.Name, nameWidth))
	label := fmt.Sprintf("%-10s", st.Type.Label())
	prefix := styles.Text.Render(name) + " " + styles.MutedText.Render(label)
	e := st.Entry
	switch {
	case !st.Tracked && st.OnDisk:
		return prefix + styles.SuccessText.Render("on disk")
	case !st.Tracked:
		return prefix + styles.WarningText.Render("missing")
	case e.State == images.Downloading:
		return prefix + m.spinner.View() + " " + styles.InfoText.Render("downloading")
	case e.State == images.Failed:
		msg := ""
		if e.Err != nil {
			msg = ": " + truncate(e.Err.Error(), max(m.width-nameWidth-40, 20))
		}
		return prefix + styles.DangerText.Render("failed to load image") + styles.MutedText.Render(msg)
	case e.Undersized:
		return prefix + styles.WarningText.Render(fmt.Sprintf("too small (%d bytes)", e.Size))
	case e.State == images.Loaded:
		return prefix + styles.SuccessText.Render(fmt.Sprintf("loaded %dx%d", e.Width, e.Height))
	default:
		return prefix + styles.SuccessText.Render("downloaded")
	}
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Width(m.width).Render(m.help.View(m.keys))
}
