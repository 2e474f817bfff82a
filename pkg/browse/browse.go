// Package browse is an interactive terminal browser for a dashboard:
// builds grouped by job, then the packages of a build, then their logs.
package browse

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidewise/buildbot-ci/pkg/aggregate"
	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// LogReader reads one package log of a build. *artifact.Resolver
// implements it.
type LogReader interface {
	Log(reportKey, pkgName, logType string) ([]byte, error)
}

// Run launches the browser and blocks until the user quits.
func Run(ctx context.Context, d *aggregate.Dashboard, logs LogReader, palette Palette) error {
	program := tea.NewProgram(newModel(d, logs, palette), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type level int

const (
	levelBuilds level = iota
	levelPackages
	levelLog
)

type model struct {
	logs   LogReader
	styles *Styles
	jobs   []aggregate.JobGroup
	builds []*aggregate.BuildInfo // jobs flattened, in display order

	level    level
	build    int
	pkg      int
	logTypes []string
	logType  int

	viewport    viewport.Model
	ready       bool
	width       int
	height      int
	listWidth   int
	detailWidth int
}

func newModel(d *aggregate.Dashboard, logs LogReader, palette Palette) model {
	m := model{
		logs:     logs,
		styles:   palette.Compile(),
		jobs:     d.Jobs,
		viewport: viewport.New(0, 0),
	}
	for _, job := range d.Jobs {
		m.builds = append(m.builds, job.Builds...)
	}
	return m
}

// logMsg carries a loaded log back to the model.
type logMsg struct {
	reportKey string
	pkg       string
	logType   string
	content   string
	err       error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listWidth = max(24, min(m.calculateListWidth(), m.width/2))
		m.detailWidth = max(20, m.width-m.listWidth-1)
		m.viewport.Width = m.detailWidth - 4    // border + padding
		m.viewport.Height = max(3, m.height-10) // title, header, help, borders
		m.ready = true
	case logMsg:
		b, p, logType := m.current()
		if b == nil || p == nil || msg.reportKey != b.ReportKey || msg.pkg != p.Name || msg.logType != logType {
			return m, nil
		}
		if msg.err != nil {
			m.viewport.SetContent(m.styles.Failure.Render(msg.err.Error()))
		} else {
			m.viewport.SetContent(msg.content)
		}
		m.viewport.GotoTop()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "left", "h", "backspace":
		if m.level > levelBuilds {
			m.level--
		}
		return m, nil
	case "enter", "right", "l":
		return m.enter()
	case "tab":
		if m.level == levelLog && len(m.logTypes) > 1 {
			m.logType = (m.logType + 1) % len(m.logTypes)
			return m, m.loadLog()
		}
		return m, nil
	case "up", "k":
		m.move(-1)
		if m.level != levelLog {
			return m, nil
		}
	case "down", "j":
		m.move(1)
		if m.level != levelLog {
			return m, nil
		}
	}

	if m.level == levelLog {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) move(delta int) {
	switch m.level {
	case levelBuilds:
		m.build = clamp(m.build+delta, len(m.builds))
	case levelPackages:
		if b := m.selectedBuild(); b != nil {
			m.pkg = clamp(m.pkg+delta, len(b.Report.Packages))
		}
	}
}

func (m model) enter() (tea.Model, tea.Cmd) {
	switch m.level {
	case levelBuilds:
		if b := m.selectedBuild(); b != nil && len(b.Report.Packages) > 0 {
			m.level = levelPackages
			m.pkg = 0
		}
	case levelPackages:
		p := m.selectedPackage()
		if p == nil || len(p.Logs) == 0 {
			return m, nil
		}
		m.logTypes = sortedLogTypes(p)
		m.logType = 0
		m.level = levelLog
		m.viewport.SetContent("Loading...")
		return m, m.loadLog()
	}
	return m, nil
}

func (m model) loadLog() tea.Cmd {
	b, p, logType := m.current()
	if b == nil || p == nil || logType == "" || m.logs == nil {
		return nil
	}
	reader := m.logs
	key, name := b.ReportKey, p.Name
	return func() tea.Msg {
		data, err := reader.Log(key, name, logType)
		return logMsg{reportKey: key, pkg: name, logType: logType, content: string(data), err: err}
	}
}

func (m model) selectedBuild() *aggregate.BuildInfo {
	if m.build < 0 || m.build >= len(m.builds) {
		return nil
	}
	return m.builds[m.build]
}

func (m model) selectedPackage() *report.Package {
	b := m.selectedBuild()
	if b == nil || m.pkg < 0 || m.pkg >= len(b.Report.Packages) {
		return nil
	}
	return &b.Report.Packages[m.pkg]
}

// current returns the build, package and log type shown in the log view.
func (m model) current() (*aggregate.BuildInfo, *report.Package, string) {
	logType := ""
	if m.logType < len(m.logTypes) {
		logType = m.logTypes[m.logType]
	}
	return m.selectedBuild(), m.selectedPackage(), logType
}

func (m model) calculateListWidth() int {
	maxWidth := 0
	for _, b := range m.builds {
		maxWidth = max(maxWidth, lipgloss.Width(b.Name)+4)
		for i := range b.Report.Packages {
			maxWidth = max(maxWidth, lipgloss.Width(b.Report.Packages[i].Name)+4)
		}
	}
	return maxWidth + 4
}

func (m model) View() string {
	if !m.ready {
		return "Loading dashboard..."
	}

	title := m.styles.Title.Width(m.width).Render(m.title())

	contentHeight := max(5, m.height-6)
	listPanel := m.styles.ListBox.Width(m.listWidth).Render(fitHeight(m.renderList(), contentHeight))
	detailPanel := m.styles.DetailBox.Width(m.detailWidth).Render(fitHeight(m.renderDetail(), contentHeight))

	panels := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, detailPanel)
	help := m.styles.StatusBar.Render(m.help())
	return lipgloss.JoinVertical(lipgloss.Left, title, panels, help)
}

func (m model) title() string {
	switch m.level {
	case levelPackages, levelLog:
		if b := m.selectedBuild(); b != nil {
			return "Build " + b.Name
		}
	}
	return fmt.Sprintf("Builds (%d)", len(m.builds))
}

func (m model) help() string {
	switch m.level {
	case levelBuilds:
		return "↑/↓ navigate • enter packages • q quit"
	case levelPackages:
		return "↑/↓ navigate • enter logs • esc back • q quit"
	default:
		return "↑/↓ scroll • tab next log • esc back • q quit"
	}
}

func (m model) renderList() string {
	var lines []string
	if m.level == levelBuilds {
		i := 0
		for _, job := range m.jobs {
			lines = append(lines, m.styles.GroupHeader.Render("▸ "+job.Name))
			for _, b := range job.Builds {
				lines = append(lines, m.row(i == m.build, m.badge(b.State), b.Name))
				i++
			}
			lines = append(lines, "")
		}
		return strings.Join(lines, "\n")
	}

	b := m.selectedBuild()
	if b == nil {
		return ""
	}
	for i := range b.Report.Packages {
		p := &b.Report.Packages[i]
		lines = append(lines, m.row(i == m.pkg, m.badge(p.State()), p.Name))
	}
	return strings.Join(lines, "\n")
}

func (m model) row(selected bool, icon, name string) string {
	if selected {
		return m.styles.Selected.Render("▶ " + name)
	}
	return "  " + icon + " " + m.styles.Unselected.Render(name)
}

func (m model) badge(e status.Entry) string {
	switch e.Badge {
	case status.BadgeSuccess:
		return m.styles.Success.Render("✓")
	case status.BadgeFailure:
		return m.styles.Failure.Render("✗")
	case status.BadgeWarnings:
		return m.styles.Warning.Render("!")
	default:
		return m.styles.Muted.Render("○")
	}
}

func (m model) renderDetail() string {
	switch m.level {
	case levelBuilds:
		b := m.selectedBuild()
		if b == nil {
			return "No builds with a report"
		}
		var sb strings.Builder
		sb.WriteString(m.styles.DetailHeader.Render(b.Name) + "\n\n")
		sb.WriteString(fmt.Sprintf("job %s, build %d\n", b.JobName, b.BuildNumber))
		sb.WriteString("state " + m.badge(b.State) + " " + b.State.Text + "\n\n")
		for _, item := range b.Summary {
			sb.WriteString(fmt.Sprintf("  %s %-24s %d\n", m.badge(status.Entry{Badge: item.Badge}), item.Text, item.Count))
		}
		return sb.String()
	case levelPackages:
		p := m.selectedPackage()
		if p == nil {
			return ""
		}
		var sb strings.Builder
		sb.WriteString(m.styles.DetailHeader.Render(p.Name) + "\n\n")
		for _, e := range p.Status {
			sb.WriteString("  " + m.badge(e) + " " + e.Text + "\n")
		}
		if len(p.Logs) > 0 {
			sb.WriteString("\nlogs: " + strings.Join(sortedLogTypes(p), ", ") + "\n")
		} else {
			sb.WriteString(m.styles.Muted.Render("\nno logs") + "\n")
		}
		for _, t := range p.Tests {
			sb.WriteString("test results (" + t.Kind + "): " + t.Path + "\n")
		}
		return sb.String()
	default:
		_, p, logType := m.current()
		name := ""
		if p != nil {
			name = p.Name
		}
		header := m.styles.DetailHeader.Render(fmt.Sprintf("%s: %s", name, logType))
		return header + "\n\n" + m.viewport.View()
	}
}

func sortedLogTypes(p *report.Package) []string {
	types := make([]string, 0, len(p.Logs))
	for t := range p.Logs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// fitHeight pads or truncates s to exactly n lines.
func fitHeight(s string, n int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < n {
		lines = append(lines, "")
	}
	return strings.Join(lines[:n], "\n")
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
