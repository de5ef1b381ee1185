// Package ui renders interactive sync progress in the terminal.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fortrace/internal/mirror"
)

type progressModel struct {
	title      string
	root       string
	events     <-chan mirror.Event
	spinner    spinner.Model
	prog       progress.Model
	items      []fileItem
	index      map[string]int
	stageLabel string
	resets     int
	width      int
	done       bool
}

type fileItem struct {
	path   string
	status string
	stage  mirror.Stage
	final  bool
}

type eventMsg mirror.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders sync progress.
// Paths are shown relative to root when possible. The model quits when
// events is closed.
func NewProgressModel(title, root string, files []string, events <-chan mirror.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, 0, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items = append(items, fileItem{path: file, status: string(mirror.StatusQueued)})
		index[file] = i
	}
	return &progressModel{
		title:   title,
		root:    root,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(mirror.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.stageLabel != "" {
		header = fmt.Sprintf("%s (%s)", header, m.stageLabel)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	const statusWidth = 12
	nameWidth := max(m.width-statusWidth-4, 20)
	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%12s", item.status))
		fmt.Fprintf(&b, "  %s %s\n", status, truncate(m.display(item.path), nameWidth))
	}
	if m.resets > 0 {
		fmt.Fprintf(&b, "\n  %d mirror file(s) reset to pristine\n", m.resets)
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) display(path string) string {
	if m.root == "" {
		return path
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev mirror.Event) tea.Cmd {
	if ev.Stage == mirror.StageReset && ev.Status == mirror.StatusDone {
		m.resets++
	}
	idx, ok := m.index[ev.File]
	if ev.File == "" || !ok {
		// событие уровня всей синхронизации или файла вне выборки
		if label := stageLabel(ev.Stage); label != "" {
			m.stageLabel = label
		}
		return nil
	}
	if label := statusLabel(ev.Stage, ev.Status); label != "" {
		item := &m.items[idx]
		item.status = label
		item.stage = ev.Stage
		item.final = ev.Status == mirror.StatusDone ||
			ev.Status == mirror.StatusUnchanged ||
			ev.Status == mirror.StatusError
	}
	return m.prog.SetPercent(m.percent())
}

func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		switch {
		case item.final:
			total += 1.0
		case item.status != string(mirror.StatusQueued):
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func statusLabel(stage mirror.Stage, status mirror.Status) string {
	switch status {
	case mirror.StatusQueued, mirror.StatusDone, mirror.StatusUnchanged, mirror.StatusError:
		return string(status)
	case mirror.StatusWorking:
		return stageLabel(stage)
	default:
		return ""
	}
}

func stageLabel(stage mirror.Stage) string {
	switch stage {
	case mirror.StageInstrument:
		return "instrumenting"
	case mirror.StageReset:
		return "resetting"
	case mirror.StageState:
		return "saving"
	default:
		return ""
	}
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "unchanged":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "instrumenting", "resetting", "saving":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
