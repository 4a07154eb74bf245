package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"seriald/internal/tui/styles"
)

// maxFeedLines bounds how much scrollback the view itself retains.
const maxFeedLines = 2000

// Linefeed displays incoming serial lines in a scrolling viewport,
// following the newest line.
type Linefeed struct {
	viewport       viewport.Model
	lines          []string
	showTimestamps bool
}

func NewLinefeed(width, height int, showTimestamps bool) *Linefeed {
	return &Linefeed{
		viewport:       viewport.New(width, height),
		showTimestamps: showTimestamps,
	}
}

func (f *Linefeed) SetSize(width, height int) {
	f.viewport.Width = width
	f.viewport.Height = height
	f.refresh()
}

// AddLines appends a batch of lines stamped with their delivery time.
func (f *Linefeed) AddLines(lines []string, at time.Time) {
	if len(lines) == 0 {
		return
	}

	prefix := ""
	if f.showTimestamps {
		prefix = styles.InfoStyle.Render(at.Format("15:04:05.000")) + " "
	}
	for _, line := range lines {
		f.lines = append(f.lines, prefix+line)
	}
	if len(f.lines) > maxFeedLines {
		f.lines = f.lines[len(f.lines)-maxFeedLines:]
	}
	f.refresh()
}

func (f *Linefeed) Clear() {
	f.lines = nil
	f.viewport.SetContent("")
}

func (f *Linefeed) refresh() {
	f.viewport.SetContent(strings.Join(f.lines, "\n"))
	f.viewport.GotoBottom()
}

func (f *Linefeed) Update(msg tea.Msg) tea.Cmd {
	// Only window resizes reach the viewport; key presses belong to the
	// surrounding model.
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		var cmd tea.Cmd
		f.viewport, cmd = f.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (f *Linefeed) View() string {
	return f.viewport.View()
}
