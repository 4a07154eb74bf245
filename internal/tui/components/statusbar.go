package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"seriald/internal/tui/colors"
	"seriald/internal/tui/styles"
)

// StatusBar renders the single-line bar under the monitor view: mode,
// port and baud, buffered line count and clock.
type StatusBar struct {
	port  string
	baud  int
	width int

	buffered int
	paused   bool
	err      error
}

func NewStatusBar(port string, baud int) *StatusBar {
	return &StatusBar{port: port, baud: baud}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetBuffered(n int) {
	sb.buffered = n
}

func (sb *StatusBar) SetPaused(paused bool) {
	sb.paused = paused
}

func (sb *StatusBar) SetError(err error) {
	sb.err = err
}

func (sb *StatusBar) View(timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	var mode string
	if sb.paused {
		mode = styles.StatusPausedStyle.Render("PAUSED")
	} else {
		mode = styles.StatusLiveStyle.Render("LIVE")
	}

	portStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	port := portStyle.Render(fmt.Sprintf("%s @ %d baud", sb.port, sb.baud))

	var status string
	if sb.err != nil {
		status = styles.ErrorStyle.Render(sb.err.Error())
	} else {
		status = styles.InfoStyle.Render(fmt.Sprintf("%d buffered", sb.buffered))
	}

	clockStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Padding(0, 1)
	clock := clockStyle.Render(timestamp)

	left := lipgloss.JoinHorizontal(lipgloss.Left, mode, port, status)

	gap := width - lipgloss.Width(left) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	filler := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Left, left, filler, clock)
}
