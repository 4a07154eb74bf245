package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"seriald/internal/hub"
	"seriald/internal/serial"
	"seriald/internal/tui/components"
	"seriald/internal/tui/keys"
	"seriald/internal/tui/styles"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor <port>",
	Short: "Watch incoming lines from a serial port in real time",
	Long: `Open a serial port and display incoming lines in a live terminal view.

The port is drained continuously in the background exactly like a daemon
connection; the view picks up complete lines as they arrive. Pausing the
view stops consuming lines, which then accumulate in the bounded buffer
until resumed.

Example usage:
  seriald monitor /dev/ttyUSB0
  seriald monitor /dev/ttyUSB0 --baud 9600 --no-timestamps`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]
		baud, _ := cmd.Flags().GetInt("baud")
		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")

		if err := runMonitor(portPath, baud, !noTimestamps); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().IntP("baud", "b", serial.DefaultBaudRate, "Baud rate")
	monitorCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
}

type monitorTickMsg time.Time

func monitorTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

type monitorModel struct {
	reg  *hub.Registry
	port string

	feed      *components.Linefeed
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.MonitorKeys

	paused bool
	ready  bool
}

func runMonitor(portPath string, baud int, timestamps bool) error {
	reg := hub.NewRegistry(hub.WithBufferLines(viper.GetInt("buffer_lines")))
	if err := reg.Open(portPath, baud); err != nil {
		return err
	}
	defer reg.CloseAll()

	st, err := reg.Status(portPath)
	if err != nil {
		return err
	}

	m := &monitorModel{
		reg:       reg,
		port:      portPath,
		feed:      components.NewLinefeed(80, 20, timestamps),
		statusBar: components.NewStatusBar(portPath, st.BaudRate),
		help:      help.New(),
		keys:      keys.NewMonitorKeys(),
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *monitorModel) Init() tea.Cmd {
	return monitorTick()
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		statusBarHeight := 1
		m.feed.SetSize(msg.Width, msg.Height-statusBarHeight-1)
		m.statusBar.SetWidth(msg.Width)
		m.ready = true
		return m, m.feed.Update(msg)

	case monitorTickMsg:
		if !m.paused {
			// Drain semantics: the monitor is this buffer's consumer.
			lines, err := m.reg.Read(m.port)
			if err != nil {
				m.statusBar.SetError(err)
			} else {
				m.feed.AddLines(lines, time.Time(msg))
			}
		}
		if st, err := m.reg.Status(m.port); err == nil {
			m.statusBar.SetBuffered(st.BufferedLines)
		}
		return m, monitorTick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.feed.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			m.statusBar.SetPaused(m.paused)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	return m, nil
}

func (m *monitorModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	content := styles.ContentBorderStyle.Render(m.feed.View())
	statusBar := m.statusBar.View(time.Now().Format("15:04:05"))

	if m.help.ShowAll {
		return lipgloss.JoinVertical(lipgloss.Left, content, m.help.View(m.keys), statusBar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}
