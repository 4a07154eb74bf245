package keys

import "github.com/charmbracelet/bubbles/key"

// MonitorKeys holds the key bindings for the live monitor view.
type MonitorKeys struct {
	Quit  key.Binding
	Clear key.Binding
	Pause key.Binding
	Help  key.Binding
}

func NewMonitorKeys() MonitorKeys {
	return MonitorKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "Q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear screen"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p/space", "pause/resume"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

func (k MonitorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Clear, k.Help, k.Quit}
}

func (k MonitorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Clear},
		{k.Help, k.Quit},
	}
}
