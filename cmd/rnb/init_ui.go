package main

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(accentColor).Padding(0, 1)
	inputStyle  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(accentColor).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#767676"))
)

const (
	initFieldTrackerURL = iota
	initFieldAPIKey
)

// initModel asks for the tracker URL and API key and saves them, keeping the
// other settings of an existing config.
type initModel struct {
	configPath string
	base       Config
	inputs     []textinput.Model
	focus      int
	err        string
	done       bool
}

func newInitModel(configPath string, base Config) initModel {
	url := textinput.New()
	url.Placeholder = "https://redmine.example.com"
	url.SetValue(base.TrackerURL)
	url.CharLimit = 300
	url.Width = 50
	url.Focus()

	key := textinput.New()
	key.Placeholder = "API access key"
	key.SetValue(base.APIKey)
	key.EchoMode = textinput.EchoPassword
	key.CharLimit = 200
	key.Width = 50

	return initModel{
		configPath: configPath,
		base:       base,
		inputs:     []textinput.Model{url, key},
	}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			m.focus = (m.focus + 1) % len(m.inputs)
			return m, m.refocus()
		case "enter":
			if m.focus < len(m.inputs)-1 {
				m.focus++
				return m, m.refocus()
			}
			if err := m.save(); err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *initModel) refocus() tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		if i == m.focus {
			cmds[i] = m.inputs[i].Focus()
			continue
		}
		m.inputs[i].Blur()
	}
	return tea.Batch(cmds...)
}

func (m initModel) save() error {
	cfg := m.base
	cfg.TrackerURL = strings.TrimRight(strings.TrimSpace(m.inputs[initFieldTrackerURL].Value()), "/")
	cfg.APIKey = strings.TrimSpace(m.inputs[initFieldAPIKey].Value())
	if cfg.TrackerURL == "" {
		return errors.New("tracker URL is required")
	}
	if err := validateTrackerURL(cfg.TrackerURL); err != nil {
		return err
	}
	return SaveConfig(m.configPath, cfg)
}

func (m initModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(bannerStyle.Render("rnb"))
	b.WriteString("\n\n")
	b.WriteString("Redmine URL:\n")
	b.WriteString(inputStyle.Render(m.inputs[initFieldTrackerURL].View()))
	b.WriteString("\nAPI key (My account > API access key):\n")
	b.WriteString(inputStyle.Render(m.inputs[initFieldAPIKey].View()))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab to switch, enter to save, esc to cancel"))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err))
		b.WriteString("\n")
	}
	return b.String()
}
