package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// Choice is one entry of a Picker.
type Choice struct {
	Name        string
	Description string
}

// Picker is a small menu for choosing a scenario before going live.
type Picker struct {
	choices  []Choice
	cursor   int
	selected string
	quit     bool
}

func NewPicker(choices []Choice) Picker {
	return Picker{choices: choices}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		p.quit = true
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.choices)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.choices) > 0 {
			p.selected = p.choices[p.cursor].Name
		}
		return p, tea.Quit
	}
	return p, nil
}

func (p Picker) View() string {
	var s strings.Builder
	s.WriteString(cyan.Render("ORBITSIM") + dim.Render("  choose a scenario") + "\n\n")
	for i, c := range p.choices {
		line := fmt.Sprintf("%-10s", c.Name)
		if i == p.cursor {
			s.WriteString(cyan.Render("> "+line) + " " + white.Render(c.Description) + "\n")
		} else {
			s.WriteString("  " + dim.Render(line) + " " + dimmer.Render(c.Description) + "\n")
		}
	}
	s.WriteString("\n" + dimmer.Render("↑↓:Move Enter:Select Q:Quit") + "\n")
	return s.String()
}

// Selected is the chosen name, empty if the picker was dismissed.
func (p Picker) Selected() string {
	if p.quit {
		return ""
	}
	return p.selected
}

// Pick runs a picker on the terminal and returns the selected name.
func Pick(choices []Choice, opts ...tea.ProgramOption) (string, error) {
	final, err := tea.NewProgram(NewPicker(choices), opts...).Run()
	if err != nil {
		return "", err
	}
	return final.(Picker).Selected(), nil
}
