package viz

import "github.com/charmbracelet/lipgloss"

// Theme assigns a color to every role in the live view. Body and trail
// colors come from the scenario and are not themed.
type Theme struct {
	Name       string
	Background lipgloss.Color // canvas fill
	Title      lipgloss.Color
	Label      lipgloss.Color // stat labels, borders, help
	Value      lipgloss.Color
	Graph      lipgloss.Color // energy chart

	Running lipgloss.Color
	Paused  lipgloss.Color
	Halted  lipgloss.Color
}

var (
	// ThemeDeepSpace matches the classic look: near-black sky, white text.
	ThemeDeepSpace = Theme{
		Name:       "deep-space",
		Background: "#111111",
		Title:      "#00ffff",
		Label:      "#666688",
		Value:      "#ffffff",
		Graph:      "#ffd700",
		Running:    "#00ff88",
		Paused:     "#ffaa00",
		Halted:     "#ff4444",
	}

	ThemeRetroGreen = Theme{
		Name:       "retro",
		Background: "#001100",
		Title:      "#00ff00",
		Label:      "#005500",
		Value:      "#00ff00",
		Graph:      "#88ff88",
		Running:    "#88ff88",
		Paused:     "#ffff00",
		Halted:     "#ff0000",
	}

	ThemeMinimal = Theme{
		Name:       "minimal",
		Background: "#000000",
		Title:      "#ffffff",
		Label:      "#888888",
		Value:      "#ffffff",
		Graph:      "#0088ff",
		Running:    "#ffffff",
		Paused:     "#888888",
		Halted:     "#ff0000",
	}

	// Themes is the cycle order for the theme key.
	Themes = []Theme{ThemeDeepSpace, ThemeRetroGreen, ThemeMinimal}
)

// GetTheme falls back to ThemeDeepSpace for unknown names.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeDeepSpace
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
