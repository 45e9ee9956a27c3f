package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, https://catppuccin.com/palette
const (
	colorRosewater lipgloss.Color = "#f5e0dc"
	colorFlamingo  lipgloss.Color = "#f2cdcd"
	colorPink      lipgloss.Color = "#f5c2e7"
	colorMauve     lipgloss.Color = "#cba6f7"
	colorRed       lipgloss.Color = "#f38ba8"
	colorMaroon    lipgloss.Color = "#eba0ac"
	colorPeach     lipgloss.Color = "#fab387"
	colorYellow    lipgloss.Color = "#f9e2af"
	colorGreen     lipgloss.Color = "#a6e3a1"
	colorTeal      lipgloss.Color = "#94e2d5"
	colorSky       lipgloss.Color = "#89dceb"
	colorSapphire  lipgloss.Color = "#74c7ec"
	colorBlue      lipgloss.Color = "#89b4fa"
	colorLavender  lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface2 lipgloss.Color = "#585b70"
)

const (
	colorFocus   = colorLavender
	colorError   = colorRed
	colorInfo    = colorTeal
	colorOutline = colorSurface2
)

// markerColors is the marker palette in scheme order: week buckets and
// hour bands index it directly.
func markerColors() []lipgloss.Color {
	return []lipgloss.Color{
		colorGreen, colorTeal, colorPeach, colorBlue,
		colorMauve, colorPink, colorFlamingo, colorSapphire,
		colorYellow, colorRed, colorMaroon, colorRosewater,
		colorSky, colorLavender,
	}
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(colorText)
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorOverlay0).Padding(0, 1)
	focusStyle     = paneStyle.BorderForeground(colorFocus)
	dimStyle       = lipgloss.NewStyle().Foreground(colorSubtext0)
	statusStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	errorStyle     = lipgloss.NewStyle().Foreground(colorError)
	outlineStyle   = lipgloss.NewStyle().Foreground(colorOutline)
	containerStyle = lipgloss.NewStyle().Foreground(colorSubtext0)
	highlightStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
)
