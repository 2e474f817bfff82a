package browse

import "github.com/charmbracelet/lipgloss"

// Palette holds the browser colors. Empty colors leave the terminal default.
type Palette struct {
	Name      string
	Primary   string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Border    string
	Highlight string
}

// DefaultPalette returns the default browser colors.
func DefaultPalette() Palette {
	return Palette{
		Name:      "default",
		Primary:   "#7D56F4", // Purple
		Success:   "#04B575", // Green
		Error:     "#FF5F56", // Red
		Warning:   "#FFBD2E", // Yellow/Orange
		Muted:     "#626262", // Gray
		Text:      "#CCCCCC", // Light gray
		Border:    "#444444", // Dark gray
		Highlight: "#7D56F4",
	}
}

// OrcaPalette returns muted colors matching the orca render theme.
func OrcaPalette() Palette {
	return Palette{
		Name:      "orca",
		Primary:   "75",
		Success:   "108",
		Error:     "167",
		Warning:   "179",
		Muted:     "245",
		Text:      "252",
		Border:    "240",
		Highlight: "67",
	}
}

// PaletteByName returns the palette matching a render theme name,
// defaulting to DefaultPalette. The mono palette has no colors.
func PaletteByName(name string) Palette {
	switch name {
	case "orca":
		return OrcaPalette()
	case "mono":
		return Palette{Name: "mono"}
	default:
		return DefaultPalette()
	}
}

// Styles are the lipgloss styles compiled from a palette.
type Styles struct {
	Title        lipgloss.Style
	GroupHeader  lipgloss.Style
	ListBox      lipgloss.Style
	Selected     lipgloss.Style
	Unselected   lipgloss.Style
	DetailBox    lipgloss.Style
	DetailHeader lipgloss.Style
	StatusBar    lipgloss.Style
	Success      lipgloss.Style
	Failure      lipgloss.Style
	Warning      lipgloss.Style
	Muted        lipgloss.Style
}

func color(c string) lipgloss.TerminalColor {
	if c == "" {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(c)
}

// Compile builds lipgloss styles from the palette.
func (p Palette) Compile() *Styles {
	primary, highlight := color(p.Primary), color(p.Highlight)
	border, muted := color(p.Border), color(p.Muted)

	s := &Styles{}
	s.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(primary).
		Padding(0, 1)

	s.GroupHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(primary)

	s.ListBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	s.Selected = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(highlight)
	if p.Highlight == "" {
		s.Selected = s.Selected.Reverse(true)
	}

	s.Unselected = lipgloss.NewStyle().Foreground(color(p.Text))

	s.DetailBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primary).
		Padding(0, 1)

	s.DetailHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(highlight).
		Padding(0, 1)

	s.StatusBar = lipgloss.NewStyle().Foreground(muted)

	s.Success = lipgloss.NewStyle().Foreground(color(p.Success)).Bold(true)
	s.Failure = lipgloss.NewStyle().Foreground(color(p.Error)).Bold(true)
	s.Warning = lipgloss.NewStyle().Foreground(color(p.Warning)).Bold(true)
	s.Muted = lipgloss.NewStyle().Foreground(muted)
	return s
}
