package theme

import "github.com/charmbracelet/lipgloss"

// Theme centralizes Lip Gloss styles for the memo screens and the widget
// viewer.
type Theme struct {
	Footer FooterTheme
	Panel  PanelTheme
	List   ListTheme
}

// FooterTheme groups styles used by the bottom status line.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
}

// PanelTheme styles framed panels and headings.
type PanelTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
}

// ListTheme styles memo rows.
type ListTheme struct {
	Item     lipgloss.Style
	Selected lipgloss.Style
	Meta     lipgloss.Style
}

// Default returns the built-in theme.
func Default() Theme {
	meta := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	return Theme{
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: meta,
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		},
		Panel: PanelTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1),
			Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
			Body:  lipgloss.NewStyle(),
		},
		List: ListTheme{
			Item:     lipgloss.NewStyle().PaddingLeft(2),
			Selected: lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("212")).Foreground(lipgloss.Color("212")),
			Meta:     meta,
		},
	}
}
