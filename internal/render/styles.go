package render

import "github.com/charmbracelet/lipgloss"

// Palette, muted and dark-terminal friendly.
var (
	blue   = lipgloss.Color("33")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
)

// Styles holds the styles used for one output surface.
type Styles struct {
	Planned   lipgloss.Style
	Building  lipgloss.Style
	Succeeded lipgloss.Style
	Failed    lipgloss.Style
	Skipped   lipgloss.Style
	History   lipgloss.Style
	Bold      lipgloss.Style
}

// NewStyles binds the palette to r, so that the colour profile of r decides
// which escapes (if any) are emitted.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Planned:   r.NewStyle().Bold(true).Foreground(blue),
		Building:  r.NewStyle().Bold(true).Foreground(yellow),
		Succeeded: r.NewStyle().Bold(true).Foreground(green),
		Failed:    r.NewStyle().Bold(true).Foreground(red),
		Skipped:   r.NewStyle().Foreground(dim),
		History:   r.NewStyle().Foreground(dim),
		Bold:      r.NewStyle().Bold(true),
	}
}
