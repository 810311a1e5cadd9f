package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/fakeyudi/statusline/internal/metrics"
)

// Palette is the fixed set of semantic styles used on the status line.
// Colours are the 16 basic ANSI codes, emitted without terminal detection.
type Palette struct {
	Model     lipgloss.Style
	Dir       lipgloss.Style
	Branch    lipgloss.Style
	Secondary lipgloss.Style
	Added     lipgloss.Style
	Removed   lipgloss.Style
	OK        lipgloss.Style
	Warn      lipgloss.Style
	Critical  lipgloss.Style
	Dim       lipgloss.Style
}

// NewPalette builds the palette. With color false every style renders
// plain text.
func NewPalette(color bool) Palette {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return Palette{
		Model:     fg("14"), // bright cyan
		Dir:       fg("6"),
		Branch:    fg("2"),
		Secondary: fg("7"),
		Added:     fg("2"),
		Removed:   fg("1"),
		OK:        fg("2"),
		Warn:      fg("3"),
		Critical:  fg("1"),
		Dim:       fg("8"),
	}
}

// Band returns the style for a percentage band.
func (p Palette) Band(b metrics.Band) lipgloss.Style {
	switch b {
	case metrics.BandCritical:
		return p.Critical
	case metrics.BandWarn:
		return p.Warn
	default:
		return p.OK
	}
}

// paint renders s with style, leaving empty strings untouched.
func paint(style lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	return style.Render(s)
}
