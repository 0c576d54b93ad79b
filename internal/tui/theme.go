package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

// Theme holds the palette for the dashboard chrome plus semantic colors
// for workflow states and priorities.
type Theme struct {
	Name string

	Background    tcell.Color
	HeaderBg      tcell.Color
	Border        tcell.Color
	BorderFocus   tcell.Color
	Foreground    tcell.Color
	SecondaryText tcell.Color
	SelectionBg   tcell.Color
	SelectionText tcell.Color
	Accent        tcell.Color
	Success       tcell.Color
	Warning       tcell.Color
	Error         tcell.Color

	StateBacklog   tcell.Color
	StateUnstarted tcell.Color
	StateStarted   tcell.Color
	StateCompleted tcell.Color
	StateCanceled  tcell.Color

	// PriorityColors is indexed by linearapi.Priority.
	PriorityColors [5]tcell.Color
}

var darkTheme = Theme{
	Name:          "dark",
	Background:    tcell.NewHexColor(0x282a36),
	HeaderBg:      tcell.NewHexColor(0x21222c),
	Border:        tcell.NewHexColor(0x44475a),
	BorderFocus:   tcell.NewHexColor(0xbd93f9),
	Foreground:    tcell.NewHexColor(0xf8f8f2),
	SecondaryText: tcell.NewHexColor(0x6272a4),
	SelectionBg:   tcell.NewHexColor(0x44475a),
	SelectionText: tcell.NewHexColor(0xf8f8f2),
	Accent:        tcell.NewHexColor(0xbd93f9),
	Success:       tcell.NewHexColor(0x50fa7b),
	Warning:       tcell.NewHexColor(0xffb86c),
	Error:         tcell.NewHexColor(0xff5555),

	StateBacklog:   tcell.NewHexColor(0x6272a4),
	StateUnstarted: tcell.NewHexColor(0xf8f8f2),
	StateStarted:   tcell.NewHexColor(0xf1fa8c),
	StateCompleted: tcell.NewHexColor(0x50fa7b),
	StateCanceled:  tcell.NewHexColor(0x6272a4),

	PriorityColors: [5]tcell.Color{
		tcell.NewHexColor(0x6272a4), // none
		tcell.NewHexColor(0x8be9fd), // low
		tcell.NewHexColor(0x50fa7b), // medium
		tcell.NewHexColor(0xffb86c), // high
		tcell.NewHexColor(0xff5555), // urgent
	},
}

var lightTheme = Theme{
	Name:          "light",
	Background:    tcell.NewHexColor(0xfafafa),
	HeaderBg:      tcell.NewHexColor(0xe8e8ec),
	Border:        tcell.NewHexColor(0xc4c4cc),
	BorderFocus:   tcell.NewHexColor(0x644ac9),
	Foreground:    tcell.NewHexColor(0x1a1a1a),
	SecondaryText: tcell.NewHexColor(0x6e6a86),
	SelectionBg:   tcell.NewHexColor(0xd8d8e4),
	SelectionText: tcell.NewHexColor(0x1a1a1a),
	Accent:        tcell.NewHexColor(0x644ac9),
	Success:       tcell.NewHexColor(0x1a7f37),
	Warning:       tcell.NewHexColor(0x9a6700),
	Error:         tcell.NewHexColor(0xcf222e),

	StateBacklog:   tcell.NewHexColor(0x6e6a86),
	StateUnstarted: tcell.NewHexColor(0x1a1a1a),
	StateStarted:   tcell.NewHexColor(0x9a6700),
	StateCompleted: tcell.NewHexColor(0x1a7f37),
	StateCanceled:  tcell.NewHexColor(0x6e6a86),

	PriorityColors: [5]tcell.Color{
		tcell.NewHexColor(0x6e6a86), // none
		tcell.NewHexColor(0x0969da), // low
		tcell.NewHexColor(0x1a7f37), // medium
		tcell.NewHexColor(0xbc4c00), // high
		tcell.NewHexColor(0xcf222e), // urgent
	},
}

// ResolveTheme maps a configured theme name to a palette. Unknown names
// fall back to the dark theme.
func ResolveTheme(name string) Theme {
	switch name {
	case "light":
		return lightTheme
	default:
		return darkTheme
	}
}

// StateColor returns the color for a workflow state type. Unknown types
// render as secondary text.
func (t Theme) StateColor(stateType string) tcell.Color {
	switch stateType {
	case "backlog":
		return t.StateBacklog
	case "unstarted":
		return t.StateUnstarted
	case "started":
		return t.StateStarted
	case "completed":
		return t.StateCompleted
	case "canceled":
		return t.StateCanceled
	default:
		return t.SecondaryText
	}
}

// PriorityColor returns the color for an issue priority.
func (t Theme) PriorityColor(p linearapi.Priority) tcell.Color {
	if p < 0 || int(p) >= len(t.PriorityColors) {
		return t.SecondaryText
	}
	return t.PriorityColors[p]
}

// ProjectStatusColor returns the color for a project status type.
func (t Theme) ProjectStatusColor(statusType string) tcell.Color {
	switch statusType {
	case "planned", "backlog":
		return t.SecondaryText
	case "started":
		return t.StateStarted
	case "paused":
		return t.Warning
	case "completed":
		return t.StateCompleted
	case "canceled":
		return t.StateCanceled
	default:
		return t.SecondaryText
	}
}

// ThemeTags holds precomputed tview color tags for inline markup, for
// text that is composed with fmt rather than styled per cell. Each tag
// opens a color span; close it with [-].
type ThemeTags struct {
	Foreground    string
	SecondaryText string
	Accent        string
	Success       string
	Warning       string
	Error         string
	Border        string
}

// NewThemeTags precomputes the color tags for a theme.
func NewThemeTags(t Theme) ThemeTags {
	return ThemeTags{
		Foreground:    colorTag(t.Foreground),
		SecondaryText: colorTag(t.SecondaryText),
		Accent:        colorTag(t.Accent),
		Success:       colorTag(t.Success),
		Warning:       colorTag(t.Warning),
		Error:         colorTag(t.Error),
		Border:        colorTag(t.Border),
	}
}

func colorTag(c tcell.Color) string {
	return fmt.Sprintf("[#%06x]", c.Hex())
}

// apiColor parses a hex color string supplied by the API, such as a
// workflow state's color, falling back when it is empty or malformed.
func apiColor(hex string, fallback tcell.Color) tcell.Color {
	if hex == "" {
		return fallback
	}
	c := tcell.GetColor(hex)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
