package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/roeyazroel/linear-dash/internal/nav"
)

// DecodeKey translates a terminal key event into a navigation event.
// The second return is false for keys the dashboard does not bind;
// those pass through to the focused widget untouched.
func DecodeKey(event *tcell.EventKey) (nav.Event, bool) {
	switch event.Key() {
	case tcell.KeyCtrlC:
		return nav.EvQuit, true
	case tcell.KeyTab, tcell.KeyBacktab:
		isBackward := event.Key() == tcell.KeyBacktab || event.Modifiers()&tcell.ModShift != 0
		if isBackward {
			return nav.EvPrevView, true
		}
		return nav.EvNextView, true
	case tcell.KeyDown:
		return nav.EvDown, true
	case tcell.KeyUp:
		return nav.EvUp, true
	case tcell.KeyEnter:
		return nav.EvSelect, true
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			return nav.EvQuit, true
		case '1':
			return nav.EvGotoIssues, true
		case '2':
			return nav.EvGotoProjects, true
		case '3':
			return nav.EvGotoTeams, true
		case 'j':
			return nav.EvDown, true
		case 'k':
			return nav.EvUp, true
		case 'r':
			return nav.EvRefresh, true
		case 'd':
			return nav.EvToggleDetails, true
		case 'v':
			return nav.EvOpenBrowser, true
		case 'y':
			return nav.EvCopyID, true
		case '?':
			return nav.EvToggleHelp, true
		}
	}
	return nav.EvUp, false
}
