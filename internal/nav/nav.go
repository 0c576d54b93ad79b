// Package nav is the dashboard's navigation state machine.
//
// State is a value; Transition is a pure, total function from a state and
// an input event to the next state plus the side effect the event loop
// should perform. Nothing here touches the terminal, the network, or the
// clock, which keeps every transition testable as a plain function call.
package nav

// View identifies one of the dashboard's three screens.
type View int

// The views, in the order Tab cycles through them.
const (
	ViewIssues View = iota
	ViewProjects
	ViewTeams
)

// String returns the view's display name.
func (v View) String() string {
	switch v {
	case ViewIssues:
		return "Issues"
	case ViewProjects:
		return "Projects"
	case ViewTeams:
		return "Teams"
	default:
		return "Unknown"
	}
}

func (v View) next() View {
	return (v + 1) % 3
}

func (v View) prev() View {
	return (v + 2) % 3
}

// Event is a user intent, already decoded from a key press.
type Event int

// The events a transition understands.
const (
	EvUp Event = iota
	EvDown
	EvNextView
	EvPrevView
	EvGotoIssues
	EvGotoProjects
	EvGotoTeams
	EvSelect
	EvRefresh
	EvToggleHelp
	EvToggleDetails
	EvOpenBrowser
	EvCopyID
	EvQuit
)

// Action tells the event loop what side effect a transition calls for.
type Action int

const (
	// ActionNone means the transition was pure state.
	ActionNone Action = iota
	// ActionQuit ends the session.
	ActionQuit
	// ActionRefresh re-fetches the active view's backing data.
	ActionRefresh
	// ActionSelectTeam means TeamID changed; caches for it must be
	// invalidated and refetched.
	ActionSelectTeam
	// ActionOpenSelected opens the selected issue in the browser.
	ActionOpenSelected
	// ActionCopySelected copies the selected issue's identifier.
	ActionCopySelected
)

// State is the complete navigation state.
type State struct {
	// View is the active screen.
	View View
	// TeamID is the selected team, empty when none is selected yet.
	TeamID string
	// Cursor holds each view's selected row. The stored value may exceed
	// the current list length; it is clamped at use time so a selection
	// survives a temporary shrink.
	Cursor [3]int
	// ShowHelp is whether the help overlay is open. While open it absorbs
	// every event except EvToggleHelp and EvQuit.
	ShowHelp bool
	// ShowDetails is whether the issue details pane is open.
	ShowDetails bool
}

// Env is the read-only world state a transition consults: each view's row
// count and the team id under the Teams cursor.
type Env struct {
	Rows   [3]int
	TeamAt string
}

// Initial returns the state a fresh session starts in: the Issues view
// with no team selected.
func Initial() State {
	return State{View: ViewIssues}
}

// CursorFor returns the row the view should highlight, clamped to the
// current list length.
func (s State) CursorFor(v View, rows [3]int) int {
	return clamp(s.Cursor[v], rows[v])
}

// clamp keeps i inside [0, n). Empty lists clamp to 0.
func clamp(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Transition applies ev to s and returns the next state plus the action
// the caller should perform. Selection moves clamp at the list edges
// rather than wrapping.
func Transition(s State, ev Event, env Env) (State, Action) {
	if s.ShowHelp {
		switch ev {
		case EvToggleHelp:
			s.ShowHelp = false
		case EvQuit:
			return s, ActionQuit
		}
		return s, ActionNone
	}

	switch ev {
	case EvQuit:
		return s, ActionQuit

	case EvToggleHelp:
		s.ShowHelp = true

	case EvUp:
		s.Cursor[s.View] = clamp(s.CursorFor(s.View, env.Rows)-1, env.Rows[s.View])

	case EvDown:
		s.Cursor[s.View] = clamp(s.CursorFor(s.View, env.Rows)+1, env.Rows[s.View])

	case EvGotoIssues:
		s.View = ViewIssues
	case EvGotoProjects:
		s.View = ViewProjects
	case EvGotoTeams:
		s.View = ViewTeams
	case EvNextView:
		s.View = s.View.next()
	case EvPrevView:
		s.View = s.View.prev()

	case EvSelect:
		if s.View == ViewTeams && env.TeamAt != "" {
			s.TeamID = env.TeamAt
			s.View = ViewIssues
			return s, ActionSelectTeam
		}

	case EvRefresh:
		return s, ActionRefresh

	case EvToggleDetails:
		if s.View == ViewIssues {
			s.ShowDetails = !s.ShowDetails
		}

	case EvOpenBrowser:
		if s.View == ViewIssues && env.Rows[ViewIssues] > 0 {
			return s, ActionOpenSelected
		}

	case EvCopyID:
		if s.View == ViewIssues && env.Rows[ViewIssues] > 0 {
			return s, ActionCopySelected
		}
	}

	return s, ActionNone
}
