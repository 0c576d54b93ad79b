// Package tui renders engine snapshots with tview. The views hold no
// domain state: every key press becomes a navigation event submitted to
// the engine, and every redraw starts from the snapshot the engine hands
// back.
package tui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/roeyazroel/linear-dash/internal/config"
	"github.com/roeyazroel/linear-dash/internal/engine"
	"github.com/roeyazroel/linear-dash/internal/linearapi"
	"github.com/roeyazroel/linear-dash/internal/logger"
	"github.com/roeyazroel/linear-dash/internal/nav"
	"github.com/roeyazroel/linear-dash/internal/store"
)

// detailsWrapWidth is the word wrap applied to markdown in the details
// pane. The pane is a third of the screen, so a fixed wrap reads fine on
// common terminal widths.
const detailsWrapWidth = 80

// App is the terminal frontend.
type App struct {
	app       *tview.Application
	eng       *engine.Engine
	config    config.Config
	theme     Theme
	themeTags ThemeTags

	pages        *tview.Pages
	contentPages *tview.Pages
	mainLayout   *tview.Flex
	contentFlex  *tview.Flex

	overview      *tview.TextView
	teamsTable    *tview.Table
	issuesTable   *tview.Table
	projectsTable *tview.Table
	detailsView   *tview.TextView
	statusBar     *tview.TextView
	helpView      *tview.TextView

	markdown *glamour.TermRenderer

	detailsVisible bool

	// Overridable in tests.
	queueUpdateDraw func(func())

	// UI update mutex (for test safety when queueUpdateDraw executes immediately)
	uiUpdateMu sync.Mutex
}

// NewApp creates the terminal frontend and registers it as the engine's
// renderer.
func NewApp(eng *engine.Engine, cfg config.Config) *App {
	theme := ResolveTheme(cfg.Theme)

	a := &App{
		app:       tview.NewApplication(),
		eng:       eng,
		config:    cfg,
		theme:     theme,
		themeTags: NewThemeTags(theme),
		pages:     tview.NewPages(),
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(theme.Name),
		glamour.WithWordWrap(detailsWrapWidth),
	)
	if err != nil {
		logger.Warning("tui.app: markdown renderer unavailable error=%v", err)
	} else {
		a.markdown = md
	}

	a.queueUpdateDraw = func(f func()) {
		a.app.QueueUpdateDraw(f)
	}

	a.applyThemeStyles()
	a.buildLayout()
	a.bindGlobalKeys()

	if eng != nil {
		eng.SetRenderer(a)
	}

	return a
}

// Run starts the terminal UI and blocks until it exits.
func (a *App) Run() error {
	a.app.SetRoot(a.pages, true).EnableMouse(true)
	return a.app.Run()
}

// Stop ends the terminal UI. Safe to call from any goroutine.
func (a *App) Stop() {
	a.app.Stop()
}

func (a *App) applyThemeStyles() {
	tview.Styles.PrimitiveBackgroundColor = a.theme.Background
	tview.Styles.ContrastBackgroundColor = a.theme.Background
	tview.Styles.MoreContrastBackgroundColor = a.theme.HeaderBg
	tview.Styles.BorderColor = a.theme.Border
	tview.Styles.TitleColor = a.theme.Foreground
	tview.Styles.GraphicsColor = a.theme.Border
	tview.Styles.PrimaryTextColor = a.theme.Foreground
	tview.Styles.SecondaryTextColor = a.theme.SecondaryText
	tview.Styles.TertiaryTextColor = a.theme.SecondaryText
	tview.Styles.InverseTextColor = a.theme.Background
	tview.Styles.ContrastSecondaryTextColor = a.theme.SecondaryText
}

func (a *App) buildLayout() {
	a.overview = a.buildOverview()
	a.teamsTable = a.buildTable(" Teams ")
	a.issuesTable = a.buildTable(" Issues ")
	a.projectsTable = a.buildTable(" Projects ")
	a.detailsView = a.buildDetailsView()
	a.statusBar = a.buildStatusBar()
	a.helpView = a.buildHelpView()

	a.contentPages = tview.NewPages()
	a.contentPages.AddPage(pageForView(nav.ViewIssues), a.issuesTable, true, true)
	a.contentPages.AddPage(pageForView(nav.ViewProjects), a.projectsTable, true, false)
	a.contentPages.AddPage(pageForView(nav.ViewTeams), a.teamsTable, true, false)

	// Horizontal split: overview (20%) | active view (50%) | details (30%).
	// The details pane is attached only while toggled on.
	a.contentFlex = tview.NewFlex().
		AddItem(a.overview, 0, 2, false).
		AddItem(a.contentPages, 0, 5, true)

	a.mainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.contentFlex, 0, 1, true).
		AddItem(a.statusBar, 1, 1, false)

	a.pages.AddPage("main", a.mainLayout, true, true)
	a.pages.AddPage("help", centered(a.helpView, 58, 20), true, false)
}

// bindGlobalKeys routes every bound key through the engine. Unbound keys
// fall through to the focused widget.
func (a *App) bindGlobalKeys() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		ev, ok := DecodeKey(event)
		if !ok {
			return event
		}
		a.eng.Submit(ev)
		return nil
	})
}

// Render implements engine.Renderer. It is called from the engine
// goroutine and hands the snapshot to the UI thread.
func (a *App) Render(snap engine.Snapshot) {
	a.QueueUpdateDraw(func() {
		a.apply(snap)
	})
}

// QueueUpdateDraw schedules a UI update on the tview event loop.
func (a *App) QueueUpdateDraw(f func()) {
	if a.queueUpdateDraw != nil {
		// Serialize UI updates when a test overrides queueUpdateDraw to
		// execute immediately.
		a.uiUpdateMu.Lock()
		defer a.uiUpdateMu.Unlock()
		a.queueUpdateDraw(f)
		return
	}
	a.app.QueueUpdateDraw(f)
}

// apply redraws every pane from the snapshot. Runs on the UI thread.
func (a *App) apply(snap engine.Snapshot) {
	var rows [3]int
	rows[nav.ViewIssues] = len(snap.Issues)
	rows[nav.ViewProjects] = len(snap.Projects)
	rows[nav.ViewTeams] = len(snap.Teams)

	a.contentPages.SwitchToPage(pageForView(snap.State.View))
	a.renderTeams(snap, snap.State.CursorFor(nav.ViewTeams, rows))
	a.renderIssues(snap, snap.State.CursorFor(nav.ViewIssues, rows))
	a.renderProjects(snap, snap.State.CursorFor(nav.ViewProjects, rows))
	a.renderOverview(snap)

	a.setDetailsVisible(snap.State.ShowDetails)
	if snap.State.ShowDetails {
		a.renderDetails(snap, rows)
	}

	a.updatePaneFocus(snap.State.View)
	a.updateStatusBar(snap)

	if snap.State.ShowHelp {
		a.pages.ShowPage("help")
	} else {
		a.pages.HidePage("help")
	}
}

func (a *App) setDetailsVisible(visible bool) {
	if visible == a.detailsVisible {
		return
	}
	a.detailsVisible = visible
	if visible {
		a.contentFlex.AddItem(a.detailsView, 0, 3, false)
	} else {
		a.contentFlex.RemoveItem(a.detailsView)
	}
}

func (a *App) updatePaneFocus(v nav.View) {
	var tables [3]*tview.Table
	tables[nav.ViewIssues] = a.issuesTable
	tables[nav.ViewProjects] = a.projectsTable
	tables[nav.ViewTeams] = a.teamsTable

	for i, table := range tables {
		if nav.View(i) == v {
			table.SetBorderColor(a.theme.BorderFocus)
		} else {
			table.SetBorderColor(a.theme.Border)
		}
	}
	a.app.SetFocus(tables[v])
}

func (a *App) buildTable(title string) *tview.Table {
	table := tview.NewTable()
	table.SetFixed(1, 0)
	table.SetSelectable(true, false)
	table.SetBorder(true)
	table.SetTitle(title)
	table.SetTitleAlign(tview.AlignLeft)
	a.applyTableTheme(table)
	return table
}

func (a *App) applyTableTheme(table *tview.Table) {
	table.SetTitleColor(a.theme.Foreground).
		SetBorderColor(a.theme.Border).
		SetBackgroundColor(a.theme.Background)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(a.theme.SelectionText).
		Background(a.theme.SelectionBg).
		Bold(true))
}

func (a *App) buildOverview() *tview.TextView {
	tv := tview.NewTextView()
	tv.SetDynamicColors(true)
	tv.SetWrap(false)
	tv.SetBorder(true)
	tv.SetTitle(" Overview ")
	tv.SetTitleAlign(tview.AlignLeft)
	tv.SetBorderPadding(0, 0, 1, 1)
	tv.SetTitleColor(a.theme.Foreground).
		SetBorderColor(a.theme.Border).
		SetBackgroundColor(a.theme.Background)
	return tv
}

func (a *App) buildDetailsView() *tview.TextView {
	tv := tview.NewTextView()
	tv.SetDynamicColors(true)
	tv.SetWrap(true)
	tv.SetBorder(true)
	tv.SetTitle(" Details ")
	tv.SetTitleAlign(tview.AlignLeft)
	tv.SetBorderPadding(0, 0, 1, 1)
	tv.SetTitleColor(a.theme.Foreground).
		SetBorderColor(a.theme.Border).
		SetBackgroundColor(a.theme.Background)
	return tv
}

func (a *App) buildStatusBar() *tview.TextView {
	bar := tview.NewTextView()
	bar.SetDynamicColors(true)
	bar.SetBackgroundColor(a.theme.HeaderBg)
	return bar
}

func (a *App) buildHelpView() *tview.TextView {
	tv := tview.NewTextView()
	tv.SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetTitle(" Help ")
	tv.SetTitleAlign(tview.AlignLeft)
	tv.SetBorderPadding(1, 1, 2, 2)
	tv.SetTitleColor(a.theme.Foreground).
		SetBorderColor(a.theme.BorderFocus).
		SetBackgroundColor(a.theme.Background)
	tv.SetText(a.helpText())
	return tv
}

// updateStatusBar rebuilds the bar: selected team, sync state of the
// active view, the most pressing failure if any, then key hints.
func (a *App) updateStatusBar(snap engine.Snapshot) {
	teamText := fmt.Sprintf("%sno team[-]", a.themeTags.SecondaryText)
	if snap.TeamName != "" {
		teamText = fmt.Sprintf("%s%s[-]", a.themeTags.Accent, truncate(snap.TeamName, 24))
	}

	name, st := activeStatus(snap)
	var syncText string
	switch {
	case st.InFlight:
		syncText = fmt.Sprintf("%s%s: syncing...[-]", a.themeTags.SecondaryText, name)
	case st.FetchedAt.IsZero():
		syncText = fmt.Sprintf("%s%s: no data[-]", a.themeTags.SecondaryText, name)
	default:
		tag := a.themeTags.SecondaryText
		if st.Freshness == store.FreshnessFresh {
			tag = a.themeTags.Success
		}
		syncText = fmt.Sprintf("%s%s: synced %s[-]", tag, name, formatAge(st.FetchedAt, snap.Now))
	}

	parts := []string{teamText, syncText}
	if banner := a.statusBanner(snap); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, fmt.Sprintf("%s%s[-]", a.themeTags.SecondaryText, viewHints(snap.State.View)))

	sep := fmt.Sprintf("%s | [-]", a.themeTags.Border)

	text := parts[0]
	for i := 1; i < len(parts); i++ {
		text += sep + parts[i]
	}

	a.statusBar.SetText(text)
}

// statusBanner reports the first failing key, active view first, so stale
// data on screen is always explained.
func (a *App) statusBanner(snap engine.Snapshot) string {
	type keyState struct {
		name string
		st   engine.KeyStatus
	}

	active, activeSt := activeStatus(snap)
	states := []keyState{{active, activeSt}}
	for _, ks := range []keyState{
		{"teams", snap.TeamsStatus},
		{"issues", snap.IssuesStatus},
		{"projects", snap.ProjectsStatus},
	} {
		if ks.name != active {
			states = append(states, ks)
		}
	}

	for _, ks := range states {
		if ks.st.Err == nil {
			continue
		}

		var apiErr *linearapi.APIError
		isAPI := errors.As(ks.st.Err, &apiErr)
		if isAPI && apiErr.Kind == linearapi.ErrorRateLimited && ks.st.RetryAt.After(snap.Now) {
			return fmt.Sprintf("%s%s: rate limited, retrying in %s[-]",
				a.themeTags.Warning, ks.name, formatCompact(ks.st.RetryAt.Sub(snap.Now)))
		}

		reason := ks.st.Err.Error()
		if isAPI {
			reason = apiErr.Kind.String()
		}
		if !ks.st.FetchedAt.IsZero() {
			return fmt.Sprintf("%s%s stale %s, last refresh failed: %s[-]",
				a.themeTags.Warning, ks.name, formatCompact(snap.Now.Sub(ks.st.FetchedAt)), reason)
		}
		return fmt.Sprintf("%s%s: last refresh failed: %s[-]", a.themeTags.Error, ks.name, reason)
	}

	return ""
}

// activeStatus returns the display name and sync status of the active
// view's backing key.
func activeStatus(snap engine.Snapshot) (string, engine.KeyStatus) {
	switch snap.State.View {
	case nav.ViewProjects:
		return "projects", snap.ProjectsStatus
	case nav.ViewTeams:
		return "teams", snap.TeamsStatus
	default:
		return "issues", snap.IssuesStatus
	}
}

func viewHints(v nav.View) string {
	switch v {
	case nav.ViewTeams:
		return "1/2/3: views | j/k: move | Enter: select team | r: refresh | ?: help | q: quit"
	case nav.ViewProjects:
		return "1/2/3: views | j/k: move | r: refresh | ?: help | q: quit"
	default:
		return "1/2/3: views | j/k: move | d: details | v: open | y: copy | ?: help | q: quit"
	}
}

func pageForView(v nav.View) string {
	switch v {
	case nav.ViewProjects:
		return "projects"
	case nav.ViewTeams:
		return "teams"
	default:
		return "issues"
	}
}

// centered wraps a primitive in spacers so it floats over the main layout.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
