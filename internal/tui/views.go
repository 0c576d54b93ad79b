package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/roeyazroel/linear-dash/internal/engine"
	"github.com/roeyazroel/linear-dash/internal/linearapi"
	"github.com/roeyazroel/linear-dash/internal/logger"
	"github.com/roeyazroel/linear-dash/internal/nav"
)

// stateTypeOrder is the display order for workflow state types.
var stateTypeOrder = []struct{ key, label string }{
	{"backlog", "Backlog"},
	{"unstarted", "Unstarted"},
	{"started", "Started"},
	{"completed", "Completed"},
	{"canceled", "Canceled"},
}

// projectStatusOrder is the display order for project status types.
var projectStatusOrder = []struct{ key, label string }{
	{"backlog", "Backlog"},
	{"planned", "Planned"},
	{"started", "Started"},
	{"paused", "Paused"},
	{"completed", "Completed"},
	{"canceled", "Canceled"},
}

func (a *App) renderTeams(snap engine.Snapshot, cursor int) {
	table := a.teamsTable
	table.Clear()
	a.setTableHeaders(table, "KEY", "NAME", "DESCRIPTION")

	if len(snap.Teams) == 0 {
		a.setPlaceholderRow(table, teamsPlaceholder(snap))
		table.SetTitle(" Teams ")
		return
	}

	for i, team := range snap.Teams {
		row := i + 1
		table.SetCell(row, 0, tview.NewTableCell(team.Key).
			SetTextColor(a.theme.Accent))
		table.SetCell(row, 1, tview.NewTableCell(tview.Escape(team.Name)).
			SetTextColor(a.theme.Foreground).
			SetMaxWidth(28))
		table.SetCell(row, 2, tview.NewTableCell(tview.Escape(team.Description)).
			SetTextColor(a.theme.SecondaryText).
			SetMaxWidth(56).
			SetExpansion(1))
	}

	table.SetTitle(fmt.Sprintf(" Teams (%d) ", len(snap.Teams)))
	a.selectRow(table, cursor)
}

func (a *App) renderIssues(snap engine.Snapshot, cursor int) {
	table := a.issuesTable
	table.Clear()
	a.setTableHeaders(table, "ID", "TITLE", "STATE", "PRIORITY", "ASSIGNEE", "UPDATED")

	if len(snap.Issues) == 0 {
		a.setPlaceholderRow(table, issuesPlaceholder(snap))
		table.SetTitle(" Issues ")
		return
	}

	for i, issue := range snap.Issues {
		row := i + 1
		stateColor := apiColor(issue.State.Color, a.theme.StateColor(issue.State.Type))
		assignee := issue.Assignee
		assigneeColor := a.theme.Foreground
		if assignee == "" {
			assignee = "Unassigned"
			assigneeColor = a.theme.SecondaryText
		}

		table.SetCell(row, 0, tview.NewTableCell(issue.Identifier).
			SetTextColor(a.theme.Accent))
		table.SetCell(row, 1, tview.NewTableCell(tview.Escape(issue.Title)).
			SetTextColor(a.theme.Foreground).
			SetMaxWidth(56).
			SetExpansion(1))
		table.SetCell(row, 2, tview.NewTableCell(tview.Escape(issue.State.Name)).
			SetTextColor(stateColor))
		table.SetCell(row, 3, tview.NewTableCell(issue.Priority.String()).
			SetTextColor(a.theme.PriorityColor(issue.Priority)))
		table.SetCell(row, 4, tview.NewTableCell(tview.Escape(assignee)).
			SetTextColor(assigneeColor).
			SetMaxWidth(18))
		table.SetCell(row, 5, tview.NewTableCell(formatAge(issue.UpdatedAt, snap.Now)).
			SetTextColor(a.theme.SecondaryText))
	}

	title := fmt.Sprintf(" Issues (%d) ", len(snap.Issues))
	if snap.TeamName != "" {
		title = fmt.Sprintf(" Issues: %s (%d) ", truncate(snap.TeamName, 20), len(snap.Issues))
	}
	table.SetTitle(title)
	a.selectRow(table, cursor)
}

func (a *App) renderProjects(snap engine.Snapshot, cursor int) {
	table := a.projectsTable
	table.Clear()
	a.setTableHeaders(table, "NAME", "STATUS", "LEAD", "TARGET", "DESCRIPTION")

	if len(snap.Projects) == 0 {
		a.setPlaceholderRow(table, projectsPlaceholder(snap))
		table.SetTitle(" Projects ")
		return
	}

	for i, project := range snap.Projects {
		row := i + 1
		statusColor := apiColor(project.Status.Color, a.theme.ProjectStatusColor(project.Status.Type))
		lead := project.Lead
		leadColor := a.theme.Foreground
		if lead == "" {
			lead = "No lead"
			leadColor = a.theme.SecondaryText
		}
		target := "No date"
		targetColor := a.theme.SecondaryText
		if !project.TargetDate.IsZero() {
			target = project.TargetDate.Format("2006-01-02")
			targetColor = a.theme.Foreground
		}

		table.SetCell(row, 0, tview.NewTableCell(tview.Escape(project.Name)).
			SetTextColor(a.theme.Foreground).
			SetMaxWidth(32))
		table.SetCell(row, 1, tview.NewTableCell(tview.Escape(project.Status.Name)).
			SetTextColor(statusColor))
		table.SetCell(row, 2, tview.NewTableCell(tview.Escape(lead)).
			SetTextColor(leadColor).
			SetMaxWidth(18))
		table.SetCell(row, 3, tview.NewTableCell(target).
			SetTextColor(targetColor))
		table.SetCell(row, 4, tview.NewTableCell(tview.Escape(project.Description)).
			SetTextColor(a.theme.SecondaryText).
			SetMaxWidth(48).
			SetExpansion(1))
	}

	title := fmt.Sprintf(" Projects (%d) ", len(snap.Projects))
	if snap.TeamName != "" {
		title = fmt.Sprintf(" Projects: %s (%d) ", truncate(snap.TeamName, 20), len(snap.Projects))
	}
	table.SetTitle(title)
	a.selectRow(table, cursor)
}

func (a *App) setTableHeaders(table *tview.Table, names ...string) {
	for col, name := range names {
		table.SetCell(0, col, tview.NewTableCell(name).
			SetTextColor(a.theme.SecondaryText).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
}

func (a *App) selectRow(table *tview.Table, cursor int) {
	table.SetSelectable(true, false)
	table.Select(cursor+1, 0)
}

// setPlaceholderRow renders a hint instead of data and disables the
// selection highlight so the hint does not look like a row.
func (a *App) setPlaceholderRow(table *tview.Table, text string) {
	table.SetSelectable(false, false)
	table.SetCell(1, 0, tview.NewTableCell(text).
		SetTextColor(a.theme.SecondaryText).
		SetSelectable(false))
}

func teamsPlaceholder(snap engine.Snapshot) string {
	st := snap.TeamsStatus
	switch {
	case st.InFlight && st.FetchedAt.IsZero():
		return "Loading teams..."
	case st.Err != nil && st.FetchedAt.IsZero():
		return "Could not load teams"
	default:
		return "No teams"
	}
}

func issuesPlaceholder(snap engine.Snapshot) string {
	if snap.State.TeamID == "" {
		return "Select a team first (press 3)"
	}
	st := snap.IssuesStatus
	switch {
	case st.InFlight && st.FetchedAt.IsZero():
		return "Loading issues..."
	case st.Err != nil && st.FetchedAt.IsZero():
		return "Could not load issues"
	default:
		return "No issues"
	}
}

func projectsPlaceholder(snap engine.Snapshot) string {
	if snap.State.TeamID == "" {
		return "Select a team first (press 3)"
	}
	st := snap.ProjectsStatus
	switch {
	case st.InFlight && st.FetchedAt.IsZero():
		return "Loading projects..."
	case st.Err != nil && st.FetchedAt.IsZero():
		return "Could not load projects"
	default:
		return "No projects"
	}
}

// renderOverview summarizes the active view: issue counts by state type
// and priority, project counts by status type, or the team count.
func (a *App) renderOverview(snap engine.Snapshot) {
	tags := a.themeTags
	var b strings.Builder

	switch snap.State.View {
	case nav.ViewIssues:
		a.writeTeamLine(&b, snap)

		fmt.Fprintf(&b, "%sBy state[-]\n", tags.SecondaryText)
		stateCounts := make(map[string]int)
		for _, issue := range snap.Issues {
			stateCounts[issue.State.Type]++
		}
		for _, st := range stateTypeOrder {
			fmt.Fprintf(&b, " %s%-10s[-] %d\n",
				colorTag(a.theme.StateColor(st.key)), st.label, stateCounts[st.key])
		}

		fmt.Fprintf(&b, "\n%sBy priority[-]\n", tags.SecondaryText)
		var prioCounts [5]int
		for _, issue := range snap.Issues {
			if issue.Priority >= 0 && int(issue.Priority) < len(prioCounts) {
				prioCounts[issue.Priority]++
			}
		}
		for p := linearapi.PriorityUrgent; p >= linearapi.PriorityNone; p-- {
			fmt.Fprintf(&b, " %s%-10s[-] %d\n",
				colorTag(a.theme.PriorityColor(p)), p.String(), prioCounts[p])
		}

		fmt.Fprintf(&b, "\n%s%d issues[-]", tags.Foreground, len(snap.Issues))

	case nav.ViewProjects:
		a.writeTeamLine(&b, snap)

		fmt.Fprintf(&b, "%sBy status[-]\n", tags.SecondaryText)
		statusCounts := make(map[string]int)
		for _, project := range snap.Projects {
			statusCounts[project.Status.Type]++
		}
		for _, st := range projectStatusOrder {
			fmt.Fprintf(&b, " %s%-10s[-] %d\n",
				colorTag(a.theme.ProjectStatusColor(st.key)), st.label, statusCounts[st.key])
		}

		fmt.Fprintf(&b, "\n%s%d projects[-]", tags.Foreground, len(snap.Projects))

	case nav.ViewTeams:
		fmt.Fprintf(&b, "%sWorkspace[-]\n", tags.SecondaryText)
		fmt.Fprintf(&b, " %s%d teams[-]\n\n", tags.Foreground, len(snap.Teams))
		fmt.Fprintf(&b, "%sEnter selects a team and[-]\n", tags.SecondaryText)
		fmt.Fprintf(&b, "%sloads its issues.[-]", tags.SecondaryText)
	}

	a.overview.SetText(b.String())
}

func (a *App) writeTeamLine(b *strings.Builder, snap engine.Snapshot) {
	if snap.TeamName != "" {
		fmt.Fprintf(b, "%s%s[-]\n\n", a.themeTags.Accent, tview.Escape(truncate(snap.TeamName, 22)))
		return
	}
	fmt.Fprintf(b, "%sno team selected[-]\n\n", a.themeTags.SecondaryText)
}

// renderDetails fills the details pane for the selected row of the
// active view.
func (a *App) renderDetails(snap engine.Snapshot, rows [3]int) {
	var text string

	switch snap.State.View {
	case nav.ViewIssues:
		if len(snap.Issues) == 0 {
			text = fmt.Sprintf("%sNothing selected.[-]", a.themeTags.SecondaryText)
			break
		}
		issue := snap.Issues[snap.State.CursorFor(nav.ViewIssues, rows)]
		text = a.issueDetails(issue, snap.Now)
	case nav.ViewProjects:
		if len(snap.Projects) == 0 {
			text = fmt.Sprintf("%sNothing selected.[-]", a.themeTags.SecondaryText)
			break
		}
		text = a.projectDetails(snap.Projects[snap.State.CursorFor(nav.ViewProjects, rows)])
	case nav.ViewTeams:
		if len(snap.Teams) == 0 {
			text = fmt.Sprintf("%sNothing selected.[-]", a.themeTags.SecondaryText)
			break
		}
		text = a.teamDetails(snap.Teams[snap.State.CursorFor(nav.ViewTeams, rows)])
	}

	a.detailsView.SetText(text)
	a.detailsView.ScrollToBeginning()
}

func (a *App) issueDetails(issue linearapi.Issue, now time.Time) string {
	tags := a.themeTags
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s[-] %s\n\n", tags.Accent, issue.Identifier, tview.Escape(issue.Title))

	stateTag := colorTag(apiColor(issue.State.Color, a.theme.StateColor(issue.State.Type)))
	fmt.Fprintf(&b, "%sState[-]     %s%s[-]\n", tags.SecondaryText, stateTag, tview.Escape(issue.State.Name))
	fmt.Fprintf(&b, "%sPriority[-]  %s%s[-]\n", tags.SecondaryText,
		colorTag(a.theme.PriorityColor(issue.Priority)), issue.Priority)

	assignee := issue.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	fmt.Fprintf(&b, "%sAssignee[-]  %s\n", tags.SecondaryText, tview.Escape(assignee))
	if issue.Creator != "" {
		fmt.Fprintf(&b, "%sCreator[-]   %s\n", tags.SecondaryText, tview.Escape(issue.Creator))
	}
	fmt.Fprintf(&b, "%sUpdated[-]   %s\n", tags.SecondaryText, formatAge(issue.UpdatedAt, now))

	fmt.Fprintf(&b, "\n%s\n", a.renderMarkdown(issue.Description))

	if issue.URL != "" {
		fmt.Fprintf(&b, "\n%s%s[-]", tags.SecondaryText, tview.Escape(issue.URL))
	}

	return b.String()
}

func (a *App) projectDetails(project linearapi.Project) string {
	tags := a.themeTags
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s[-]\n\n", tags.Accent, tview.Escape(project.Name))

	statusTag := colorTag(apiColor(project.Status.Color, a.theme.ProjectStatusColor(project.Status.Type)))
	fmt.Fprintf(&b, "%sStatus[-]  %s%s[-]\n", tags.SecondaryText, statusTag, tview.Escape(project.Status.Name))

	lead := project.Lead
	if lead == "" {
		lead = "No lead"
	}
	fmt.Fprintf(&b, "%sLead[-]    %s\n", tags.SecondaryText, tview.Escape(lead))

	if !project.TargetDate.IsZero() {
		fmt.Fprintf(&b, "%sTarget[-]  %s\n", tags.SecondaryText, project.TargetDate.Format("2006-01-02"))
	}

	fmt.Fprintf(&b, "\n%s", a.renderMarkdown(project.Description))

	return b.String()
}

func (a *App) teamDetails(team linearapi.Team) string {
	tags := a.themeTags
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s[-] %s\n\n", tags.Accent, team.Key, tview.Escape(team.Name))
	fmt.Fprintf(&b, "%s", a.renderMarkdown(team.Description))

	return b.String()
}

// renderMarkdown renders markdown for the details pane, degrading to
// escaped plain text when the renderer is unavailable.
func (a *App) renderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return fmt.Sprintf("%sNo description.[-]", a.themeTags.SecondaryText)
	}
	if a.markdown == nil {
		return tview.Escape(src)
	}
	out, err := a.markdown.Render(src)
	if err != nil {
		logger.Warning("tui.views: markdown render failed error=%v", err)
		return tview.Escape(src)
	}
	return tview.TranslateANSI(out)
}

func (a *App) helpText() string {
	key := a.themeTags.Accent
	dim := a.themeTags.SecondaryText
	var b strings.Builder

	fmt.Fprintf(&b, "%sNavigation[-]\n", dim)
	fmt.Fprintf(&b, "  %s1 / 2 / 3[-]        issues, projects, teams\n", key)
	fmt.Fprintf(&b, "  %sTab / Shift-Tab[-]  cycle views\n", key)
	fmt.Fprintf(&b, "  %sj / k, arrows[-]    move selection\n", key)
	fmt.Fprintf(&b, "  %sEnter[-]            select team (teams view)\n", key)
	fmt.Fprintf(&b, "\n%sData[-]\n", dim)
	fmt.Fprintf(&b, "  %sr[-]                refresh the active view\n", key)
	fmt.Fprintf(&b, "  %sd[-]                toggle the details pane\n", key)
	fmt.Fprintf(&b, "  %sv[-]                open selected issue in browser\n", key)
	fmt.Fprintf(&b, "  %sy[-]                copy issue identifier\n", key)
	fmt.Fprintf(&b, "\n%sGeneral[-]\n", dim)
	fmt.Fprintf(&b, "  %s?[-]                toggle this help\n", key)
	fmt.Fprintf(&b, "  %sq / Ctrl-C[-]       quit\n", key)

	return b.String()
}
