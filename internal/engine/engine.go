// Package engine runs the dashboard's event loop.
//
// One goroutine owns the navigation state, the stores, and the scheduler.
// It selects over operator events, fetch completions, and a timer tick, so
// no source can starve another. Fetches run in their own goroutines and
// report back through the completions channel; the loop is the only place
// results are applied. After every change the loop hands the renderer an
// immutable snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/roeyazroel/linear-dash/internal/linearapi"
	"github.com/roeyazroel/linear-dash/internal/logger"
	"github.com/roeyazroel/linear-dash/internal/nav"
	"github.com/roeyazroel/linear-dash/internal/sched"
	"github.com/roeyazroel/linear-dash/internal/store"
)

// Config holds the engine's tunables.
type Config struct {
	// RefreshInterval is how long fetched data counts as fresh.
	RefreshInterval time.Duration
	// Tick is the cadence of the scheduler check (defaults to 1s).
	Tick time.Duration
	// DefaultTeamID, when set, is selected automatically once the teams
	// list first loads and contains it.
	DefaultTeamID string
}

// Renderer receives a snapshot after every state change. Render is called
// from the engine goroutine; implementations must hand off to their own UI
// thread (the tview renderer uses QueueUpdateDraw).
type Renderer interface {
	Render(Snapshot)
}

// KeyStatus describes the sync state of one cache key for display.
type KeyStatus struct {
	Freshness store.Freshness
	FetchedAt time.Time
	Err       error
	FailedAt  time.Time
	InFlight  bool
	RetryAt   time.Time
}

// Snapshot is a self-contained copy of everything the renderer needs. The
// slices are owned by the receiver.
type Snapshot struct {
	State    nav.State
	Teams    []linearapi.Team
	Issues   []linearapi.Issue
	Projects []linearapi.Project
	// TeamName is the display name of State.TeamID, empty when unknown.
	TeamName string

	TeamsStatus    KeyStatus
	IssuesStatus   KeyStatus
	ProjectsStatus KeyStatus

	// Now is the loop's clock at snapshot time, for rendering ages.
	Now time.Time
}

// completion is the result of one finished fetch, posted back to the loop.
type completion struct {
	key   store.Key
	epoch uint64
	at    time.Time
	err   error

	teams    []linearapi.Team
	issues   []linearapi.Issue
	projects []linearapi.Project
}

// Engine drives synchronization and navigation for one session.
type Engine struct {
	cfg    Config
	stores *store.Stores
	sched  *sched.Scheduler
	state  nav.State

	renderer Renderer

	events      chan nav.Event
	completions chan completion

	defaultTeamPending bool

	// Fetch and side-effect functions, overridable in tests.
	fetchTeams    func(ctx context.Context) ([]linearapi.Team, error)
	fetchIssues   func(ctx context.Context, teamID string) ([]linearapi.Issue, error)
	fetchProjects func(ctx context.Context, teamID string) ([]linearapi.Project, error)
	openURL       func(url string) error
	copyText      func(text string) error
	now           func() time.Time
}

// New creates an engine over the given client, stores, and scheduler. The
// stores and scheduler must not be touched by anyone else once Run starts.
func New(cfg Config, api *linearapi.Client, stores *store.Stores, scheduler *sched.Scheduler) *Engine {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}

	e := &Engine{
		cfg:                cfg,
		stores:             stores,
		sched:              scheduler,
		state:              nav.Initial(),
		events:             make(chan nav.Event, 16),
		completions:        make(chan completion, 8),
		defaultTeamPending: cfg.DefaultTeamID != "",
		openURL:            openBrowser,
		copyText:           clipboard.WriteAll,
		now:                time.Now,
	}

	if api != nil {
		e.fetchTeams = api.ListTeams
		e.fetchIssues = api.FetchIssues
		e.fetchProjects = api.ListProjects
	}

	return e
}

// SetRenderer registers the renderer that receives snapshots.
func (e *Engine) SetRenderer(r Renderer) {
	e.renderer = r
}

// Submit hands an operator event to the loop. Safe to call from other
// goroutines.
func (e *Engine) Submit(ev nav.Event) {
	e.events <- ev
}

// Run drives the session until the operator quits or ctx is canceled. It
// returns an error only when the credential is rejected before any data
// has loaded.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()

	logger.Info("engine: starting interval=%s tick=%s", e.cfg.RefreshInterval, e.cfg.Tick)

	e.checkDue(ctx)
	e.render()

	for {
		select {
		case <-ctx.Done():
			logger.Info("engine: context canceled, stopping")
			return nil

		case ev := <-e.events:
			if quit := e.handleEvent(ctx, ev); quit {
				logger.Info("engine: quit requested")
				return nil
			}

		case c := <-e.completions:
			if err := e.applyCompletion(ctx, c); err != nil {
				return err
			}
			e.render()

		case <-ticker.C:
			e.checkDue(ctx)
			e.render()
		}
	}
}

// neededKeys lists the cache keys the current state depends on: teams
// always, plus the selected team's issues and projects.
func (e *Engine) neededKeys() []store.Key {
	keys := []store.Key{{Class: store.ClassTeams}}
	if e.state.TeamID != "" {
		keys = append(keys,
			store.Key{Class: store.ClassIssues, TeamID: e.state.TeamID},
			store.Key{Class: store.ClassProjects, TeamID: e.state.TeamID},
		)
	}
	return keys
}

// checkDue starts a fetch for every needed key that is not fresh and not
// blocked by the scheduler.
func (e *Engine) checkDue(ctx context.Context) {
	now := e.now()
	for _, key := range e.neededKeys() {
		if e.stores.FreshnessOf(key, now) == store.FreshnessFresh {
			continue
		}
		if !e.sched.StartTick(key, now) {
			continue
		}
		e.launch(ctx, key)
	}
}

// launch runs one fetch in its own goroutine and posts the completion back
// to the loop. The epoch read here is what the store later checks the
// result against.
func (e *Engine) launch(ctx context.Context, key store.Key) {
	epoch := e.stores.EpochOf(key)
	logger.Debug("engine: fetch starting class=%s team=%s epoch=%d", key.Class, key.TeamID, epoch)

	go func() {
		c := completion{key: key, epoch: epoch}
		switch key.Class {
		case store.ClassTeams:
			c.teams, c.err = e.fetchTeams(ctx)
		case store.ClassIssues:
			c.issues, c.err = e.fetchIssues(ctx, key.TeamID)
		case store.ClassProjects:
			c.projects, c.err = e.fetchProjects(ctx, key.TeamID)
		}
		c.at = e.now()

		select {
		case e.completions <- c:
		case <-ctx.Done():
		}
	}()
}

// applyCompletion reports the outcome to the scheduler and offers the
// payload to the store, which rejects anything from before an
// invalidation. A rejected credential before any data has loaded is fatal;
// every other failure just marks the key and stays on screen.
func (e *Engine) applyCompletion(ctx context.Context, c completion) error {
	if c.err != nil {
		var retryAfter time.Duration
		var apiErr *linearapi.APIError
		if errors.As(c.err, &apiErr) {
			retryAfter = apiErr.RetryAfter
		}

		e.sched.Fail(c.key, c.at, retryAfter)
		accepted := e.stores.FailOf(c.key, c.epoch, c.err, c.at)
		logger.Warning("engine: fetch failed class=%s team=%s accepted=%t error=%v", c.key.Class, c.key.TeamID, accepted, c.err)

		if apiErr != nil && apiErr.Kind == linearapi.ErrorUnauthorized && e.stores.Teams.Freshness("", c.at) == store.FreshnessUnknown {
			return fmt.Errorf("api key rejected: %w", c.err)
		}
		return nil
	}

	e.sched.Succeed(c.key, c.at)

	accepted := false
	count := 0
	switch c.key.Class {
	case store.ClassTeams:
		accepted = e.stores.Teams.Commit(c.key.TeamID, c.epoch, c.teams, c.at)
		count = len(c.teams)
		if accepted {
			e.maybeSelectDefaultTeam(ctx, c.teams)
		}
	case store.ClassIssues:
		accepted = e.stores.Issues.Commit(c.key.TeamID, c.epoch, c.issues, c.at)
		count = len(c.issues)
	case store.ClassProjects:
		accepted = e.stores.Projects.Commit(c.key.TeamID, c.epoch, c.projects, c.at)
		count = len(c.projects)
	}

	if accepted {
		logger.Debug("engine: fetch completed class=%s team=%s count=%d", c.key.Class, c.key.TeamID, count)
	} else {
		logger.Debug("engine: stale fetch dropped class=%s team=%s epoch=%d", c.key.Class, c.key.TeamID, c.epoch)
	}
	return nil
}

// maybeSelectDefaultTeam applies the configured default team the first
// time the teams list contains it.
func (e *Engine) maybeSelectDefaultTeam(ctx context.Context, teams []linearapi.Team) {
	if !e.defaultTeamPending {
		return
	}
	e.defaultTeamPending = false

	for _, t := range teams {
		if t.ID == e.cfg.DefaultTeamID {
			logger.Info("engine: default team selected team=%s", t.ID)
			e.state.TeamID = t.ID
			e.selectTeam(ctx, t.ID)
			return
		}
	}
	logger.Warning("engine: configured default team not found team=%s", e.cfg.DefaultTeamID)
}

// handleEvent runs one navigation transition and performs its action.
func (e *Engine) handleEvent(ctx context.Context, ev nav.Event) (quit bool) {
	next, act := nav.Transition(e.state, ev, e.navEnv())
	e.state = next

	switch act {
	case nav.ActionQuit:
		return true

	case nav.ActionRefresh:
		e.manualRefresh(ctx)

	case nav.ActionSelectTeam:
		logger.Info("engine: team selected team=%s", next.TeamID)
		e.selectTeam(ctx, next.TeamID)

	case nav.ActionOpenSelected:
		e.openSelectedIssue()

	case nav.ActionCopySelected:
		e.copySelectedIssue()
	}

	e.render()
	return false
}

// navEnv assembles the world state a transition needs.
func (e *Engine) navEnv() nav.Env {
	var env nav.Env
	env.Rows[nav.ViewIssues] = e.stores.Issues.Len(e.state.TeamID)
	env.Rows[nav.ViewProjects] = e.stores.Projects.Len(e.state.TeamID)

	teams := e.stores.Teams.Get("")
	env.Rows[nav.ViewTeams] = len(teams.Items)
	if len(teams.Items) > 0 {
		env.TeamAt = teams.Items[e.state.CursorFor(nav.ViewTeams, env.Rows)].ID
	}
	return env
}

// selectTeam invalidates the team's caches and kicks off fresh fetches, so
// a fetch still in flight for an earlier selection cannot land.
func (e *Engine) selectTeam(ctx context.Context, teamID string) {
	now := e.now()
	e.stores.Issues.Invalidate(teamID)
	e.stores.Projects.Invalidate(teamID)

	keys := []store.Key{
		{Class: store.ClassIssues, TeamID: teamID},
		{Class: store.ClassProjects, TeamID: teamID},
	}
	for _, key := range keys {
		if e.sched.StartManual(key, now) {
			e.launch(ctx, key)
		}
	}
}

// activeKey maps the current view to the cache key behind it.
func (e *Engine) activeKey() (store.Key, bool) {
	switch e.state.View {
	case nav.ViewTeams:
		return store.Key{Class: store.ClassTeams}, true
	case nav.ViewIssues:
		if e.state.TeamID == "" {
			return store.Key{}, false
		}
		return store.Key{Class: store.ClassIssues, TeamID: e.state.TeamID}, true
	case nav.ViewProjects:
		if e.state.TeamID == "" {
			return store.Key{}, false
		}
		return store.Key{Class: store.ClassProjects, TeamID: e.state.TeamID}, true
	}
	return store.Key{}, false
}

// manualRefresh refreshes the active view's data. It overrides backoff but
// still coalesces with a fetch already in flight.
func (e *Engine) manualRefresh(ctx context.Context) {
	key, ok := e.activeKey()
	if !ok {
		return
	}
	if !e.sched.StartManual(key, e.now()) {
		logger.Debug("engine: refresh coalesced class=%s team=%s", key.Class, key.TeamID)
		return
	}
	logger.Info("engine: manual refresh class=%s team=%s", key.Class, key.TeamID)
	e.launch(ctx, key)
}

// selectedIssue resolves the issue under the cursor.
func (e *Engine) selectedIssue() (linearapi.Issue, bool) {
	res := e.stores.Issues.Get(e.state.TeamID)
	if len(res.Items) == 0 {
		return linearapi.Issue{}, false
	}
	rows := [3]int{}
	rows[nav.ViewIssues] = len(res.Items)
	return res.Items[e.state.CursorFor(nav.ViewIssues, rows)], true
}

func (e *Engine) openSelectedIssue() {
	issue, ok := e.selectedIssue()
	if !ok || issue.URL == "" {
		return
	}
	if err := e.openURL(issue.URL); err != nil {
		logger.ErrorWithErr(err, "engine: open in browser failed issue=%s", issue.Identifier)
		return
	}
	logger.Debug("engine: opened in browser issue=%s", issue.Identifier)
}

func (e *Engine) copySelectedIssue() {
	issue, ok := e.selectedIssue()
	if !ok {
		return
	}
	if err := e.copyText(issue.Identifier); err != nil {
		logger.ErrorWithErr(err, "engine: copy identifier failed issue=%s", issue.Identifier)
		return
	}
	logger.Debug("engine: copied identifier issue=%s", issue.Identifier)
}

// keyStatus collects the display status of one key.
func (e *Engine) keyStatus(key store.Key, now time.Time, fetchedAt time.Time, err error, failedAt time.Time) KeyStatus {
	return KeyStatus{
		Freshness: e.stores.FreshnessOf(key, now),
		FetchedAt: fetchedAt,
		Err:       err,
		FailedAt:  failedAt,
		InFlight:  e.sched.InFlight(key),
		RetryAt:   e.sched.BackoffUntil(key),
	}
}

// snapshot builds the immutable view the renderer consumes.
func (e *Engine) snapshot() Snapshot {
	now := e.now()
	teamID := e.state.TeamID
	teams := e.stores.Teams.Get("")
	issues := e.stores.Issues.Get(teamID)
	projects := e.stores.Projects.Get(teamID)

	snap := Snapshot{
		State:          e.state,
		Teams:          teams.Items,
		Issues:         issues.Items,
		Projects:       projects.Items,
		TeamsStatus:    e.keyStatus(store.Key{Class: store.ClassTeams}, now, teams.FetchedAt, teams.Err, teams.FailedAt),
		IssuesStatus:   e.keyStatus(store.Key{Class: store.ClassIssues, TeamID: teamID}, now, issues.FetchedAt, issues.Err, issues.FailedAt),
		ProjectsStatus: e.keyStatus(store.Key{Class: store.ClassProjects, TeamID: teamID}, now, projects.FetchedAt, projects.Err, projects.FailedAt),
		Now:            now,
	}

	for _, t := range teams.Items {
		if t.ID == teamID {
			snap.TeamName = t.Name
			break
		}
	}
	return snap
}

func (e *Engine) render() {
	if e.renderer == nil {
		return
	}
	e.renderer.Render(e.snapshot())
}

// openBrowser opens a URL in the default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		logger.Warning("engine: unsupported OS for opening URLs os=%s", runtime.GOOS)
		return nil
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	logger.Debug("engine: opened URL in browser url=%s", url)
	return nil
}
