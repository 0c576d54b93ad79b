// Package store caches fetched entity lists in memory, scoped by team.
//
// A Store keeps the last successful payload per scope even after later
// failures, so the dashboard can keep showing stale data while retries run.
// Invalidation bumps a per-scope epoch; completions started under an older
// epoch are rejected, which keeps a slow fetch from overwriting the cache
// after the operator has moved on.
//
// Stores are not safe for concurrent use. The engine goroutine is the only
// writer; everything handed to other goroutines is a copy.
package store

import "time"

// Class identifies which kind of entity a cache key refers to.
type Class string

// The entity classes the dashboard synchronizes.
const (
	ClassTeams    Class = "teams"
	ClassIssues   Class = "issues"
	ClassProjects Class = "projects"
)

// Key identifies one cached list: an entity class plus its team scope.
// Teams are not team-scoped and use an empty TeamID.
type Key struct {
	Class  Class
	TeamID string
}

// Freshness describes how trustworthy a cached list currently is.
type Freshness int

const (
	// FreshnessUnknown means no fetch has ever succeeded for the scope.
	FreshnessUnknown Freshness = iota
	// FreshnessFresh means the last successful fetch is within the refresh
	// interval and nothing has failed since.
	FreshnessFresh
	// FreshnessStale means cached data exists but has outlived the refresh
	// interval, or a fetch has failed since it was loaded.
	FreshnessStale
)

// String returns a short label for the freshness.
func (f Freshness) String() string {
	switch f {
	case FreshnessFresh:
		return "fresh"
	case FreshnessStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Result is the cached state of one scope at the time of the call. Items is
// the caller's copy to keep.
type Result[T any] struct {
	// Items is the last successfully fetched payload, nil if none ever.
	Items []T
	// FetchedAt is when Items were fetched, zero if never.
	FetchedAt time.Time
	// Err is the most recent failure since the last success, nil otherwise.
	Err error
	// FailedAt is when Err happened, zero when Err is nil.
	FailedAt time.Time
}

type entry[T any] struct {
	items     []T
	fetchedAt time.Time
	lastErr   error
	failedAt  time.Time
}

// Store caches fetched lists of one entity class, keyed by team scope.
type Store[T any] struct {
	interval time.Duration
	entries  map[string]*entry[T]
	epochs   map[string]uint64
}

// New creates an empty store. interval is how long a successful fetch
// counts as fresh.
func New[T any](interval time.Duration) *Store[T] {
	return &Store[T]{
		interval: interval,
		entries:  make(map[string]*entry[T]),
		epochs:   make(map[string]uint64),
	}
}

// Epoch returns the current invalidation epoch for a scope. A fetch started
// now must carry this value into Commit or Fail.
func (s *Store[T]) Epoch(teamID string) uint64 {
	return s.epochs[teamID]
}

// Commit records a successful fetch begun under epoch and reports whether
// it was accepted. Results from before an invalidation are dropped. The
// input slice is copied.
func (s *Store[T]) Commit(teamID string, epoch uint64, items []T, at time.Time) bool {
	if epoch != s.epochs[teamID] {
		return false
	}

	e := s.ensure(teamID)
	e.items = append([]T(nil), items...)
	e.fetchedAt = at
	e.lastErr = nil
	e.failedAt = time.Time{}
	return true
}

// Fail records a failed fetch begun under epoch and reports whether it was
// accepted. Existing data is kept; it just stops counting as fresh.
func (s *Store[T]) Fail(teamID string, epoch uint64, err error, at time.Time) bool {
	if epoch != s.epochs[teamID] {
		return false
	}

	e := s.ensure(teamID)
	e.lastErr = err
	e.failedAt = at
	return true
}

// Invalidate drops cached data for a scope and bumps its epoch, so any
// in-flight fetch for the old scope cannot land.
func (s *Store[T]) Invalidate(teamID string) {
	s.epochs[teamID]++
	delete(s.entries, teamID)
}

// Get returns the cached state for a scope. The Items slice is a copy the
// caller owns.
func (s *Store[T]) Get(teamID string) Result[T] {
	e, ok := s.entries[teamID]
	if !ok {
		return Result[T]{}
	}
	return Result[T]{
		Items:     append([]T(nil), e.items...),
		FetchedAt: e.fetchedAt,
		Err:       e.lastErr,
		FailedAt:  e.failedAt,
	}
}

// Len returns how many items are cached for a scope without copying.
func (s *Store[T]) Len(teamID string) int {
	e, ok := s.entries[teamID]
	if !ok {
		return 0
	}
	return len(e.items)
}

// Freshness reports how trustworthy the scope's cache is as of now.
func (s *Store[T]) Freshness(teamID string, now time.Time) Freshness {
	e, ok := s.entries[teamID]
	if !ok || e.fetchedAt.IsZero() {
		return FreshnessUnknown
	}
	if e.lastErr != nil {
		return FreshnessStale
	}
	if now.Sub(e.fetchedAt) > s.interval {
		return FreshnessStale
	}
	return FreshnessFresh
}

func (s *Store[T]) ensure(teamID string) *entry[T] {
	e, ok := s.entries[teamID]
	if !ok {
		e = &entry[T]{}
		s.entries[teamID] = e
	}
	return e
}
