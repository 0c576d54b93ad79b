package store

import (
	"errors"
	"testing"
	"time"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

func TestCommitAndGet(t *testing.T) {
	s := New[string](30 * time.Second)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	epoch := s.Epoch("team-1")
	if !s.Commit("team-1", epoch, []string{"a", "b"}, at) {
		t.Fatal("Commit() with current epoch rejected")
	}

	got := s.Get("team-1")
	if len(got.Items) != 2 || got.Items[0] != "a" {
		t.Errorf("Get().Items = %v, want [a b]", got.Items)
	}
	if !got.FetchedAt.Equal(at) {
		t.Errorf("Get().FetchedAt = %v, want %v", got.FetchedAt, at)
	}
	if got.Err != nil {
		t.Errorf("Get().Err = %v, want nil", got.Err)
	}
}

// TestGetReturnsCopy verifies callers cannot mutate the cache through a
// returned slice.
func TestGetReturnsCopy(t *testing.T) {
	s := New[string](30 * time.Second)
	s.Commit("team-1", 0, []string{"a", "b"}, time.Now())

	first := s.Get("team-1")
	first.Items[0] = "mutated"

	second := s.Get("team-1")
	if second.Items[0] != "a" {
		t.Errorf("cache mutated through returned slice: %v", second.Items)
	}
}

func TestGetUnknownScope(t *testing.T) {
	s := New[int](30 * time.Second)

	got := s.Get("nowhere")
	if got.Items != nil {
		t.Errorf("Get() on empty scope returned items: %v", got.Items)
	}
	if got := s.Freshness("nowhere", time.Now()); got != FreshnessUnknown {
		t.Errorf("Freshness() = %v, want %v", got, FreshnessUnknown)
	}
}

// TestFreshnessLifecycle verifies unknown -> fresh -> stale as the clock
// advances past the interval.
func TestFreshnessLifecycle(t *testing.T) {
	s := New[string](30 * time.Second)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if got := s.Freshness("team-1", start); got != FreshnessUnknown {
		t.Fatalf("Freshness() before any fetch = %v, want %v", got, FreshnessUnknown)
	}

	s.Commit("team-1", 0, []string{"a"}, start)
	if got := s.Freshness("team-1", start); got != FreshnessFresh {
		t.Fatalf("Freshness() after commit = %v, want %v", got, FreshnessFresh)
	}

	if got := s.Freshness("team-1", start.Add(29*time.Second)); got != FreshnessFresh {
		t.Errorf("Freshness() within interval = %v, want %v", got, FreshnessFresh)
	}

	if got := s.Freshness("team-1", start.Add(31*time.Second)); got != FreshnessStale {
		t.Errorf("Freshness() past interval = %v, want %v", got, FreshnessStale)
	}
}

// TestFailKeepsLastKnownGood verifies a failed refresh keeps the prior
// payload visible but marks it stale.
func TestFailKeepsLastKnownGood(t *testing.T) {
	s := New[string](30 * time.Second)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Commit("team-1", 0, []string{"a", "b"}, start)

	failErr := errors.New("connection reset")
	if !s.Fail("team-1", 0, failErr, start.Add(5*time.Second)) {
		t.Fatal("Fail() with current epoch rejected")
	}

	got := s.Get("team-1")
	if len(got.Items) != 2 {
		t.Errorf("Get().Items after failure = %v, want both items kept", got.Items)
	}
	if !errors.Is(got.Err, failErr) {
		t.Errorf("Get().Err = %v, want %v", got.Err, failErr)
	}
	if got := s.Freshness("team-1", start.Add(5*time.Second)); got != FreshnessStale {
		t.Errorf("Freshness() after failure = %v, want %v", got, FreshnessStale)
	}
}

// TestCommitClearsFailure verifies a success wipes the failure marker.
func TestCommitClearsFailure(t *testing.T) {
	s := New[string](30 * time.Second)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Fail("team-1", 0, errors.New("boom"), start)
	s.Commit("team-1", 0, []string{"a"}, start)

	got := s.Get("team-1")
	if got.Err != nil {
		t.Errorf("Get().Err after recovery = %v, want nil", got.Err)
	}
	if got := s.Freshness("team-1", start); got != FreshnessFresh {
		t.Errorf("Freshness() after recovery = %v, want %v", got, FreshnessFresh)
	}
}

// TestFailWithoutPriorSuccess verifies the failure is recorded but the
// scope stays unknown since nothing was ever loaded.
func TestFailWithoutPriorSuccess(t *testing.T) {
	s := New[string](30 * time.Second)
	at := time.Now()

	s.Fail("team-1", 0, errors.New("boom"), at)

	got := s.Get("team-1")
	if got.Items != nil {
		t.Errorf("Get().Items = %v, want nil", got.Items)
	}
	if got.Err == nil {
		t.Error("Get().Err = nil, want recorded failure")
	}
	if got := s.Freshness("team-1", at); got != FreshnessUnknown {
		t.Errorf("Freshness() = %v, want %v", got, FreshnessUnknown)
	}
}

// TestInvalidateRejectsLateWrite verifies a completion from before the
// invalidation cannot land, for both success and failure outcomes.
func TestInvalidateRejectsLateWrite(t *testing.T) {
	s := New[string](30 * time.Second)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// A fetch starts under the current epoch.
	epoch := s.Epoch("team-1")

	// The operator re-selects the team before the fetch returns.
	s.Invalidate("team-1")

	if s.Commit("team-1", epoch, []string{"stale"}, at) {
		t.Error("Commit() with pre-invalidation epoch accepted")
	}
	if s.Fail("team-1", epoch, errors.New("late failure"), at) {
		t.Error("Fail() with pre-invalidation epoch accepted")
	}

	got := s.Get("team-1")
	if got.Items != nil || got.Err != nil {
		t.Errorf("Get() after rejected writes = %+v, want empty", got)
	}

	// A fetch under the new epoch lands normally.
	if !s.Commit("team-1", s.Epoch("team-1"), []string{"current"}, at) {
		t.Error("Commit() with current epoch rejected")
	}
	if got := s.Get("team-1"); len(got.Items) != 1 || got.Items[0] != "current" {
		t.Errorf("Get().Items = %v, want [current]", got.Items)
	}
}

// TestInvalidateDropsData verifies invalidation clears the cache.
func TestInvalidateDropsData(t *testing.T) {
	s := New[string](30 * time.Second)
	at := time.Now()
	s.Commit("team-1", 0, []string{"a"}, at)

	s.Invalidate("team-1")

	if s.Len("team-1") != 0 {
		t.Errorf("Len() after invalidate = %d, want 0", s.Len("team-1"))
	}
	if got := s.Freshness("team-1", at); got != FreshnessUnknown {
		t.Errorf("Freshness() after invalidate = %v, want %v", got, FreshnessUnknown)
	}
}

// TestScopesAreIndependent verifies one team's data never leaks into
// another's scope.
func TestScopesAreIndependent(t *testing.T) {
	s := New[string](30 * time.Second)
	at := time.Now()

	s.Commit("team-1", 0, []string{"a"}, at)
	s.Commit("team-2", 0, []string{"x", "y"}, at)
	s.Invalidate("team-1")

	if s.Len("team-1") != 0 {
		t.Errorf("team-1 Len() = %d, want 0", s.Len("team-1"))
	}
	if s.Len("team-2") != 2 {
		t.Errorf("team-2 Len() = %d, want 2", s.Len("team-2"))
	}
}

// TestStoresDispatch verifies the bundle's key helpers hit the right class.
func TestStoresDispatch(t *testing.T) {
	stores := NewStores(30 * time.Second)
	at := time.Now()

	stores.Teams.Commit("", 0, []linearapi.Team{{ID: "team-1", Key: "ENG", Name: "Engineering"}}, at)
	stores.Issues.Commit("team-1", 0, []linearapi.Issue{{ID: "issue-1"}}, at)

	if got := stores.FreshnessOf(Key{Class: ClassTeams}, at); got != FreshnessFresh {
		t.Errorf("FreshnessOf(teams) = %v, want %v", got, FreshnessFresh)
	}
	if got := stores.FreshnessOf(Key{Class: ClassIssues, TeamID: "team-1"}, at); got != FreshnessFresh {
		t.Errorf("FreshnessOf(issues team-1) = %v, want %v", got, FreshnessFresh)
	}
	if got := stores.FreshnessOf(Key{Class: ClassProjects, TeamID: "team-1"}, at); got != FreshnessUnknown {
		t.Errorf("FreshnessOf(projects team-1) = %v, want %v", got, FreshnessUnknown)
	}

	stores.Issues.Invalidate("team-1")
	if got := stores.EpochOf(Key{Class: ClassIssues, TeamID: "team-1"}); got != 1 {
		t.Errorf("EpochOf(issues team-1) = %d, want 1", got)
	}

	if !stores.FailOf(Key{Class: ClassProjects, TeamID: "team-1"}, 0, errors.New("boom"), at) {
		t.Error("FailOf(projects) rejected with current epoch")
	}
	if got := stores.Projects.Get("team-1"); got.Err == nil {
		t.Error("Projects.Get().Err = nil, want recorded failure")
	}
}
