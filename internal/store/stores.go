package store

import (
	"time"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

// Stores bundles the per-class caches behind one object that the engine
// threads through explicitly.
type Stores struct {
	Teams    *Store[linearapi.Team]
	Issues   *Store[linearapi.Issue]
	Projects *Store[linearapi.Project]
}

// NewStores creates the three class caches sharing one freshness interval.
func NewStores(interval time.Duration) *Stores {
	return &Stores{
		Teams:    New[linearapi.Team](interval),
		Issues:   New[linearapi.Issue](interval),
		Projects: New[linearapi.Project](interval),
	}
}

// EpochOf returns the current epoch for a key.
func (s *Stores) EpochOf(key Key) uint64 {
	switch key.Class {
	case ClassTeams:
		return s.Teams.Epoch(key.TeamID)
	case ClassIssues:
		return s.Issues.Epoch(key.TeamID)
	case ClassProjects:
		return s.Projects.Epoch(key.TeamID)
	default:
		return 0
	}
}

// FreshnessOf reports the freshness of a key's cache as of now.
func (s *Stores) FreshnessOf(key Key, now time.Time) Freshness {
	switch key.Class {
	case ClassTeams:
		return s.Teams.Freshness(key.TeamID, now)
	case ClassIssues:
		return s.Issues.Freshness(key.TeamID, now)
	case ClassProjects:
		return s.Projects.Freshness(key.TeamID, now)
	default:
		return FreshnessUnknown
	}
}

// FailOf records a failed fetch for a key, dispatching on its class.
func (s *Stores) FailOf(key Key, epoch uint64, err error, at time.Time) bool {
	switch key.Class {
	case ClassTeams:
		return s.Teams.Fail(key.TeamID, epoch, err, at)
	case ClassIssues:
		return s.Issues.Fail(key.TeamID, epoch, err, at)
	case ClassProjects:
		return s.Projects.Fail(key.TeamID, epoch, err, at)
	default:
		return false
	}
}
