package linearapi

import "time"

// Priority is an issue priority, ordered from least to most urgent.
type Priority int

// Priority values as the dashboard orders them.
const (
	PriorityNone Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// String returns the display label for the priority.
func (p Priority) String() string {
	switch p {
	case PriorityUrgent:
		return "Urgent"
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	default:
		return "None"
	}
}

// Team represents a Linear team.
type Team struct {
	ID          string
	Key         string
	Name        string
	Description string
}

// User represents a Linear user.
type User struct {
	ID          string
	Name        string
	DisplayName string
	Email       string
}

// WorkflowState is the team-defined state an issue sits in. Type is one of
// the stable categories backlog, unstarted, started, completed, canceled;
// Name is the team's own label for it.
type WorkflowState struct {
	ID    string
	Name  string
	Type  string
	Color string
}

// Issue represents a Linear issue.
type Issue struct {
	ID          string
	Identifier  string
	Title       string
	Description string
	State       WorkflowState
	Priority    Priority
	Assignee    string
	Creator     string
	TeamID      string
	URL         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectStatus is the lifecycle status of a project. Type is one of
// planned, started, paused, completed, canceled.
type ProjectStatus struct {
	Name  string
	Type  string
	Color string
}

// Project represents a Linear project. TargetDate is zero when the project
// has no target date set.
type Project struct {
	ID          string
	Name        string
	Description string
	Status      ProjectStatus
	Lead        string
	TargetDate  time.Time
	TeamID      string
}
