// Package linearapi is a read-only client for the Linear GraphQL API.
//
// Failures are classified into APIError kinds at the transport layer, so
// callers can distinguish an expired key from a flaky network without
// parsing error strings.
package linearapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/roeyazroel/linear-dash/internal/logger"
	"github.com/shurcooL/graphql"
)

// parseTime safely parses an RFC3339 time string, returning zero time on error.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseDate parses Linear's date-only strings (project target dates),
// returning zero time on error.
func parseDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IssueFilter is a custom scalar type for Linear's IssueFilter input.
// It allows passing complex filter objects to the GraphQL API.
type IssueFilter map[string]interface{}

// GetGraphQLType returns the GraphQL type name for the filter.
func (IssueFilter) GetGraphQLType() string {
	return "IssueFilter"
}

// MarshalJSON implements json.Marshaler for IssueFilter.
func (f IssueFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(f))
}

// PaginationOrderBy is a custom type for Linear's PaginationOrderBy enum.
// Valid values are "createdAt" and "updatedAt".
type PaginationOrderBy string

// GetGraphQLType returns the GraphQL type name for the enum.
func (PaginationOrderBy) GetGraphQLType() string {
	return "PaginationOrderBy"
}

// Common PaginationOrderBy values.
const (
	OrderByCreatedAt PaginationOrderBy = "createdAt"
	OrderByUpdatedAt PaginationOrderBy = "updatedAt"
)

const (
	// DefaultEndpoint is the default Linear API GraphQL endpoint.
	DefaultEndpoint = "https://api.linear.app/graphql"

	// DefaultPageSize is the page size used when none is configured.
	DefaultPageSize = 50
)

// ClientConfig contains configuration for creating a new Linear API client.
type ClientConfig struct {
	// Token is the Linear API key for authentication.
	Token string
	// Endpoint is the GraphQL API endpoint (defaults to Linear's production endpoint).
	Endpoint string
	// HTTPClient is an optional custom HTTP client (useful for testing).
	HTTPClient *http.Client
	// Timeout is the HTTP request timeout (defaults to 30s).
	Timeout time.Duration
	// PageSize is how many records each page requests (defaults to 50).
	PageSize int
}

// Client is a read-only client for the Linear GraphQL API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	pageSize   int
	client     *graphql.Client
}

// NewClient creates a new Linear API client with the provided configuration.
func NewClient(cfg ClientConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// Use provided HTTP client but wrap its transport with auth
		httpClient = cfg.HTTPClient
		if httpClient.Transport == nil {
			httpClient.Transport = http.DefaultTransport
		}
		httpClient.Transport = &authTransport{
			Token: cfg.Token,
			Base:  httpClient.Transport,
		}
	} else {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				Token: cfg.Token,
				Base:  http.DefaultTransport,
			},
		}
	}

	client := graphql.NewClient(endpoint, httpClient)

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      cfg.Token,
		pageSize:   pageSize,
		client:     client,
	}
}

// NewClientWithToken creates a new Linear API client with just a token (convenience method).
func NewClientWithToken(token string) *Client {
	return NewClient(ClientConfig{Token: token})
}

// authTransport adds the Authorization header to requests and classifies
// failure responses before the GraphQL layer swallows their status codes.
type authTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", t.Token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, &APIError{Kind: ErrorNetwork, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &APIError{Kind: ErrorUnauthorized}
	case resp.StatusCode == http.StatusTooManyRequests:
		retry := retryAfterHint(resp.Header, time.Now())
		resp.Body.Close()
		return nil, &APIError{Kind: ErrorRateLimited, RetryAfter: retry}
	case resp.StatusCode >= 500:
		status := resp.Status
		resp.Body.Close()
		return nil, &APIError{Kind: ErrorNetwork, Err: fmt.Errorf("server returned %s", status)}
	}

	return resp, nil
}

// Endpoint returns the GraphQL endpoint being used.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// displayName prefers the display name and falls back to the full name.
func displayName(name, display string) string {
	if display != "" {
		return display
	}
	return name
}

// GetCurrentUser fetches the current authenticated user. It doubles as the
// credential check at startup: an invalid key surfaces as ErrorUnauthorized.
func (c *Client) GetCurrentUser(ctx context.Context) (User, error) {
	var query struct {
		Viewer struct {
			ID          graphql.String
			Name        graphql.String
			DisplayName graphql.String
			Email       graphql.String
		}
	}

	err := c.client.Query(ctx, &query, nil)
	if err != nil {
		apiErr := classify(err)
		logger.ErrorWithErr(apiErr, "API: GetCurrentUser failed")
		return User{}, fmt.Errorf("get current user: %w", apiErr)
	}

	return User{
		ID:          string(query.Viewer.ID),
		Name:        string(query.Viewer.Name),
		DisplayName: string(query.Viewer.DisplayName),
		Email:       string(query.Viewer.Email),
	}, nil
}

// ListTeams fetches all teams the user has access to.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var query struct {
		Teams struct {
			Nodes []struct {
				ID          graphql.String
				Key         graphql.String
				Name        graphql.String
				Description *graphql.String
			}
		} `graphql:"teams"`
	}

	err := c.client.Query(ctx, &query, nil)
	if err != nil {
		apiErr := classify(err)
		logger.ErrorWithErr(apiErr, "API: ListTeams failed")
		return nil, fmt.Errorf("list teams: %w", apiErr)
	}

	teams := make([]Team, 0, len(query.Teams.Nodes))
	for _, node := range query.Teams.Nodes {
		if node.ID == "" {
			logger.Warning("API: skipping team with missing id name=%q", string(node.Name))
			continue
		}
		description := ""
		if node.Description != nil {
			description = string(*node.Description)
		}
		teams = append(teams, Team{
			ID:          string(node.ID),
			Key:         string(node.Key),
			Name:        string(node.Name),
			Description: description,
		})
	}

	return teams, nil
}

// ListProjects fetches all projects for a team.
func (c *Client) ListProjects(ctx context.Context, teamID string) ([]Project, error) {
	var query struct {
		Team struct {
			Projects struct {
				Nodes []struct {
					ID          graphql.String
					Name        graphql.String
					Description *graphql.String
					Status      struct {
						Name  graphql.String
						Color graphql.String
						Type  graphql.String
					}
					Lead *struct {
						Name        graphql.String
						DisplayName graphql.String
					}
					TargetDate *graphql.String
				}
			}
		} `graphql:"team(id: $teamId)"`
	}

	variables := map[string]interface{}{
		"teamId": graphql.String(teamID),
	}

	err := c.client.Query(ctx, &query, variables)
	if err != nil {
		apiErr := classify(err)
		logger.ErrorWithErr(apiErr, "API: ListProjects failed team=%s", teamID)
		return nil, fmt.Errorf("list projects for team %s: %w", teamID, apiErr)
	}

	projects := make([]Project, 0, len(query.Team.Projects.Nodes))
	for _, node := range query.Team.Projects.Nodes {
		if node.ID == "" {
			logger.Warning("API: skipping project with missing id team=%s name=%q", teamID, string(node.Name))
			continue
		}

		description := ""
		if node.Description != nil {
			description = string(*node.Description)
		}

		lead := ""
		if node.Lead != nil {
			lead = displayName(string(node.Lead.Name), string(node.Lead.DisplayName))
		}

		var targetDate time.Time
		if node.TargetDate != nil {
			targetDate = parseDate(string(*node.TargetDate))
		}

		projects = append(projects, Project{
			ID:          string(node.ID),
			Name:        string(node.Name),
			Description: description,
			Status: ProjectStatus{
				Name:  string(node.Status.Name),
				Color: string(node.Status.Color),
				Type:  string(node.Status.Type),
			},
			Lead:       lead,
			TargetDate: targetDate,
			TeamID:     teamID,
		})
	}

	return projects, nil
}

// priorityFromWire clamps the wire integer into the known priority range.
func priorityFromWire(v float64) Priority {
	p := Priority(int(v))
	if p < PriorityNone || p > PriorityUrgent {
		return PriorityNone
	}
	return p
}

// FetchIssues fetches all issues for a team, following pagination cursors
// until the connection is exhausted. Records missing an id are skipped
// rather than failing the whole fetch.
func (c *Client) FetchIssues(ctx context.Context, teamID string) ([]Issue, error) {
	filter := IssueFilter{
		"team": map[string]interface{}{"id": map[string]interface{}{"eq": teamID}},
	}

	var after *graphql.String
	issues := make([]Issue, 0)
	for {
		var query struct {
			Issues struct {
				Nodes []struct {
					ID          graphql.String
					Identifier  graphql.String
					Title       graphql.String
					Description *graphql.String
					Priority    graphql.Float
					URL         graphql.String
					CreatedAt   graphql.String
					UpdatedAt   graphql.String
					State       struct {
						ID    graphql.String
						Name  graphql.String
						Color graphql.String
						Type  graphql.String
					}
					Assignee *struct {
						Name        graphql.String
						DisplayName graphql.String
					}
					Creator *struct {
						Name        graphql.String
						DisplayName graphql.String
					}
					Team struct {
						ID graphql.String
					}
				}
				PageInfo struct {
					HasNextPage graphql.Boolean
					EndCursor   graphql.String
				}
			} `graphql:"issues(first: $first, after: $after, filter: $filter, orderBy: $orderBy)"`
		}

		variables := map[string]interface{}{
			"first":   graphql.Int(c.pageSize),
			"filter":  filter,
			"orderBy": OrderByUpdatedAt,
			"after":   after,
		}

		err := c.client.Query(ctx, &query, variables)
		if err != nil {
			apiErr := classify(err)
			logger.ErrorWithErr(apiErr, "API: FetchIssues failed team=%s", teamID)
			return nil, fmt.Errorf("fetch issues for team %s: %w", teamID, apiErr)
		}

		for _, node := range query.Issues.Nodes {
			if node.ID == "" {
				logger.Warning("API: skipping issue with missing id team=%s identifier=%q", teamID, string(node.Identifier))
				continue
			}

			description := ""
			if node.Description != nil {
				description = string(*node.Description)
			}

			assignee := ""
			if node.Assignee != nil {
				assignee = displayName(string(node.Assignee.Name), string(node.Assignee.DisplayName))
			}

			creator := ""
			if node.Creator != nil {
				creator = displayName(string(node.Creator.Name), string(node.Creator.DisplayName))
			}

			issues = append(issues, Issue{
				ID:          string(node.ID),
				Identifier:  string(node.Identifier),
				Title:       string(node.Title),
				Description: description,
				State: WorkflowState{
					ID:    string(node.State.ID),
					Name:  string(node.State.Name),
					Color: string(node.State.Color),
					Type:  string(node.State.Type),
				},
				Priority:  priorityFromWire(float64(node.Priority)),
				Assignee:  assignee,
				Creator:   creator,
				TeamID:    string(node.Team.ID),
				URL:       string(node.URL),
				CreatedAt: parseTime(string(node.CreatedAt)),
				UpdatedAt: parseTime(string(node.UpdatedAt)),
			})
		}

		if !bool(query.Issues.PageInfo.HasNextPage) {
			break
		}

		nextCursor := query.Issues.PageInfo.EndCursor
		after = &nextCursor
	}

	return issues, nil
}
