package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
)

// checkServer answers the three probe queries by inspecting the query text.
func checkServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request body: %v", err)
			return
		}

		switch {
		case strings.Contains(req.Query, "viewer"):
			fmt.Fprint(w, `{"data": {"viewer": {"id": "user-1", "name": "Ada Lovelace", "displayName": "ada", "email": "ada@example.com"}}}`)
		case strings.Contains(req.Query, "issues"):
			fmt.Fprint(w, `{
				"data": {
					"issues": {
						"nodes": [{
							"id": "issue-1",
							"identifier": "ENG-1",
							"title": "Fix login crash",
							"description": null,
							"priority": 2,
							"url": "https://linear.app/acme/issue/ENG-1",
							"createdAt": "2025-01-01T00:00:00Z",
							"updatedAt": "2025-01-02T00:00:00Z",
							"state": {"id": "state-1", "name": "Todo", "color": "#e2e2e2", "type": "unstarted"},
							"assignee": null,
							"creator": {"name": "Ada Lovelace", "displayName": "ada"},
							"team": {"id": "team-1"}
						}],
						"pageInfo": {"hasNextPage": false, "endCursor": ""}
					}
				}
			}`)
		case strings.Contains(req.Query, "teams"):
			fmt.Fprint(w, `{"data": {"teams": {"nodes": [
				{"id": "team-1", "key": "ENG", "name": "Engineering", "description": null},
				{"id": "team-2", "key": "DES", "name": "Design", "description": "Design systems"}
			]}}}`)
		default:
			t.Errorf("unexpected query: %s", req.Query)
		}
	}))
}

func TestRunChecks(t *testing.T) {
	server := checkServer(t)
	defer server.Close()

	client := linearapi.NewClient(linearapi.ClientConfig{Token: "lin_api_test", Endpoint: server.URL})

	var out bytes.Buffer
	if err := runChecks(context.Background(), &out, client); err != nil {
		t.Fatalf("runChecks() error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"signed in as ada (Ada Lovelace)",
		"email: ada@example.com",
		"ok: 2 teams",
		"- Engineering (ENG)",
		"- Design (DES)",
		"ok: 1 issues in Engineering",
		"All checks passed.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("runChecks() output missing %q:\n%s", want, got)
		}
	}
}

func TestRunChecksAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := linearapi.NewClient(linearapi.ClientConfig{Token: "bad-key", Endpoint: server.URL})

	var out bytes.Buffer
	err := runChecks(context.Background(), &out, client)
	if err == nil {
		t.Fatal("runChecks() error = nil, want authentication failure")
	}
	if !strings.Contains(err.Error(), "authentication failed") {
		t.Errorf("runChecks() error = %q, want it to name the failed probe", err)
	}
	if strings.Contains(out.String(), "All checks passed.") {
		t.Errorf("runChecks() output claims success after a failed probe:\n%s", out.String())
	}
}
