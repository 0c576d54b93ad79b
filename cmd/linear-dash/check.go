package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roeyazroel/linear-dash/internal/linearapi"
	"github.com/roeyazroel/linear-dash/internal/logger"
)

// checkCmd probes the Linear API without starting the dashboard, for
// verifying a key and connectivity from a fresh setup or a script.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify Linear API connectivity",
	Long: `Check authenticates against the Linear API and fetches a sample of teams
and issues, printing the result of each probe. The terminal UI is not
started.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := initLogger(cfg); err != nil {
			return err
		}
		defer logger.Close()

		client := linearapi.NewClient(linearapi.ClientConfig{
			Token:    cfg.LinearAPIKey,
			Endpoint: cfg.APIEndpoint,
			Timeout:  cfg.Timeout,
			PageSize: cfg.PageSize,
		})

		return runChecks(cmd.Context(), cmd.OutOrStdout(), client)
	},
}

// runChecks runs the connection probes in order and stops at the first
// failure so the error points at the layer that broke.
func runChecks(ctx context.Context, out io.Writer, client *linearapi.Client) error {
	fmt.Fprintln(out, "Checking Linear API connection...")

	fmt.Fprintln(out)
	fmt.Fprintln(out, "1. Authentication")
	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Fprintf(out, "   ok: signed in as %s (%s)\n", user.DisplayName, user.Name)
	if user.Email != "" {
		fmt.Fprintf(out, "   email: %s\n", user.Email)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "2. Teams")
	teams, err := client.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("teams fetch failed: %w", err)
	}
	fmt.Fprintf(out, "   ok: %d teams\n", len(teams))
	for i, team := range teams {
		if i == 3 {
			break
		}
		fmt.Fprintf(out, "   - %s (%s)\n", team.Name, team.Key)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "3. Issues")
	if len(teams) == 0 {
		fmt.Fprintln(out, "   skipped: no teams to fetch issues for")
	} else {
		issues, err := client.FetchIssues(ctx, teams[0].ID)
		if err != nil {
			return fmt.Errorf("issues fetch failed: %w", err)
		}
		fmt.Fprintf(out, "   ok: %d issues in %s\n", len(issues), teams[0].Name)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "All checks passed.")
	return nil
}
