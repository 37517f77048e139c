package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/client"
	"creotrail/validator/pkg/store"
)

var statsFlags struct {
	format string
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show admin statistics from the API",
	Long: `Fetch user counts, per-validator classification totals and recent
validator activity from a running server.

Examples:
  creotrail stats
  creotrail stats --server http://backend:8000 --format json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&statsFlags.format, "format", "f", "table", "output format: table, json or csv")
}

type validatorStatsRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	store.ValidatorStats
}

type statsReport struct {
	Users      *store.RoleCounts       `json:"users"`
	Validators []validatorStatsRow     `json:"validators"`
	Recent     []store.ActiveValidator `json:"recent_active"`
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(statsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	report, err := fetchStats(cmd.Context(), c)
	if err != nil {
		return cli.NewCommandError("stats", err)
	}

	out := cmd.OutOrStdout()
	perValidator := &cli.Table{
		Header: []string{"id", "name", "dynamic", "static", "processed", "remaining", "total"},
		Data:   report,
	}
	for _, v := range report.Validators {
		perValidator.Append(
			strconv.FormatInt(v.ID, 10), v.Name,
			strconv.FormatInt(v.Dynamic, 10), strconv.FormatInt(v.Static, 10),
			strconv.FormatInt(v.Processed, 10), strconv.FormatInt(v.Remaining, 10),
			strconv.FormatInt(v.Total, 10),
		)
	}
	if format != cli.FormatTable {
		return cli.Print(out, format, perValidator)
	}

	fmt.Fprintf(out, "Validators: %d (%s)\n", report.Users.ValidatorCount, strings.Join(report.Users.ValidatorNames, ", "))
	fmt.Fprintf(out, "Viewers:    %d (%s)\n\n", report.Users.ViewerCount, strings.Join(report.Users.ViewerNames, ", "))
	if err := cli.Print(out, cli.FormatTable, perValidator); err != nil {
		return err
	}

	recent := &cli.Table{Header: []string{"recently active", "last seen"}}
	for _, a := range report.Recent {
		recent.Append(a.Name, formatTime(a.LastSeen))
	}
	fmt.Fprintln(out)
	return cli.Print(out, cli.FormatTable, recent)
}

func fetchStats(ctx context.Context, c *client.Client) (*statsReport, error) {
	counts, err := c.UserCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("user counts: %w", err)
	}
	validators, err := c.Validators(ctx)
	if err != nil {
		return nil, fmt.Errorf("validators: %w", err)
	}
	recent, err := c.RecentActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	report := &statsReport{Users: counts, Recent: recent, Validators: make([]validatorStatsRow, 0, len(validators))}
	for _, v := range validators {
		st, err := c.ValidatorStats(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("stats for validator %d: %w", v.ID, err)
		}
		report.Validators = append(report.Validators, validatorStatsRow{ID: v.ID, Name: v.Name, ValidatorStats: *st})
	}
	return report, nil
}
