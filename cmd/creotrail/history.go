package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/client"
	"creotrail/validator/pkg/store"
)

var historyFlags struct {
	userID int64
	start  string
	end    string
	cmdID  int64
	typ    string
	format string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a validator's classification history",
	Long: `Fetch a validator's decisions from a running server, optionally filtered
by date range, command id and classification.

Dates are YYYY-MM-DD (whole days, UTC) or RFC 3339 timestamps. Both ends
of the range are inclusive.

Examples:
  creotrail history --user-id 3
  creotrail history --user-id 3 --start 2024-03-01 --end 2024-03-07 --type dynamic
  creotrail history --user-id 3 --cmd-id 42 --format csv > history.csv`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int64Var(&historyFlags.userID, "user-id", 0, "validator user id (required)")
	historyCmd.Flags().StringVar(&historyFlags.start, "start", "", "first day or timestamp to include")
	historyCmd.Flags().StringVar(&historyFlags.end, "end", "", "last day or timestamp to include")
	historyCmd.Flags().Int64Var(&historyFlags.cmdID, "cmd-id", 0, "only this command id")
	historyCmd.Flags().StringVar(&historyFlags.typ, "type", "all", "all, dynamic or static")
	historyCmd.Flags().StringVarP(&historyFlags.format, "format", "f", "table", "output format: table, json or csv")
	_ = historyCmd.MarkFlagRequired("user-id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}
	q, err := historyQuery()
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
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if format == cli.FormatCSV {
		if err := c.HistoryCSV(ctx, historyFlags.userID, q, out); err != nil {
			return cli.NewCommandError("history", err)
		}
		return nil
	}

	entries, err := c.History(ctx, historyFlags.userID, q)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	t := &cli.Table{
		Header: []string{"id", "command_id", "command_text", "action", "processed_time"},
		Data:   entries,
	}
	for _, e := range entries {
		t.Append(
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.CommandID, 10),
			e.CommandText,
			e.Action,
			e.ProcessedTime.UTC().Format(time.RFC3339),
		)
	}
	if err := cli.Print(out, format, t); err != nil {
		return err
	}
	if format == cli.FormatTable {
		fmt.Fprintf(out, "%d entries\n", len(entries))
	}
	return nil
}

func historyQuery() (client.HistoryQuery, error) {
	var q client.HistoryQuery

	action, err := store.ParseActionFilter(historyFlags.typ)
	if err != nil {
		return q, cli.NewConfigError("type", err.Error())
	}
	q.Type = string(action)

	if historyFlags.start != "" {
		t, err := parseDay(historyFlags.start, false)
		if err != nil {
			return q, cli.NewConfigError("start", err.Error())
		}
		q.Start = &t
	}
	if historyFlags.end != "" {
		t, err := parseDay(historyFlags.end, true)
		if err != nil {
			return q, cli.NewConfigError("end", err.Error())
		}
		q.End = &t
	}
	if q.Start != nil && q.End != nil && q.End.Before(*q.Start) {
		return q, cli.NewConfigError("end", "end is before start")
	}
	if historyFlags.cmdID > 0 {
		id := historyFlags.cmdID
		q.CommandID = &id
	}
	return q, nil
}

// parseDay accepts a date or an RFC 3339 timestamp. A date used as the end
// of a range covers the whole day.
func parseDay(s string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	if end {
		return day.Add(24*time.Hour - time.Microsecond), nil
	}
	return day, nil
}
