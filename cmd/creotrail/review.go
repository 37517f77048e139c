package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/client"
	"creotrail/validator/pkg/review"
)

var reviewFlags struct {
	userID  int64
	restart bool
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Classify commands interactively in the terminal",
	Long: `Walk through the corpus one command at a time and mark each as dynamic
or static. Progress is saved after every decision, so the next review
starts where this one stopped.

Keys (followed by Enter):
  d  mark dynamic      s  mark static
  c  next context      n  next command
  p  previous command  q  quit`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().Int64Var(&reviewFlags.userID, "user-id", 0, "validator user id (required)")
	reviewCmd.Flags().BoolVar(&reviewFlags.restart, "restart", false, "start from the first command instead of the saved position")
	_ = reviewCmd.MarkFlagRequired("user-id")
}

func runReview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	c, err := newClient(cfg)
	if err != nil {
		return err
	}
	sess, err := startReview(ctx, c, reviewFlags.userID, reviewFlags.restart)
	if err != nil {
		return cli.NewCommandError("review", err)
	}

	if err := reviewLoop(ctx, sess, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return cli.NewCommandError("review", err)
	}
	return nil
}

func startReview(ctx context.Context, c *client.Client, userID int64, restart bool) (*review.Session, error) {
	var start int64
	if !restart {
		var err error
		if start, err = c.LastProcessed(ctx, userID); err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
	}
	rows, err := c.Commands(ctx)
	if err != nil {
		return nil, fmt.Errorf("load commands: %w", err)
	}
	return review.NewSession(userID, rows, start, c), nil
}

// reviewLoop reads one key per line from in until the corpus is done, the
// user quits or input ends.
func reviewLoop(ctx context.Context, sess *review.Session, in io.Reader, out io.Writer) error {
	progress := cli.NewProgress(out, "Reviewed")
	scanner := bufio.NewScanner(in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		v, ok := sess.Current()
		if !ok {
			progress.Start(sess.Len(), sess.Len())
			fmt.Fprintln(out)
			fmt.Fprintln(out, "All commands reviewed!")
			return nil
		}
		progress.Start(v.Index, v.Total)
		fmt.Fprintln(out)
		printView(out, v)

		fmt.Fprint(out, "[d]ynamic [s]tatic [c]ontext [n]ext [p]rev [q]uit > ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "d":
			err = sess.MarkDynamic(ctx)
		case "s":
			err = sess.MarkStatic(ctx)
		case "c":
			sess.NextContext()
		case "n":
			sess.Next()
		case "p":
			sess.Prev()
		case "q":
			return nil
		default:
			fmt.Fprintln(out, "unknown key")
		}

		if errors.Is(err, review.ErrDone) {
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "✗ %v\n", err)
		}
	}
}

func printView(out io.Writer, v review.View) {
	fmt.Fprintf(out, "\nCommand %d of %d (id %d), argument %d of %d\n",
		v.Index+1, v.Total, v.CommandID, v.ArgumentIndex+1, v.ArgumentCount)
	fmt.Fprintf(out, "$ %s\n", v.CommandLine)
	fmt.Fprintln(out, "--- context ---")
	fmt.Fprintln(out, v.Context)
	fmt.Fprintln(out, "---------------")
}
