package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/corpus"
	"creotrail/validator/pkg/store"
)

var corpusFlags struct {
	file        string
	watch       bool
	maxFileSize int64
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the command corpus",
}

var corpusImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the stored corpus with the contents of a file",
	Long: `Load commands, arguments and context lines from a JSON or YAML file and
replace the corpus in the database. With --watch the command keeps running
and re-imports whenever the file changes.

Examples:
  creotrail corpus import --file corpus.json
  creotrail corpus import --file corpus.yaml --watch`,
	Args: cobra.NoArgs,
	RunE: runCorpusImport,
}

func init() {
	rootCmd.AddCommand(corpusCmd)
	corpusCmd.AddCommand(corpusImportCmd)

	corpusImportCmd.Flags().StringVarP(&corpusFlags.file, "file", "f", "", "corpus file (.json, .yaml or .yml)")
	corpusImportCmd.Flags().BoolVarP(&corpusFlags.watch, "watch", "w", false, "re-import when the file changes")
	corpusImportCmd.Flags().Int64Var(&corpusFlags.maxFileSize, "max-file-size", corpus.DefaultMaxFileSize, "maximum corpus file size in bytes")
	_ = corpusImportCmd.MarkFlagRequired("file")
}

func runCorpusImport(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, s *store.SQLStore, _ *config.Config, logger *slog.Logger) error {
		out := cmd.OutOrStdout()

		reload := func(ctx context.Context) error {
			n, err := corpus.Sync(ctx, corpusFlags.file, corpusFlags.maxFileSize, s)
			if err != nil {
				return err
			}
			logger.Info("corpus imported", "path", corpusFlags.file, "arguments", n)
			fmt.Fprintf(out, "✓ Imported %d arguments from %s\n", n, corpusFlags.file)
			return nil
		}

		if err := reload(ctx); err != nil {
			return cli.NewCommandError("corpus import", err)
		}
		if !corpusFlags.watch {
			return nil
		}

		ctx, stop := cli.SignalContext(ctx)
		defer stop()

		w, err := corpus.NewWatcher(corpus.WatcherConfig{Path: corpusFlags.file}, logger)
		if err != nil {
			return cli.NewCommandError("corpus import", err)
		}
		defer w.Stop()

		fmt.Fprintf(out, "Watching %s for changes, press Ctrl+C to stop\n", corpusFlags.file)
		if err := w.Watch(ctx, reload); err != nil {
			return cli.NewCommandError("corpus import", err)
		}
		return nil
	})
}
