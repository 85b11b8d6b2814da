package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/id"
	"github.com/pintree/pintree-admin/internal/importer"
	"github.com/pintree/pintree-admin/internal/logger"
	"github.com/pintree/pintree-admin/internal/persistence"
)

var (
	runFile             string
	runName             string
	runDescription      string
	runAPIURL           string
	runRPS              float64
	runTimeout          time.Duration
	runNativeBatchSize  int
	runGenericBatchSize int
	runNativeMarker     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import a bookmark file into a new collection",
	Long: `Run imports a bookmark file into a new collection on a Pintree server.

Native exports are sent folder level by folder level, then in bookmark
batches; generic trees are flattened and sent in bookmark batches. Batches go
one at a time and progress is printed after each one.

Examples:
  pintree-import run --file export.json --name "My links"
  pintree-import run --file chrome.json --name Chrome --description "Work laptop"
  cat export.json | pintree-import run --file - --name Piped --json`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "Bookmark file to import (- for stdin)")
	runCmd.Flags().StringVarP(&runName, "name", "n", "", "Name of the collection to create")
	runCmd.Flags().StringVarP(&runDescription, "description", "d", "", "Collection description (140 characters max)")
	runCmd.Flags().StringVar(&runAPIURL, "api-url", config.EnvOr("PERSISTENCE_URL", "http://localhost:8080"), "Base URL of the persistence API")
	runCmd.Flags().Float64Var(&runRPS, "rps", 0, "Maximum batch requests per second (0 = unlimited)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "Timeout for a single batch request")
	runCmd.Flags().IntVar(&runNativeBatchSize, "native-batch-size", config.EnvIntOr("IMPORT_NATIVE_BATCH_SIZE", importer.DefaultNativeBatchSize), "Bookmarks per native batch")
	runCmd.Flags().IntVar(&runGenericBatchSize, "generic-batch-size", config.EnvIntOr("IMPORT_GENERIC_BATCH_SIZE", importer.DefaultGenericBatchSize), "Bookmarks per generic batch")
	runCmd.Flags().StringVar(&runNativeMarker, "native-marker", config.EnvOr("IMPORT_NATIVE_MARKER", importer.DefaultNativeMarker), "metadata.exportedFrom value of native exports")
	_ = runCmd.MarkFlagRequired("file")
	_ = runCmd.MarkFlagRequired("name")
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := id.NewRunID()
	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(logLevel),
		Writer: cmd.ErrOrStderr(),
	})
	// The orchestrator and its reporter tag run_id themselves.
	runLog := log.WithRun(runID, runName)

	data, err := readFile(runFile, maxFileSize())
	if err != nil {
		return err
	}

	client := persistence.NewHTTPClient(persistence.HTTPConfig{
		BaseURL:           runAPIURL,
		Timeout:           runTimeout,
		RequestsPerSecond: runRPS,
	}, runLog.Logger)

	var progress importer.Reporter
	if !jsonOutput {
		progress = importer.NewWriterReporter(cmd.OutOrStdout())
	}

	orch := importer.New(client, importer.Options{
		NativeMarker:     runNativeMarker,
		NativeBatchSize:  runNativeBatchSize,
		GenericBatchSize: runGenericBatchSize,
		MaxFileSize:      maxFileSize(),
		Reporter:         importer.Multi{progress, importer.NewLogReporter(log.Logger)},
	}, log.Logger)

	return execute(ctx, cmd.OutOrStdout(), orch, importer.Request{
		RunID:       runID,
		Name:        runName,
		Description: runDescription,
		Source:      data,
	})
}

// execute runs one import and prints its outcome. With --json the report is
// printed on failure as well, so scripts can read how far the run got.
func execute(ctx context.Context, out io.Writer, orch *importer.Orchestrator, req importer.Request) error {
	report, err := orch.Run(ctx, req)
	if jsonOutput {
		if werr := writeJSON(out, report); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		if report != nil && report.CollectionID != "" {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf(
				"Collection %s keeps %d folders and %d bookmarks imported before the failure",
				report.CollectionID, report.FoldersImported, report.BookmarksImported)))
		}
		return err
	}
	fmt.Fprintln(out, passStyle.Render("✓ Import complete"))
	return nil
}
