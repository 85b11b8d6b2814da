package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pintree/pintree-admin/internal/config"
	"github.com/pintree/pintree-admin/internal/domain"
	"github.com/pintree/pintree-admin/internal/importer"
)

var (
	detectFile   string
	detectMarker string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the format of a bookmark file and what an import would send",
	Long: `Detect parses a bookmark file without importing it and prints its format,
folder and bookmark counts, and the number of batches a run would send.

Examples:
  pintree-import detect --file export.json
  pintree-import detect --file chrome.json --json`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringVarP(&detectFile, "file", "f", "", "Bookmark file to inspect (- for stdin)")
	detectCmd.Flags().StringVar(&detectMarker, "native-marker", config.EnvOr("IMPORT_NATIVE_MARKER", importer.DefaultNativeMarker), "metadata.exportedFrom value of native exports")
	_ = detectCmd.MarkFlagRequired("file")
}

func runDetect(cmd *cobra.Command, _ []string) error {
	data, err := readFile(detectFile, maxFileSize())
	if err != nil {
		return err
	}

	summary, err := importer.Inspect(data, importer.Options{
		NativeMarker:     detectMarker,
		NativeBatchSize:  config.EnvIntOr("IMPORT_NATIVE_BATCH_SIZE", importer.DefaultNativeBatchSize),
		GenericBatchSize: config.EnvIntOr("IMPORT_GENERIC_BATCH_SIZE", importer.DefaultGenericBatchSize),
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, boldStyle.Render("Format: ")+string(summary.Format))
	if summary.Format == domain.FormatNative {
		fmt.Fprintf(out, "Folders:   %d in %d levels\n", summary.Folders, summary.Levels)
	} else {
		fmt.Fprintf(out, "Folders:   %d\n", summary.Folders)
	}
	fmt.Fprintf(out, "Bookmarks: %d\n", summary.Bookmarks)
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("An import would send %d batches", summary.Batches)))
	return nil
}

func maxFileSize() int64 {
	return int64(config.EnvIntOr("IMPORT_MAX_FILE_SIZE", int(config.DefaultMaxFileSize)))
}
