package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

var extractWatch bool

var extractCmd = &cobra.Command{
	Use:   "extract [papers-dir]",
	Short: "Extract text from the PDF corpus",
	Long: `Extracts the text of every PDF below the papers directory into the
document store. Each sub-directory is one paper; its name becomes the
document ID. Files already in the store are skipped, and unreadable files
are recorded as failed without stopping the batch.

Defaults to paths.papers_dir. With --watch the command keeps running and
extracts papers as they are added, until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVarP(&extractWatch, "watch", "w", false, "keep extracting papers as they are added")
	requires(extractCmd, NeedStore)
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if extractionService == nil {
		return notConfigured("extraction")
	}

	dir, err := papersDir(args)
	if err != nil {
		return err
	}

	cmd.Printf("Extracting papers from %s...\n", dir)
	if extractWatch {
		err := extractionService.WatchDirectory(cmd.Context(), dir, func(r *driving.ExtractionReport) {
			cmd.Println(renderExtraction(r))
			cmd.Println(mutedStyle.Render("Watching for new papers (Ctrl+C to stop)..."))
		})
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
		return nil
	}

	report, err := extractionService.ExtractDirectory(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	cmd.Println(renderExtraction(report))
	return nil
}

// papersDir returns the directory argument or the configured default.
func papersDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if settingsService == nil {
		return "", notConfigured("settings")
	}
	settings, err := settingsService.Get()
	if err != nil {
		return "", fmt.Errorf("failed to get settings: %w", err)
	}
	return settings.Paths.PapersDir, nil
}

func renderExtraction(r *driving.ExtractionReport) string {
	failed := strconv.Itoa(r.Failed)
	if r.Failed > 0 {
		failed = errorStyle.Render(failed)
	}
	return renderSummary("Extraction", []summaryRow{
		{"Found", strconv.Itoa(r.Found)},
		{"Skipped", strconv.Itoa(r.Skipped)},
		{"Extracted", successStyle.Render(strconv.Itoa(r.Succeeded))},
		{"Failed", failed},
		{"Pages", strconv.Itoa(r.TotalPages)},
	})
}
