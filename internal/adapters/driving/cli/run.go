package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runSample int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, index and review in one go",
	Long: `Runs the whole pipeline: extracts new papers, chunks and embeds them,
embeds the fact catalogue and reviews every pending fact. Each step skips
work already done, so run can be repeated after adding papers.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().IntVar(&runSample, "sample", 0, "review only n evenly spaced facts")
	runCmd.Flags().BoolVar(&reviewPlain, "plain", false, "print one line per fact instead of the live view")
	requires(runCmd, NeedStore|NeedEmbedding|NeedLLM)
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	switch {
	case extractionService == nil:
		return notConfigured("extraction")
	case indexingService == nil:
		return notConfigured("indexing")
	case reviewService == nil:
		return notConfigured("review")
	}
	ctx := cmd.Context()

	dir, err := papersDir(nil)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render("Step 1/3: extract"))
	extracted, err := extractionService.ExtractDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	cmd.Println(renderExtraction(extracted))

	cmd.Println(titleStyle.Render("Step 2/3: index"))
	indexed, err := indexingService.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	cmd.Println(renderIndex(indexed))

	cmd.Println(titleStyle.Render("Step 3/3: review"))
	return reviewPass(cmd, "Review", runSample, reviewService.Run)
}
