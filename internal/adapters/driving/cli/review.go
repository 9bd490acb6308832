package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litreview/internal/adapters/driving/tui"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

var (
	reviewSample int
	retrySample  int
	reviewPlain  bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Assess every fact against the literature",
	Long: `Assesses each fact in increasing number order: the most similar chunks
are retrieved, handed to the judge model and its verdict is stored and
written into the catalogue CSV.

Progress is checkpointed after every fact, so an interrupted review resumes
after the last completed fact. Facts that fail are recorded and can be
re-run with 'litreview retry-failed'.

On a terminal a live view shows progress; press q to stop after the
current fact. Use --plain for one line per fact.`,
	Args: cobra.NoArgs,
	RunE: runReview,
}

var retryFailedCmd = &cobra.Command{
	Use:   "retry-failed",
	Short: "Re-assess facts that failed in earlier runs",
	Long: `Re-assesses the facts recorded as failed in the checkpoint. Facts that
succeed leave the failure list; the checkpoint cursor does not move.`,
	Args: cobra.NoArgs,
	RunE: runRetryFailed,
}

func init() {
	reviewCmd.Flags().IntVar(&reviewSample, "sample", 0, "assess only n evenly spaced facts")
	retryFailedCmd.Flags().IntVar(&retrySample, "sample", 0, "retry at most n failed facts")
	for _, c := range []*cobra.Command{reviewCmd, retryFailedCmd} {
		c.Flags().BoolVar(&reviewPlain, "plain", false, "print one line per fact instead of the live view")
		requires(c, NeedStore|NeedEmbedding|NeedLLM)
		rootCmd.AddCommand(c)
	}
}

func runReview(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return notConfigured("review")
	}
	if reviewSample < 0 {
		return fmt.Errorf("--sample must not be negative")
	}
	return reviewPass(cmd, "Review", reviewSample, reviewService.Run)
}

func runRetryFailed(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return notConfigured("review")
	}
	if retrySample < 0 {
		return fmt.Errorf("--sample must not be negative")
	}
	return reviewPass(cmd, "Retry", retrySample, reviewService.RetryFailed)
}

type passFunc func(context.Context, driving.ReviewOptions) (*driving.ReviewSummary, error)

// reviewPass runs pass with the live view on a terminal, otherwise with
// line-per-fact progress, then prints the summary.
func reviewPass(cmd *cobra.Command, title string, sample int, pass passFunc) error {
	var summary *driving.ReviewSummary
	var err error

	if !reviewPlain && isTerminal(cmd.OutOrStdout()) {
		summary, err = tui.Run(cmd.Context(), title, func(ctx context.Context, progress func(driving.ReviewProgress)) (*driving.ReviewSummary, error) {
			return pass(ctx, driving.ReviewOptions{Sample: sample, Progress: progress})
		})
	} else {
		printer := newProgressPrinter(cmd.OutOrStdout())
		summary, err = pass(cmd.Context(), driving.ReviewOptions{Sample: sample, Progress: printer.Review})
	}

	if summary != nil {
		cmd.Println(renderReview(title, summary))
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", strings.ToLower(title), err)
	}
	return nil
}

func renderReview(title string, s *driving.ReviewSummary) string {
	failed := strconv.Itoa(s.Failed)
	if s.Failed > 0 {
		failed = errorStyle.Render(failed)
	}
	return renderSummary(title, []summaryRow{
		{"Run", mutedStyle.Render(s.RunID)},
		{"Processed", strconv.Itoa(s.Processed)},
		{"Succeeded", successStyle.Render(strconv.Itoa(s.Succeeded))},
		{"Failed", failed},
		{"No evidence", strconv.Itoa(s.NoEvidence)},
		{"Parse failures", strconv.Itoa(s.ParseFailure)},
		{"Stored", strconv.Itoa(s.Assessments)},
		{"Duration", s.Duration.Round(time.Second).String()},
		{"Per fact", s.AverageTime().Round(100*time.Millisecond).String()},
	})
}
