package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litreview/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show review progress",
	Long: `Shows the corpus size, the review checkpoint, failed facts and how
stored assessments are distributed across support levels.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	requires(statusCmd, NeedStore)
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return notConfigured("review")
	}

	status, err := reviewService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	rows := []summaryRow{
		{"Documents", strconv.Itoa(status.Documents)},
		{"Chunks", strconv.Itoa(status.Chunks)},
		{"Assessments", strconv.Itoa(status.Assessments)},
	}

	cp := status.Checkpoint
	if cp == nil {
		rows = append(rows, summaryRow{"Checkpoint", mutedStyle.Render("none (review not started)")})
	} else {
		rows = append(rows,
			summaryRow{"Last fact", "#" + strconv.Itoa(cp.LastCompletedFact)},
			summaryRow{"Processed", fmt.Sprintf("%d / %d", cp.FactsProcessed, cp.TotalFacts)},
			summaryRow{"Remaining", strconv.Itoa(cp.Remaining())},
			summaryRow{"Failed", failedFacts(cp.FailedFacts)},
			summaryRow{"Started", cp.StartedAt.Local().Format(time.DateTime)},
			summaryRow{"Updated", cp.LastUpdated.Local().Format(time.DateTime)},
		)
	}
	cmd.Println(renderSummary("Status", rows))

	if status.Assessments > 0 {
		levels := make([]summaryRow, 0, len(domain.AllSupportLevels()))
		for _, l := range domain.AllSupportLevels() {
			levels = append(levels, summaryRow{l.Description(), strconv.Itoa(status.SupportLevels[l])})
		}
		cmd.Println(renderSummary("Support levels", levels))
	}
	return nil
}

// failedFacts lists failed fact numbers, abbreviated after ten.
func failedFacts(numbers []int) string {
	if len(numbers) == 0 {
		return "0"
	}
	const shown = 10
	parts := make([]string, 0, shown)
	for i, n := range numbers {
		if i == shown {
			break
		}
		parts = append(parts, "#"+strconv.Itoa(n))
	}
	list := strings.Join(parts, ", ")
	if len(numbers) > shown {
		list += fmt.Sprintf(" (+%d more)", len(numbers)-shown)
	}
	return errorStyle.Render(fmt.Sprintf("%d: %s", len(numbers), list))
}
