package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

var indexOnly string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Chunk papers and embed chunks and facts",
	Long: `Splits extracted papers into overlapping chunks, embeds every chunk that
has no embedding yet, then embeds the fact catalogue.

Embedding failures never stop indexing: a chunk or fact that cannot be
embedded is stored with a zero vector and reported as degraded.

Use --only to run a single step: chunk, embed or facts.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexOnly, "only", "", "run a single step (chunk, embed, facts)")
	requires(indexCmd, NeedStore|NeedEmbedding)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexingService == nil {
		return notConfigured("indexing")
	}

	var step func(context.Context) (*driving.IndexReport, error)
	switch indexOnly {
	case "":
		step = indexingService.Run
	case "chunk":
		step = indexingService.ChunkDocuments
	case "embed":
		step = indexingService.EmbedChunks
	case "facts":
		step = indexingService.EmbedFacts
	default:
		return fmt.Errorf("unknown step %q (want chunk, embed or facts)", indexOnly)
	}

	cmd.Println("Indexing...")
	report, err := step(cmd.Context())
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	cmd.Println(renderIndex(report))
	return nil
}

func renderIndex(r *driving.IndexReport) string {
	degraded := func(n int) string {
		if n == 0 {
			return "0"
		}
		return warningStyle.Render(strconv.Itoa(n))
	}
	return renderSummary("Indexing", []summaryRow{
		{"Documents chunked", strconv.Itoa(r.DocumentsChunked)},
		{"Chunks created", strconv.Itoa(r.ChunksCreated)},
		{"Chunks embedded", strconv.Itoa(r.ChunksEmbedded)},
		{"Chunks degraded", degraded(r.ChunksDegraded)},
		{"Facts embedded", strconv.Itoa(r.FactsEmbedded)},
		{"Facts degraded", degraded(r.FactsDegraded)},
	})
}
