package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"

	"github.com/custodia-labs/litreview/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

var (
	theme        = styles.DefaultStyles()
	titleStyle   = theme.Title
	mutedStyle   = theme.Muted
	successStyle = theme.Success
	warningStyle = theme.Warning
	errorStyle   = theme.Error
	boxStyle     = theme.Box
)

const barWidth = 32

// progressPrinter renders per-item progress. On a terminal it redraws a
// single progress bar line; otherwise it prints one line per item.
type progressPrinter struct {
	out io.Writer
	bar progress.Model
	tty bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{
		out: out,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		tty: isTerminal(out),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Review prints one finished fact.
func (p *progressPrinter) Review(ev driving.ReviewProgress) {
	var status string
	switch {
	case ev.Err != nil:
		status = errorStyle.Render("failed: " + ev.Err.Error())
	case ev.Outcome.IsDefault():
		status = warningStyle.Render(fmt.Sprintf("score %d (%s)", ev.Score, ev.Outcome))
	default:
		status = successStyle.Render(fmt.Sprintf("score %d", ev.Score))
	}

	if !p.tty {
		fmt.Fprintf(p.out, "[%d/%d] fact #%d: %s (%s)\n",
			ev.Done, ev.Total, ev.FactNumber, status, ev.Elapsed.Round(100*time.Millisecond))
		return
	}

	percent := 0.0
	if ev.Total > 0 {
		percent = float64(ev.Done) / float64(ev.Total)
	}
	// Clear to end of line so a shorter status does not leave residue.
	fmt.Fprintf(p.out, "\r%s %d/%d  fact #%d %s\x1b[K", p.bar.ViewAs(percent), ev.Done, ev.Total, ev.FactNumber, status)
	if ev.Done == ev.Total {
		fmt.Fprintln(p.out)
	}
}

// summaryRow is one label/value line of a summary box.
type summaryRow struct {
	label string
	value string
}

// renderSummary draws a titled box of aligned label/value rows.
func renderSummary(title string, rows []summaryRow) string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.label))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%-*s", width+1, r.label+":")))
		b.WriteString(" ")
		b.WriteString(r.value)
	}
	return boxStyle.Render(b.String())
}
