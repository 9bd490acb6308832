// Package tui renders a live view of a review pass with Bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/litreview/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/litreview/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/litreview/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/litreview/internal/core/domain"
	"github.com/custodia-labs/litreview/internal/core/ports/driving"
)

// recentLimit is how many finished facts the view lists.
const recentLimit = 8

// RunFunc runs one review pass, reporting each finished fact to progress.
type RunFunc func(ctx context.Context, progress func(driving.ReviewProgress)) (*driving.ReviewSummary, error)

// App is the review view following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	title  string
	stop   context.CancelFunc
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
	bar    progress.Model

	done   int
	total  int
	failed int
	levels map[domain.SupportLevel]int
	recent []driving.ReviewProgress

	showRecent bool
	stopping   bool
	finished   bool
	summary    *driving.ReviewSummary
	err        error
	start      time.Time
	width      int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the view. stop is called when the user asks to stop.
func NewApp(title string, stop context.CancelFunc) *App {
	return &App{
		title:      title,
		stop:       stop,
		styles:     styles.DefaultStyles(),
		keys:       keymap.DefaultKeyMap(),
		help:       help.New(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		levels:     make(map[domain.SupportLevel]int),
		showRecent: true,
		start:      time.Now(),
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("litreview - " + a.title)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.Width = max(10, min(msg.Width-24, 60))
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Stop):
			if a.finished {
				return a, tea.Quit
			}
			if !a.stopping {
				a.stopping = true
				if a.stop != nil {
					a.stop()
				}
			}
		case key.Matches(msg, a.keys.Recent):
			a.showRecent = !a.showRecent
		}
		return a, nil

	case messages.FactReviewed:
		return a, a.record(msg.Progress)

	case messages.ReviewFinished:
		a.finished = true
		a.summary = msg.Summary
		a.err = msg.Err
		return a, tea.Quit

	case progress.FrameMsg:
		m, cmd := a.bar.Update(msg)
		if bar, ok := m.(progress.Model); ok {
			a.bar = bar
		}
		return a, cmd
	}
	return a, nil
}

func (a *App) record(p driving.ReviewProgress) tea.Cmd {
	a.done, a.total = p.Done, p.Total
	if p.Err != nil {
		a.failed++
	} else {
		a.levels[domain.SupportLevelFor(p.Score)]++
	}

	a.recent = append(a.recent, p)
	if len(a.recent) > recentLimit {
		a.recent = a.recent[len(a.recent)-recentLimit:]
	}
	return a.bar.SetPercent(a.Percent())
}

// Percent returns the fraction of facts finished.
func (a *App) Percent() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.done) / float64(a.total)
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render(a.title))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s  %d/%d facts  %s\n",
		a.bar.View(), a.done, a.total, a.styles.Muted.Render(time.Since(a.start).Round(time.Second).String()))

	b.WriteString("\n")
	for _, l := range domain.AllSupportLevels() {
		fmt.Fprintf(&b, "  %-40s %s\n", l.Description(), a.styles.Level(l).Render(fmt.Sprint(a.levels[l])))
	}
	if a.failed > 0 {
		fmt.Fprintf(&b, "  %-40s %s\n", "Failed", a.styles.Error.Render(fmt.Sprint(a.failed)))
	}

	if a.showRecent && len(a.recent) > 0 {
		b.WriteString("\n")
		b.WriteString(a.styles.Subtitle.Render("Recent"))
		b.WriteString("\n")
		for i := len(a.recent) - 1; i >= 0; i-- {
			b.WriteString("  ")
			b.WriteString(a.recentLine(a.recent[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case a.finished:
		b.WriteString(a.styles.Success.Render("Review finished."))
	case a.stopping:
		b.WriteString(a.styles.Warning.Render("Stopping after the current fact..."))
	default:
		b.WriteString(a.help.ShortHelpView(a.keys.ShortHelp()))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) recentLine(p driving.ReviewProgress) string {
	label := fmt.Sprintf("fact #%-5d", p.FactNumber)
	if p.Err != nil {
		return label + " " + a.styles.Error.Render("failed: "+p.Err.Error())
	}
	level := domain.SupportLevelFor(p.Score)
	line := fmt.Sprintf("%s score %3d  %s", label, p.Score, a.styles.Level(level).Render(level.Description()))
	if p.Outcome.IsDefault() {
		line += " " + a.styles.Muted.Render("("+p.Outcome.String()+")")
	}
	return line
}

// Summary returns the result delivered by ReviewFinished.
func (a *App) Summary() (*driving.ReviewSummary, error) {
	return a.summary, a.err
}

// Finished reports whether the review pass has returned.
func (a *App) Finished() bool {
	return a.finished
}

// Stopping reports whether the user asked to stop.
func (a *App) Stopping() bool {
	return a.stopping
}

type runResult struct {
	summary *driving.ReviewSummary
	err     error
}

// Run executes run while showing the review view. Stopping from the view
// cancels the pass between facts; Run always waits for the pass to return.
func Run(ctx context.Context, title string, run RunFunc, opts ...tea.ProgramOption) (*driving.ReviewSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := NewApp(title, cancel)
	p := tea.NewProgram(app, opts...)

	results := make(chan runResult, 1)
	go func() {
		summary, err := run(ctx, func(ev driving.ReviewProgress) {
			p.Send(messages.FactReviewed{Progress: ev})
		})
		results <- runResult{summary: summary, err: err}
		p.Send(messages.ReviewFinished{Summary: summary, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-results
		return nil, fmt.Errorf("review view: %w", err)
	}

	// The view may have exited first, e.g. when its input closed.
	cancel()
	res := <-results
	return res.summary, res.err
}
