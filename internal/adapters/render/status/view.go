// Package status renders the agent's state file as a terminal summary.
package status

import (
	"fmt"
	"strings"

	"github.com/3mragent/moltbot/internal/application"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	AgentName          string
	Submolt            string
	DryRun             bool
	MaxCommentsPerHour int
	// MaxAdviceShown caps the advice list; older entries are summarized.
	MaxAdviceShown int
}

func Render(summary application.StateSummary, opts RenderOptions) string {
	return renderView(summary, opts, newStyles())
}

func renderView(summary application.StateSummary, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Moltbot Agent: %s", opts.AgentName)),
		s.header.Render(fmt.Sprintf("submolt: %s, mode: %s", opts.Submolt, modeLabel(opts.DryRun))),
	}

	lines = append(lines,
		s.section.Render(repliesLine(summary, s)),
		budgetLine(summary, opts, s),
	)

	lines = append(lines, s.section.Render(adviceSection(summary, opts, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "dry-run"
	}
	return "live"
}

func repliesLine(summary application.StateSummary, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("replies:"),
		" ",
		s.value.Render(fmt.Sprintf("%d posted, %d dry-run", summary.PostedCount, summary.DryRunCount)),
	)
}

func budgetLine(summary application.StateSummary, opts RenderOptions, s styles) string {
	if opts.MaxCommentsPerHour <= 0 {
		return s.key.Render("hourly budget:") + " " + s.value.Render("unlimited")
	}

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("hourly budget:"),
		" ",
		renderBudgetBar(summary.CommentsLastHour, opts.MaxCommentsPerHour, 16, s),
		" ",
		s.value.Render(fmt.Sprintf("%d/%d used", summary.CommentsLastHour, opts.MaxCommentsPerHour)),
	)

	if summary.CommentsLastHour >= opts.MaxCommentsPerHour {
		line += " " + s.warning.Render("[exhausted]")
	}

	return line
}

func adviceSection(summary application.StateSummary, opts RenderOptions, s styles) string {
	parts := []string{s.key.Render(fmt.Sprintf("recent advice (%d remembered):", len(summary.RecentAdvice)))}

	if len(summary.RecentAdvice) == 0 {
		parts = append(parts, s.empty.Render("  none yet"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	shown := summary.RecentAdvice
	hidden := 0
	if opts.MaxAdviceShown > 0 && len(shown) > opts.MaxAdviceShown {
		hidden = len(shown) - opts.MaxAdviceShown
		shown = shown[hidden:]
	}

	if hidden > 0 {
		parts = append(parts, s.empty.Render(fmt.Sprintf("  ... %d older entries", hidden)))
	}
	for _, entry := range shown {
		parts = append(parts, s.advice.Render("  "+truncateAdvice(entry, 72)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderBudgetBar(used, max, width int, s styles) string {
	if width <= 0 || max <= 0 {
		return ""
	}

	filled := used * width / max
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func truncateAdvice(entry string, max int) string {
	if len(entry) <= max {
		return entry
	}
	return entry[:max] + "..."
}
