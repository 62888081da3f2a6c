package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"portfolio_analyzer/internal/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
)

// renderSummary is the short console view of a saved report.
func renderSummary(r models.Report, path string) string {
	a := r.Analysis
	s := a.Analysis.ExecutiveSummary
	cur := a.Metrics.CurrencySymbol()

	pnlStyle := gainStyle
	if s.TotalPnL < 0 {
		pnlStyle = lossStyle
	}

	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-16s", label)) + value
	}

	lines := []string{
		row("Holdings", fmt.Sprintf("%d", s.NumberOfHoldings)),
		row("Invested", fmt.Sprintf("%s%.2f", cur, s.TotalInvestment)),
		row("Current value", fmt.Sprintf("%s%.2f", cur, s.CurrentValue)),
		row("P&L", pnlStyle.Render(fmt.Sprintf("%s%.2f (%+.2f%%)", cur, s.TotalPnL, s.TotalPnLPercentage))),
		row("Risk level", s.RiskLevel),
	}

	if len(a.Analysis.KeyInsights) > 0 {
		lines = append(lines, "", labelStyle.Render("Key insights"))
		for _, insight := range a.Analysis.KeyInsights {
			lines = append(lines, "  • "+insight)
		}
	}

	if r.Suggestions != nil && len(r.Suggestions.Suggestions.ImmediateActions) > 0 {
		lines = append(lines, "", labelStyle.Render("Immediate actions"))
		for _, act := range r.Suggestions.Suggestions.ImmediateActions {
			lines = append(lines, fmt.Sprintf("  • [%s] %s (%s)", act.Priority, act.Action, act.Timeframe))
		}
	}

	if a.FallbackUsed {
		lines = append(lines, "", warnStyle.Render("⚠ Fallback used: "+a.Analysis.ParsingNote))
	}

	title := titleStyle.Render("Portfolio Analysis " + r.Version)
	body := boxStyle.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, labelStyle.Render("Report saved to "+path))
}
