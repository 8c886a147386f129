package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/flowweave/flowweave/pkg/history"
	"github.com/flowweave/flowweave/pkg/sankey/weave"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints graph statistics on a single line.
func printStats(nodeCount, linkCount int, cached bool) {
	var parts []string
	if nodeCount > 0 {
		parts = append(parts, fmt.Sprintf("%d nodes", nodeCount))
	}
	if linkCount > 0 {
		parts = append(parts, fmt.Sprintf("%d links", linkCount))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}
	parts = append(parts, statusStyle.Render(status))

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Println(line)
}

// printDiagnostics prints coverage warnings from a weave. A fully
// covered dataset prints a single confirmation line.
func printDiagnostics(d weave.Diagnostics) {
	printDetail("routed %s of %s total", formatValue(d.RoutedValue), formatValue(d.InputValue))

	if !d.HasWarnings() {
		return
	}
	if d.UnmatchedCount > 0 {
		printWarning("%d flows (%s) matched no bundle", d.UnmatchedCount, formatValue(d.UnmatchedValue))
	}
	for _, name := range d.EmptySelectors {
		printWarning("selector %q matched no processes", name)
	}
	if d.OtherHits > 0 {
		printWarning("%d flows fell into catch-all buckets", d.OtherHits)
	}
}

// formatValue renders a flow value compactly.
func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

// =============================================================================
// Run Display
// =============================================================================

// shortHash truncates a content hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	if h == "" {
		return "—"
	}
	return h
}

// printRun prints a recorded run in full.
func printRun(run history.Run) {
	fmt.Println(StyleTitle.Render("Run " + run.ID))
	printKeyValue("created", run.CreatedAt.Local().Format(time.RFC1123))
	printKeyValue("dataset", shortHash(run.DatasetHash))
	printKeyValue("definition", shortHash(run.DefinitionHash))
	printKeyValue("graph", shortHash(run.GraphHash))
	printKeyValue("nodes", fmt.Sprintf("%d", run.NodeCount))
	printKeyValue("links", fmt.Sprintf("%d", run.LinkCount))
	printKeyValue("unmatched", fmt.Sprintf("%d", run.Unmatched))
	printKeyValue("routed", fmt.Sprintf("%s / %s", formatValue(run.RoutedValue), formatValue(run.InputValue)))
	printKeyValue("duration", run.Duration.Round(time.Millisecond).String())
}

// runTable renders runs as a bordered table. When cursor is
// non-negative that row is highlighted, for the interactive browser.
func runTable(runs []history.Run, cursor int) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(runs))
	for i, run := range runs {
		marker := "  "
		if i == cursor {
			marker = "▸ "
		}
		coverage := "ok"
		if run.Unmatched > 0 {
			coverage = fmt.Sprintf("%d unmatched", run.Unmatched)
		}
		rows[i] = []string{
			marker,
			shortHash(run.ID),
			formatRelativeTime(run.CreatedAt),
			fmt.Sprintf("%d/%d", run.NodeCount, run.LinkCount),
			formatValue(run.RoutedValue),
			coverage,
			run.Duration.Round(time.Millisecond).String(),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Run", "When", "Nodes/Links", "Routed", "Coverage", "Took").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(runs) {
				return lipgloss.NewStyle()
			}
			run := runs[row]
			base := lipgloss.NewStyle()
			if row == cursor {
				base = base.Bold(true).Foreground(colorCyan)
			}
			if col == 5 && run.Unmatched > 0 {
				return base.Foreground(colorYellow)
			}
			if col == 2 || col == 6 {
				return base.Foreground(colorDim)
			}
			return base
		}).
		Render()
}

// formatRelativeTime renders a timestamp relative to now for recent
// runs, falling back to an absolute date.
func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
