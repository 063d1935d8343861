package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/chartpad/pkg/core/chart"
	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/session"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

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

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints dataset size and cache status on one line.
func printStats(rows, columns int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	parts := []string{
		fmt.Sprintf("%d rows", rows),
		fmt.Sprintf("%d columns", columns),
		statusStyle.Render(status),
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}

// =============================================================================
// Tables
// =============================================================================

func newTable() *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderSessions lays out stored sessions as a table.
func renderSessions(list []session.Summary) string {
	t := newTable().Headers("ID", "Chart", "Columns", "Rows", "Updated", "Expires")
	for _, s := range list {
		expires := "never"
		if !s.ExpiresAt.IsZero() {
			expires = formatRelativeTime(time.Until(s.ExpiresAt))
		}
		t.Row(s.ID, string(s.ChartType), strconv.Itoa(s.Columns), strconv.Itoa(s.Rows),
			formatRelativeTime(-time.Since(s.UpdatedAt)), expires)
	}
	return t.Render()
}

// renderSpecSummary describes a spec: its mapping, the visible columns and
// any degraded slots.
func renderSpecSummary(spec chart.Spec) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(string(spec.ChartType)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d rows · %d columns", len(spec.Rows), len(spec.Columns))))
	b.WriteString("\n")

	t := newTable().Headers("Slot", "Column")
	for _, slot := range spec.ChartType.Slots() {
		id := spec.Mapping.Get(slot)
		if slot == mapping.SlotSeries {
			id = strings.Join(spec.Mapping.Series, ", ")
		}
		if id == "" {
			id = chart.NoneLabel
		}
		t.Row(string(slot), id)
	}
	if spec.Bins > 0 {
		t.Row("bins", strconv.Itoa(spec.Bins))
	}
	b.WriteString(t.Render())

	if spec.NoData {
		b.WriteString("\n" + StyleWarning.Render(iconWarning+" no numeric data for this chart"))
	}
	for _, w := range spec.Warnings {
		b.WriteString("\n" + StyleWarning.Render(fmt.Sprintf("%s %s: column %q is %s", iconWarning, w.Slot, w.Column, w.Reason)))
	}
	return b.String()
}

// formatRelativeTime renders d as "in 3h" or "5m ago".
func formatRelativeTime(d time.Duration) string {
	past := d < 0
	if past {
		d = -d
	}
	var s string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		s = fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		s = fmt.Sprintf("%dh", int(d.Hours()))
	default:
		s = fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if past {
		return s + " ago"
	}
	return "in " + s
}
