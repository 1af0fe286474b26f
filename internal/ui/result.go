package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Result is the box printed after a probe run
type Result struct {
	Passed  bool
	Title   string
	Details []Param
	Err     error
	Hints   []string // Shown only on failure
	Width   int
}

// NewPass creates a passing result
func NewPass(title string, details ...Param) *Result {
	return &Result{Passed: true, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFail creates a failing result
func NewFail(title string, err error, hints ...string) *Result {
	return &Result{Title: title, Err: err, Hints: hints, Width: GetTerminalWidth()}
}

// Render returns the styled result box
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	color := SuccessColor
	title := PassStyle.Bold(true).Render(fmt.Sprintf(" %s  PASS  ─  %s", MarkerPass, r.Title))
	if !r.Passed {
		color = ErrorColor
		title = FailStyle.Render(fmt.Sprintf(" %s  FAIL  ─  %s", MarkerFail, r.Title))
	}

	lines := []string{"", title, ""}
	for _, d := range r.Details {
		lines = append(lines, " "+KeyStyle.Render(d.Key+":")+" "+ValueStyle.Render(d.Value))
	}
	if r.Err != nil {
		lines = append(lines, lipgloss.NewStyle().Foreground(ErrorColor).Render(" Error: "+r.Err.Error()))
	}
	if !r.Passed && len(r.Hints) > 0 {
		lines = append(lines, "", PendingStyle.Bold(true).Render(" Troubleshooting:"))
		for _, hint := range r.Hints {
			lines = append(lines, PendingStyle.Render("   • "+hint))
		}
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
