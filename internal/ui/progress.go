package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// CheckStatus is the state of one probe check
type CheckStatus int

const (
	CheckPending CheckStatus = iota
	CheckRunning
	CheckPassed
	CheckFailed
)

// Check is one line in a checklist
type Check struct {
	Name   string
	Status CheckStatus
	Note   string // e.g. "1.2ms", "4096 bytes"
}

// Checklist tracks an ordered set of checks with a completion bar
type Checklist struct {
	Checks []Check
	Width  int
	bar    progress.Model
}

// NewChecklist creates a checklist with every check pending
func NewChecklist(names ...string) *Checklist {
	checks := make([]Check, len(names))
	for i, name := range names {
		checks[i] = Check{Name: name}
	}

	width := GetTerminalWidth()
	barWidth := width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}

	return &Checklist{
		Checks: checks,
		Width:  width,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
	}
}

// Set updates check i (0-based). Out of range indexes are ignored.
func (c *Checklist) Set(i int, status CheckStatus, note string) {
	if i < 0 || i >= len(c.Checks) {
		return
	}
	c.Checks[i].Status = status
	c.Checks[i].Note = note
}

// Start marks check i as running
func (c *Checklist) Start(i int) { c.Set(i, CheckRunning, "") }

// Pass marks check i as passed
func (c *Checklist) Pass(i int, note string) { c.Set(i, CheckPassed, note) }

// Fail marks check i as failed
func (c *Checklist) Fail(i int, note string) { c.Set(i, CheckFailed, note) }

// Passed returns the number of passed checks
func (c *Checklist) Passed() int {
	n := 0
	for _, check := range c.Checks {
		if check.Status == CheckPassed {
			n++
		}
	}
	return n
}

// Percent returns the passed fraction in [0, 1]
func (c *Checklist) Percent() float64 {
	if len(c.Checks) == 0 {
		return 0
	}
	return float64(c.Passed()) / float64(len(c.Checks))
}

// Render returns the bar followed by one line per check
func (c *Checklist) Render() string {
	lines := []string{
		fmt.Sprintf("  %s  %3.0f%%  [%d/%d]", c.bar.ViewAs(c.Percent()), c.Percent()*100, c.Passed(), len(c.Checks)),
		"",
	}

	nameWidth := 0
	for _, check := range c.Checks {
		if w := lipgloss.Width(check.Name); w > nameWidth {
			nameWidth = w
		}
	}

	for _, check := range c.Checks {
		var marker string
		style := PendingStyle
		switch check.Status {
		case CheckPassed:
			marker, style = MarkerPass, PassStyle
		case CheckRunning:
			marker, style = MarkerRunning, RunningStyle
		case CheckFailed:
			marker, style = MarkerFail, FailStyle
		default:
			marker = MarkerPending
		}

		line := "  " + style.Render(marker) + " " + style.Render(check.Name)
		if check.Note != "" {
			pad := nameWidth - lipgloss.Width(check.Name) + 2
			line += strings.Repeat(" ", pad) + NoteStyle.Render(check.Note)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

// String implements fmt.Stringer
func (c *Checklist) String() string {
	return c.Render()
}
