package presentation

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/nodekit/internal/domain/component"
)

// LineType classifies a line of an interface diff.
type LineType int

const (
	LineContext LineType = iota
	LineAddition
	LineDeletion
)

// DiffLine is one line of an interface diff.
type DiffLine struct {
	Type LineType
	Text string
}

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"})
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"})
)

// Diff compares the interfaces of two node models line by line, see
// InterfaceSummary.
func Diff(a, b *component.NodeModel) []DiffLine {
	return DiffLines(InterfaceSummary(a), InterfaceSummary(b))
}

// DiffLines compares two sequences of lines.
func DiffLines(a, b []string) []DiffLine {
	dmp := diffmatchpatch.New()
	aText := joinLines(a)
	bText := joinLines(b)
	aChars, bChars, lineArray := dmp.DiffLinesToChars(aText, bText)
	diffs := dmp.DiffMain(aChars, bChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out []DiffLine
	for _, d := range diffs {
		t := LineContext
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			t = LineAddition
		case diffmatchpatch.DiffDelete:
			t = LineDeletion
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, DiffLine{Type: t, Text: line})
		}
	}
	return out
}

// HasChanges reports whether any line was added or deleted.
func HasChanges(lines []DiffLine) bool {
	for _, l := range lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}

// RenderDiff formats diff lines with "+", "-" and " " prefixes.
func RenderDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		switch l.Type {
		case LineAddition:
			b.WriteString(addedStyle.Render("+" + l.Text))
		case LineDeletion:
			b.WriteString(deletedStyle.Render("-" + l.Text))
		default:
			b.WriteString(" " + l.Text)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
