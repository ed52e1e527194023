// Package diffview renders line diffs between two diagram sources.
package diffview

import (
	"strings"

	"github.com/fatih/color"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of a diff
type Line struct {
	Op   Op
	Text string
}

// Painter styles diff lines for a particular output
type Painter interface {
	Equal(s string) string
	Insert(s string) string
	Delete(s string) string
}

// Lines computes a line-level diff of before and after
func Lines(before, after string) []Line {
	d := dmp.New()
	a, b, table := d.DiffLinesToChars(before, after)
	diffs := d.DiffCharsToLines(d.DiffMain(a, b, false), table)

	var out []Line
	for _, df := range diffs {
		op := Equal
		switch df.Type {
		case dmp.DiffInsert:
			op = Insert
		case dmp.DiffDelete:
			op = Delete
		}
		for _, text := range splitLines(df.Text) {
			out = append(out, Line{Op: op, Text: text})
		}
	}
	return out
}

// Changed reports how many lines were inserted and deleted
func Changed(lines []Line) (inserted, deleted int) {
	for _, l := range lines {
		switch l.Op {
		case Insert:
			inserted++
		case Delete:
			deleted++
		}
	}
	return inserted, deleted
}

// Unified renders a diff with "+ ", "- " and "  " prefixes. Unchanged lines
// further than context lines from a change are elided; a negative context
// keeps them all.
func Unified(before, after string, context int, p Painter) string {
	if before == after {
		return "No changes\n"
	}
	if p == nil {
		p = Plain{}
	}

	lines := Lines(before, after)
	keep := visible(lines, context)

	var sb strings.Builder
	skipped := false
	for i, l := range lines {
		if !keep[i] {
			if !skipped {
				sb.WriteString(p.Equal("  ...") + "\n")
				skipped = true
			}
			continue
		}
		skipped = false
		switch l.Op {
		case Insert:
			sb.WriteString(p.Insert("+ "+l.Text) + "\n")
		case Delete:
			sb.WriteString(p.Delete("- "+l.Text) + "\n")
		default:
			sb.WriteString(p.Equal("  "+l.Text) + "\n")
		}
	}
	return sb.String()
}

func visible(lines []Line, context int) []bool {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if context < 0 || l.Op != Equal {
			keep[i] = true
			continue
		}
		for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
			if lines[j].Op != Equal {
				keep[i] = true
				break
			}
		}
	}
	return keep
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// Plain leaves lines unstyled
type Plain struct{}

func (Plain) Equal(s string) string  { return s }
func (Plain) Insert(s string) string { return s }
func (Plain) Delete(s string) string { return s }

// Color styles lines with terminal colors. It honors color.NoColor.
type Color struct{}

var (
	insertColor = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed)
	equalColor  = color.New(color.Faint)
)

func (Color) Equal(s string) string  { return equalColor.Sprint(s) }
func (Color) Insert(s string) string { return insertColor.Sprint(s) }
func (Color) Delete(s string) string { return deleteColor.Sprint(s) }
