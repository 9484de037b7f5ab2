package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
)

const tabWidth = 4

type palette struct {
	err, warning, info *color.Color
	help, note, gutter *color.Color
	bold               *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:     mk(color.FgRed, color.Bold),
		warning: mk(color.FgYellow, color.Bold),
		info:    mk(color.FgCyan, color.Bold),
		help:    mk(color.FgGreen, color.Bold),
		note:    mk(color.FgBlue, color.Bold),
		gutter:  mk(color.FgBlue),
		bold:    mk(color.Bold),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}

// Pretty renders every diagnostic of f as an annotated source snippet:
//
//	warning[RULE]: description
//	 --> path:line:col
//	  |
//	1 | source line
//	  | ^^^^ message
//	  = help: replace with `value`
func Pretty(w io.Writer, f File, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	path := FormatPath(f.Path, opts.PathMode, opts.BaseDir)
	lines := splitLines(f.Text)

	var b strings.Builder
	for _, e := range f.Entries {
		renderEntry(&b, p, path, lines, e, opts)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderEntry(b *strings.Builder, p palette, path string, lines []string, e diag.Entry, opts PrettyOpts) {
	d := e.Diagnostic
	r := d.Range
	sev := p.severity(d.Severity)

	title := d.Description
	if title == "" {
		title = d.Message
	}
	header := sev.Sprint(d.Severity.Label())
	if d.Code != "" {
		header += sev.Sprintf("[%s]", d.Code)
	}
	fmt.Fprintf(b, "%s%s %s\n", header, p.bold.Sprint(":"), p.bold.Sprint(sanitizeMessage(title)))

	lastLine := r.End.Line
	if r.End.Col == 1 && r.End.Line > r.Start.Line {
		lastLine--
	}
	lastLine = min(lastLine, len(lines))
	first := max(1, r.Start.Line-max(opts.Context, 0))
	gutterW := len(strconv.Itoa(max(lastLine, r.Start.Line)))
	pad := strings.Repeat(" ", gutterW)
	bar := p.gutter.Sprint("|")

	fmt.Fprintf(b, "%s%s %s:%d:%d\n", pad, p.gutter.Sprint("-->"), path, r.Start.Line, r.Start.Col)
	fmt.Fprintf(b, "%s %s\n", pad, bar)
	for ln := first; ln <= lastLine; ln++ {
		line := lines[ln-1]
		fmt.Fprintf(b, "%s %s %s\n", p.gutter.Sprintf("%*d", gutterW, ln), bar, expandTabs(line))
		if ln < r.Start.Line {
			continue
		}
		startCol := 1
		if ln == r.Start.Line {
			startCol = r.Start.Col
		}
		endCol := len([]rune(line)) + 1
		if ln == r.End.Line {
			endCol = r.End.Col
		}
		indent := displayWidth(line, 1, startCol)
		width := max(1, displayWidth(line, startCol, endCol))
		marks := strings.Repeat("^", width)
		if ln == lastLine {
			marks += " " + sanitizeMessage(d.Message)
		}
		fmt.Fprintf(b, "%s %s %s%s\n", pad, bar, strings.Repeat(" ", indent), sev.Sprint(marks))
	}

	if opts.ShowFixes && len(e.Actions) > 0 {
		values := make([]string, 0, len(e.Actions))
		for _, a := range e.Actions {
			values = append(values, "`"+a.Edit.NewText+"`")
		}
		fmt.Fprintf(b, "%s %s %s: replace with %s\n", pad, p.gutter.Sprint("="), p.help.Sprint("help"), strings.Join(values, ", "))
	}
	if opts.ShowURLs {
		for _, u := range d.URLs {
			fmt.Fprintf(b, "%s %s %s: %s\n", pad, p.gutter.Sprint("="), p.note.Sprint("note"), u)
		}
	}
	b.WriteString("\n")
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth measures columns [from, to) of line in terminal cells.
func displayWidth(line string, from, to int) int {
	runes := []rune(line)
	from = min(max(from, 1), len(runes)+1)
	to = min(max(to, from), len(runes)+1)
	w := 0
	for _, r := range runes[from-1 : to-1] {
		if r == '\t' {
			w += tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}
