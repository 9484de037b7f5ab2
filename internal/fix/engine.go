// Package fix applies quick-fix actions to document text.
package fix

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"quill/internal/diag"
	"quill/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeAll applies the preferred action of every entry.
	ApplyModeAll ApplyMode = iota
	// ApplyModeOnce applies the preferred action of the first fixable entry.
	ApplyModeOnce
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode  ApplyMode
	Rules []string // only entries with these rule ids; empty means all
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Title   string
	Code    string
	Message string
	Range   source.Range
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	Title  string
	Code   string
	Range  source.Range
	Reason string
}

// ApplyResult carries the rewritten text with the applied and skipped fixes.
type ApplyResult struct {
	Text    string
	Applied []AppliedFix
	Skipped []SkippedFix
}

type candidate struct {
	entry  diag.Entry
	action diag.Action
	start  int // byte offsets into the original text
	end    int
	order  int
}

// Apply selects one action per entry according to opts and applies them to
// text. Edits that overlap an already selected edit are skipped. Ranges are
// document ranges over text as produced by a check pass.
func Apply(text string, entries []diag.Entry, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{Text: text}

	lines := lineStarts(text)
	candidates := make([]candidate, 0, len(entries))
	for i, e := range entries {
		r := e.Diagnostic.Range
		if len(opts.Rules) > 0 && !slices.Contains(opts.Rules, e.Diagnostic.Code) {
			continue
		}
		action, ok := preferred(e.Actions)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedFix{Code: e.Diagnostic.Code, Range: r, Reason: "no replacement suggested"})
			continue
		}
		start, okStart := byteOffset(text, lines, action.Edit.Range.Start)
		end, okEnd := byteOffset(text, lines, action.Edit.Range.End)
		if !okStart || !okEnd || end < start {
			result.Skipped = append(result.Skipped, SkippedFix{Title: action.Title, Code: e.Diagnostic.Code, Range: r, Reason: "edit range out of range"})
			continue
		}
		candidates = append(candidates, candidate{entry: e, action: action, start: start, end: end, order: i})
	}
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].start != candidates[j].start {
			return candidates[i].start < candidates[j].start
		}
		if candidates[i].end != candidates[j].end {
			return candidates[i].end < candidates[j].end
		}
		return candidates[i].order < candidates[j].order
	})

	selected := make([]candidate, 0, len(candidates))
	for _, cand := range candidates {
		if len(selected) > 0 && spansConflict(selected[len(selected)-1], cand) {
			result.Skipped = append(result.Skipped, SkippedFix{
				Title:  cand.action.Title,
				Code:   cand.entry.Diagnostic.Code,
				Range:  cand.entry.Diagnostic.Range,
				Reason: "conflicts with previously applied edit",
			})
			continue
		}
		selected = append(selected, cand)
		if opts.Mode == ApplyModeOnce {
			break
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, cand := range selected {
		b.WriteString(text[last:cand.start])
		b.WriteString(cand.action.Edit.NewText)
		last = cand.end
		result.Applied = append(result.Applied, AppliedFix{
			Title:   cand.action.Title,
			Code:    cand.entry.Diagnostic.Code,
			Message: cand.entry.Diagnostic.Message,
			Range:   cand.entry.Diagnostic.Range,
		})
	}
	b.WriteString(text[last:])
	result.Text = b.String()
	return result, nil
}

func preferred(actions []diag.Action) (diag.Action, bool) {
	for _, a := range actions {
		if a.IsPreferred {
			return a, true
		}
	}
	if len(actions) > 0 {
		return actions[0], true
	}
	return diag.Action{}, false
}

// spansConflict reports whether b, which starts no earlier than a, overlaps
// it. Spans are half-open; edits starting at the same point always conflict.
func spansConflict(a, b candidate) bool {
	return b.start < a.end || b.start == a.start
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// byteOffset converts a 1-based line and code point column into a byte
// offset. A column one past the last character of a line addresses its line
// break.
func byteOffset(text string, lines []int, loc source.Location) (int, bool) {
	if loc.Line < 1 || loc.Col < 1 {
		return 0, false
	}
	if loc.Line > len(lines) {
		return 0, false
	}
	off := lines[loc.Line-1]
	for col := 1; col < loc.Col; col++ {
		if off >= len(text) || text[off] == '\n' {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[off:])
		off += size
	}
	return off, true
}

// Describe renders a one-line summary of the result.
func (r *ApplyResult) Describe() string {
	return fmt.Sprintf("%d applied, %d skipped", len(r.Applied), len(r.Skipped))
}
