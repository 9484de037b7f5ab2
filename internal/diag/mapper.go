package diag

import (
	"errors"
	"fmt"

	"quill/internal/checker"
	"quill/internal/source"
)

// ErrProtocol marks responses that break the checking service contract.
var ErrProtocol = errors.New("checker protocol violation")

// ProtocolError describes the first offending match of a response.
type ProtocolError struct {
	Index  int
	Offset int
	Length int
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("match %d (offset %d, length %d): %s", e.Index, e.Offset, e.Length, e.Reason)
}

func (e *ProtocolError) Unwrap() error { return ErrProtocol }

// Validate checks that the matches of resp can be folded over a chunk of
// total characters.
func Validate(resp *checker.Response, total int) error {
	if resp == nil {
		return nil
	}
	prevEnd := 0
	for i, m := range resp.Matches {
		fail := func(reason string) error {
			return &ProtocolError{Index: i, Offset: m.Offset, Length: m.Length, Reason: reason}
		}
		switch {
		case m.Offset < 0:
			return fail("negative offset")
		case m.Length < 0:
			return fail("negative length")
		case m.Offset < prevEnd:
			if i > 0 && m.Offset < resp.Matches[i-1].Offset {
				return fail("offsets out of order")
			}
			return fail("overlaps previous match")
		case m.Offset+m.Length > total:
			return fail(fmt.Sprintf("overruns chunk of %d characters", total))
		}
		prevEnd = m.Offset + m.Length
	}
	return nil
}

// MapResponse converts the matches of one chunk into entries and leaves pos
// at the end of the chunk. pos must sit at the chunk start. On a protocol
// violation pos is not moved.
func MapResponse(uri string, pos *source.Position, resp *checker.Response, total int) ([]Entry, error) {
	if err := Validate(resp, total); err != nil {
		return nil, err
	}
	var matches []checker.Match
	if resp != nil {
		matches = resp.Matches
	}
	entries := make([]Entry, 0, len(matches))
	last := 0
	for _, m := range matches {
		pos.Advance(m.Offset - last)
		start := pos.Location()
		end := pos.Clone()
		end.Advance(m.Length)
		r := source.Range{Start: start, End: end.Location()}

		entries = append(entries, Entry{
			Diagnostic: newDiagnostic(r, &m),
			Actions:    actionsFor(uri, r, m.Replacements),
		})
		last = m.Offset
	}
	pos.Advance(total - last)
	return entries, nil
}

// Skip consumes a chunk whose response is unavailable.
func Skip(pos *source.Position, total int) {
	pos.Advance(total)
}

func newDiagnostic(r source.Range, m *checker.Match) Diagnostic {
	d := Diagnostic{
		Range:       r,
		Severity:    SeverityFor(m.Rule.IssueType),
		Code:        m.Rule.ID,
		Message:     m.Message,
		Short:       m.ShortMessage,
		Description: m.Rule.Description,
		Category:    m.Rule.Category.Name,
	}
	for _, u := range m.Rule.URLs {
		if u.Value != "" {
			d.URLs = append(d.URLs, u.Value)
		}
	}
	return d
}

func actionsFor(uri string, r source.Range, replacements []checker.Replacement) []Action {
	if len(replacements) == 0 {
		return nil
	}
	actions := make([]Action, 0, len(replacements))
	for i, rep := range replacements {
		actions = append(actions, NewReplaceAction(uri, r, rep.Value, i == 0))
	}
	return actions
}
