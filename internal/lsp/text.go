package lsp

import (
	"strings"
	"unicode/utf8"

	"quill/internal/source"
)

func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := offsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetForPosition returns the byte offset of pos, clamped to the line end
// and to the text length. A character inside a surrogate pair resolves to the
// start of that code point.
func offsetForPosition(text string, pos position) int {
	i, ok := lineStart(text, pos.Line)
	if !ok {
		return len(text)
	}
	units := uint32(0)
	for i < len(text) && text[i] != '\n' {
		r, size := utf8.DecodeRuneInString(text[i:])
		need := uint32(1)
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}

// lineColAt converts an LSP position into a 1-based line and code point
// column, clamped like offsetForPosition.
func lineColAt(text string, pos position) source.LineCol {
	i, ok := lineStart(text, pos.Line)
	if !ok {
		return endLineCol(text)
	}
	end := offsetForPosition(text, pos)
	return source.LineCol{
		Line: int(pos.Line) + 1,
		Col:  utf8.RuneCountInString(text[i:end]) + 1,
	}
}

func lineStart(text string, line uint32) (int, bool) {
	i := 0
	for n := uint32(0); n < line; n++ {
		j := strings.IndexByte(text[i:], '\n')
		if j < 0 {
			return len(text), false
		}
		i += j + 1
	}
	return i, true
}

func endLineCol(text string) source.LineCol {
	lc := source.LineCol{Line: 1, Col: 1}
	for _, r := range text {
		if r == '\n' {
			lc.Line++
			lc.Col = 1
			continue
		}
		lc.Col++
	}
	return lc
}
