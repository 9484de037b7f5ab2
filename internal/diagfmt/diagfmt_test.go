package diagfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/diag"
	"quill/internal/source"
)

func loc(line, col int) source.Location {
	return source.Location{Line: line, Col: col, Col16: col}
}

func sampleFile() File {
	text := "Helo world.\nThis are bad."
	spelling := source.Range{Start: loc(1, 1), End: loc(1, 5)}
	grammar := source.Range{Start: loc(2, 6), End: loc(2, 9)}
	return File{
		Path:     "docs/doc.md",
		Text:     text,
		Language: "en-US",
		Entries: []diag.Entry{
			{
				Diagnostic: diag.Diagnostic{
					Range:       spelling,
					Severity:    diag.SevWarning,
					Code:        "TYPO",
					Message:     "Spelling",
					Description: "Possible spelling mistake",
					URLs:        []string{"https://example.org/typo"},
				},
				Actions: []diag.Action{
					diag.NewReplaceAction("file:///doc.md", spelling, "Hello", true),
					diag.NewReplaceAction("file:///doc.md", spelling, "Help", false),
				},
			},
			{
				Diagnostic: diag.Diagnostic{Range: grammar, Severity: diag.SevInfo, Message: "Grammar"},
				Actions:    []diag.Action{diag.NewReplaceAction("file:///doc.md", grammar, "is", true)},
			},
		},
	}
}

func TestPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Plain(&buf, sampleFile(), PlainOpts{PathMode: PathModeBasename}))
	assert.Equal(t,
		"doc.md 1:1-1:5 warning Spelling\n"+
			"doc.md 2:6-2:9 info Grammar\n",
		buf.String())
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, sampleFile(), PrettyOpts{ShowFixes: true, ShowURLs: true}))
	want := "warning[TYPO]: Possible spelling mistake\n" +
		" --> docs/doc.md:1:1\n" +
		"  |\n" +
		"1 | Helo world.\n" +
		"  | ^^^^ Spelling\n" +
		"  = help: replace with `Hello`, `Help`\n" +
		"  = note: https://example.org/typo\n" +
		"\n" +
		"info: Grammar\n" +
		" --> docs/doc.md:2:6\n" +
		"  |\n" +
		"2 | This are bad.\n" +
		"  |      ^^^ Grammar\n" +
		"  = help: replace with `is`\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyContextAndWideRunes(t *testing.T) {
	f := File{
		Path: "a.md",
		Text: "intro\n漢字 teh\n",
		Entries: []diag.Entry{{Diagnostic: diag.Diagnostic{
			Range:    source.Range{Start: loc(2, 4), End: loc(2, 7)},
			Severity: diag.SevWarning,
			Message:  "typo",
		}}},
	}
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, f, PrettyOpts{Context: 1}))
	want := "warning: typo\n" +
		" --> a.md:2:4\n" +
		"  |\n" +
		"1 | intro\n" +
		"2 | 漢字 teh\n" +
		"  |      ^^^ typo\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestPrettyMultiLineRange(t *testing.T) {
	f := File{
		Path: "a.md",
		Text: "one two\nthree four\n",
		Entries: []diag.Entry{{Diagnostic: diag.Diagnostic{
			Range:   source.Range{Start: loc(1, 5), End: loc(2, 6)},
			Message: "split",
		}}},
	}
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, f, PrettyOpts{}))
	want := "info: split\n" +
		" --> a.md:1:5\n" +
		"  |\n" +
		"1 | one two\n" +
		"  |     ^^^\n" +
		"2 | three four\n" +
		"  | ^^^^^ split\n" +
		"\n"
	assert.Equal(t, want, buf.String())
}

func TestJSON(t *testing.T) {
	failed := File{Path: "b.md", Err: errors.New("boom"), Warnings: []string{"chunk 0 skipped"}}
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, []File{sampleFile(), failed}, JSONOpts{IncludeFixes: true}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Files, 2)

	first := out.Files[0]
	assert.Equal(t, "docs/doc.md", first.Path)
	assert.Equal(t, "en-US", first.Language)
	require.Len(t, first.Diagnostics, 2)
	d := first.Diagnostics[0]
	assert.Equal(t, "warning", d.Severity)
	assert.Equal(t, "TYPO", d.Code)
	assert.Equal(t, RangeJSON{Start: PointJSON{1, 1}, End: PointJSON{1, 5}}, d.Range)
	assert.Equal(t, []FixJSON{{Title: "Replace with 'Hello'", NewText: "Hello"}, {Title: "Replace with 'Help'", NewText: "Help"}}, d.Fixes)

	assert.Equal(t, "boom", out.Files[1].Error)
	assert.Empty(t, out.Files[1].Diagnostics)
	assert.Equal(t, []string{"chunk 0 skipped"}, out.Files[1].Warnings)
}

func TestJSONMax(t *testing.T) {
	out := BuildJSON([]File{sampleFile()}, JSONOpts{Max: 1})
	assert.Equal(t, 1, out.Count)
	assert.Empty(t, out.Files[0].Diagnostics[0].Fixes)
}

func TestFormatPath(t *testing.T) {
	assert.Equal(t, "doc.md", FormatPath("/w/docs/doc.md", PathModeBasename, ""))
	assert.Equal(t, "docs/doc.md", FormatPath("/w/docs/doc.md", PathModeRelative, "/w"))
	assert.Equal(t, "../x/doc.md", FormatPath("/w/x/doc.md", PathModeRelative, "/w/docs"))
	assert.Equal(t, "/w/x/doc.md", FormatPath("/w/x/doc.md", PathModeAuto, "/w/docs"))
	assert.Equal(t, "docs/doc.md", FormatPath("docs/doc.md", PathModeAuto, ""))

	mode, ok := ParsePathMode("rel")
	assert.True(t, ok)
	assert.Equal(t, PathModeRelative, mode)
	_, ok = ParsePathMode("weird")
	assert.False(t, ok)
}
