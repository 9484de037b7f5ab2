package lsp

import (
	"testing"

	"quill/internal/source"
)

func TestApplyChanges(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		changes []textDocumentContentChangeEvent
		want    string
	}{
		{
			name:    "full replace",
			text:    "old",
			changes: []textDocumentContentChangeEvent{{Text: "new"}},
			want:    "new",
		},
		{
			name: "insert on second line",
			text: "one\ntwo\n",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 1, Character: 3}, End: position{Line: 1, Character: 3}},
				Text:  "!",
			}},
			want: "one\ntwo!\n",
		},
		{
			name: "replace after surrogate pair",
			text: "🙂 Helo",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 0, Character: 3}, End: position{Line: 0, Character: 7}},
				Text:  "Hello",
			}},
			want: "🙂 Hello",
		},
		{
			name: "sequential edits",
			text: "ab",
			changes: []textDocumentContentChangeEvent{
				{Range: &lspRange{Start: position{Line: 0, Character: 0}, End: position{Line: 0, Character: 1}}, Text: "x"},
				{Range: &lspRange{Start: position{Line: 0, Character: 2}, End: position{Line: 0, Character: 2}}, Text: "\nc"},
			},
			want: "xb\nc",
		},
		{
			name: "positions past the end clamp",
			text: "ab\n",
			changes: []textDocumentContentChangeEvent{{
				Range: &lspRange{Start: position{Line: 0, Character: 99}, End: position{Line: 9, Character: 0}},
				Text:  "!",
			}},
			want: "ab!",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyChanges(tt.text, tt.changes); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLineColAt(t *testing.T) {
	text := "a🙂b\nxy"
	tests := []struct {
		pos  position
		want source.LineCol
	}{
		{position{Line: 0, Character: 0}, source.LineCol{Line: 1, Col: 1}},
		{position{Line: 0, Character: 1}, source.LineCol{Line: 1, Col: 2}},
		{position{Line: 0, Character: 2}, source.LineCol{Line: 1, Col: 2}}, // inside the pair
		{position{Line: 0, Character: 3}, source.LineCol{Line: 1, Col: 3}},
		{position{Line: 0, Character: 50}, source.LineCol{Line: 1, Col: 4}},
		{position{Line: 1, Character: 1}, source.LineCol{Line: 2, Col: 2}},
		{position{Line: 7, Character: 0}, source.LineCol{Line: 2, Col: 3}},
	}
	for _, tt := range tests {
		if got := lineColAt(text, tt.pos); got != tt.want {
			t.Fatalf("lineColAt(%+v) = %s, want %s", tt.pos, got, tt.want)
		}
	}
}

func TestCanonicalURI(t *testing.T) {
	if got := canonicalURI("untitled:Untitled-1"); got != "untitled:Untitled-1" {
		t.Fatalf("non-file uri changed: %q", got)
	}
	a := canonicalURI("file:///tmp/my%20notes.md")
	b := canonicalURI("file:///tmp/my notes.md")
	if a != b {
		t.Fatalf("expected equal canonical forms, got %q and %q", a, b)
	}
}
