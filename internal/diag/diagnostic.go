package diag

import (
	"fmt"

	"quill/internal/source"
)

// ActionKindQuickFix is the LSP code action kind of replacement actions.
const ActionKindQuickFix = "quickfix"

type Diagnostic struct {
	Range       source.Range
	Severity    Severity
	Code        string
	Message     string
	Short       string
	Description string
	Category    string
	URLs        []string
}

type TextEdit struct {
	Range   source.Range
	NewText string
}

// Action is a quick fix for one diagnostic. The first action of a diagnostic
// is the preferred one.
type Action struct {
	Title       string
	Kind        string
	IsPreferred bool
	URI         string
	Edit        TextEdit
}

type Entry struct {
	Diagnostic Diagnostic
	Actions    []Action
}

// NewReplaceAction builds the quick fix replacing r with value.
func NewReplaceAction(uri string, r source.Range, value string, preferred bool) Action {
	return Action{
		Title:       fmt.Sprintf("Replace with '%s'", value),
		Kind:        ActionKindQuickFix,
		IsPreferred: preferred,
		URI:         uri,
		Edit:        TextEdit{Range: r, NewText: value},
	}
}
