package lsp

import (
	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// positionFor converts a 1-based location into an LSP position. The UTF-16
// column is used since clients count characters in UTF-16 code units.
func positionFor(loc source.Location) position {
	return position{
		Line:      safeUint32(loc.Line - 1),
		Character: safeUint32(loc.Col16 - 1),
	}
}

func rangeFor(r source.Range) lspRange {
	return lspRange{Start: positionFor(r.Start), End: positionFor(r.End)}
}

// rangeIn converts an LSP range of text back to code point locations.
func rangeIn(text string, r lspRange) source.Range {
	start := lineColAt(text, r.Start)
	end := lineColAt(text, r.End)
	return source.Range{
		Start: source.Location{Line: start.Line, Col: start.Col},
		End:   source.Location{Line: end.Line, Col: end.Col},
	}
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

func toLSPDiagnostic(d *diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    rangeFor(d.Range),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code,
		Source:   "quill",
		Message:  d.Message,
	}
	if len(d.URLs) > 0 {
		out.CodeDescription = &codeDescription{Href: d.URLs[0]}
	}
	return out
}

func toCodeAction(a *diag.Action) codeAction {
	return codeAction{
		Title:       a.Title,
		Kind:        a.Kind,
		IsPreferred: a.IsPreferred,
		Edit: &workspaceEdit{
			Changes: map[string][]textEdit{
				a.URI: {{Range: rangeFor(a.Edit.Range), NewText: a.Edit.NewText}},
			},
		},
	}
}
