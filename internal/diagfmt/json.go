package diagfmt

import (
	"encoding/json"
	"io"
)

type PointJSON struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

type RangeJSON struct {
	Start PointJSON `json:"start"`
	End   PointJSON `json:"end"`
}

type FixJSON struct {
	Title   string `json:"title"`
	NewText string `json:"new_text"`
}

type DiagnosticJSON struct {
	Severity     string    `json:"severity"`
	Code         string    `json:"code,omitempty"`
	Message      string    `json:"message"`
	ShortMessage string    `json:"short_message,omitempty"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Range        RangeJSON `json:"range"`
	URLs         []string  `json:"urls,omitempty"`
	Fixes        []FixJSON `json:"fixes,omitempty"`
}

type FileJSON struct {
	Path        string           `json:"path"`
	Language    string           `json:"language,omitempty"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Warnings    []string         `json:"warnings,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// DiagnosticsOutput is the root of the JSON output.
type DiagnosticsOutput struct {
	Files []FileJSON `json:"files"`
	Count int        `json:"count"`
}

// BuildJSON converts files into the JSON document model.
func BuildJSON(files []File, opts JSONOpts) DiagnosticsOutput {
	out := DiagnosticsOutput{Files: make([]FileJSON, 0, len(files))}
	for _, f := range files {
		fj := FileJSON{
			Path:        FormatPath(f.Path, opts.PathMode, opts.BaseDir),
			Language:    f.Language,
			Diagnostics: make([]DiagnosticJSON, 0, len(f.Entries)),
			Warnings:    f.Warnings,
		}
		if f.Err != nil {
			fj.Error = f.Err.Error()
		}
		for i, e := range f.Entries {
			if opts.Max > 0 && i >= opts.Max {
				break
			}
			d := e.Diagnostic
			dj := DiagnosticJSON{
				Severity:     d.Severity.Label(),
				Code:         d.Code,
				Message:      d.Message,
				ShortMessage: d.Short,
				Description:  d.Description,
				Category:     d.Category,
				Range: RangeJSON{
					Start: PointJSON{Line: d.Range.Start.Line, Col: d.Range.Start.Col},
					End:   PointJSON{Line: d.Range.End.Line, Col: d.Range.End.Col},
				},
				URLs: d.URLs,
			}
			if opts.IncludeFixes {
				for _, a := range e.Actions {
					dj.Fixes = append(dj.Fixes, FixJSON{Title: a.Title, NewText: a.Edit.NewText})
				}
			}
			fj.Diagnostics = append(fj.Diagnostics, dj)
		}
		out.Count += len(fj.Diagnostics)
		out.Files = append(out.Files, fj)
	}
	return out
}

// JSON writes files as one JSON document.
func JSON(w io.Writer, files []File, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(BuildJSON(files, opts))
}
