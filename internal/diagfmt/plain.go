package diagfmt

import (
	"fmt"
	"io"
)

// Plain writes one line per diagnostic:
//
//	<path> <line>:<col>-<line>:<col> <severity> <message>
func Plain(w io.Writer, f File, opts PlainOpts) error {
	path := FormatPath(f.Path, opts.PathMode, opts.BaseDir)
	for _, e := range f.Entries {
		d := e.Diagnostic
		if _, err := fmt.Fprintf(w, "%s %s %s %s\n", path, d.Range, d.Severity.Label(), sanitizeMessage(d.Message)); err != nil {
			return err
		}
	}
	return nil
}
