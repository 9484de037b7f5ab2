package diagfmt

import (
	"path/filepath"
	"strings"

	"quill/internal/diag"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto uses the path relative to BaseDir when it does not escape
	// it, the path as given otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode converts a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// File is one checked document as seen by the renderers.
type File struct {
	Path     string
	Text     string
	Language string
	Entries  []diag.Entry
	Warnings []string
	Err      error
}

// PlainOpts configures the one-line-per-diagnostic output.
type PlainOpts struct {
	PathMode PathMode
	BaseDir  string
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int // lines shown before the diagnostic
	PathMode  PathMode
	BaseDir   string
	ShowFixes bool
	ShowURLs  bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode     PathMode
	BaseDir      string
	Max          int // per file, 0 means no limit
	IncludeFixes bool
	Indent       bool
}

// FormatPath renders path according to mode.
func FormatPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		if baseDir == "" {
			break
		}
		absPath, err1 := filepath.Abs(path)
		absBase, err2 := filepath.Abs(baseDir)
		if err1 != nil || err2 != nil {
			break
		}
		rel, err := filepath.Rel(absBase, absPath)
		if err != nil {
			break
		}
		if mode == PathModeAuto && strings.HasPrefix(rel, "..") {
			break
		}
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
