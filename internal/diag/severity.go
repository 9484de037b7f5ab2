package diag

import "strings"

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for style and typography hints.
	SevInfo Severity = iota
	// SevWarning is for spelling and grammar findings.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Label is the lower-case form used by the console renderers.
func (s Severity) Label() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// SeverityFor maps a LanguageTool issue type to a severity.
func SeverityFor(issueType string) Severity {
	switch strings.ToLower(issueType) {
	case "misspelling", "grammar":
		return SevWarning
	default:
		return SevInfo
	}
}
