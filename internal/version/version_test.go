package version

import (
	"testing"

	"github.com/fatih/color"
)

func override(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = version, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"1.2.3", "", "", "quill 1.2.3"},
		{"1.2.3", "abc123", "", "quill 1.2.3 (abc123)"},
		{"1.2.3", "abc123", "2024-01-15", "quill 1.2.3 (abc123, 2024-01-15)"},
		{"1.2.3-rc.1", "", "2024-01-15", "quill 1.2.3-rc.1 (2024-01-15)"},
	}
	for _, tt := range tests {
		override(t, tt.version, tt.commit, tt.date)
		if got := Info(false); got != tt.want {
			t.Errorf("Info() = %q, want %q", got, tt.want)
		}
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.2.3-rc.1+build.123", "nightly"} {
		override(t, v, "", "")
		if got := Colored(); got != v {
			t.Errorf("Colored() without color = %q, want %q", got, v)
		}
	}
}
