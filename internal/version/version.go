package version

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Version information for the quill CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with its major, minor and patch numbers colored.
// A version that is not dotted is returned as is.
func Colored() string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	return versionMajorColor.Sprint(parts[0]) + "." +
		versionMinorColor.Sprint(parts[1]) + "." +
		versionPatchColor.Sprint(parts[2]) + suffix
}

// Info is the one-line description printed by "quill version".
func Info(colored bool) string {
	v := Version
	if colored {
		v = Colored()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "quill %s", v)
	if GitCommit != "" {
		fmt.Fprintf(&b, " (%s", GitCommit)
		if BuildDate != "" {
			fmt.Fprintf(&b, ", %s", BuildDate)
		}
		b.WriteString(")")
	} else if BuildDate != "" {
		fmt.Fprintf(&b, " (%s)", BuildDate)
	}
	return b.String()
}
