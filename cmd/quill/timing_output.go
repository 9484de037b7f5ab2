package main

import (
	"fmt"
	"io"

	"quill/internal/observ"
)

func printTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	fmt.Fprint(out, report.Summary())
}
