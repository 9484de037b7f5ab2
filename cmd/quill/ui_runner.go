package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"quill/internal/check"
	"quill/internal/ui"
)

type checkOutcome struct {
	results []fileResult
	err     error
}

// checkFilesWithUI runs checkFiles while a progress view renders on stderr.
// The view quits when the run finishes.
func checkFilesWithUI(ctx context.Context, title string, coord *check.Coordinator, files []string, jobs int) ([]fileResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan ui.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		for _, f := range files {
			events <- ui.Event{File: f, Status: ui.StatusQueued}
		}
		res, err := checkFiles(ctx, coord, files, jobs, func(ev ui.Event) { events <- ev })
		outcomeCh <- checkOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// the view may quit before the run ends
	go func() {
		for range events {
		}
	}()
	var outcome checkOutcome
	select {
	case outcome = <-outcomeCh:
	default:
		// interrupted from the view
		cancel()
		<-outcomeCh
		return nil, &exitError{code: 130}
	}
	if uiErr != nil && outcome.err == nil && ctx.Err() == nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
