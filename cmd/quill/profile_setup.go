package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/prof"
)

// setupProfiling starts the runtime profiles requested by the persistent
// profiling flags. The returned cleanup stops them and reports write errors.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPUPath, err = flags.GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if cfg.MemPath, err = flags.GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cfg.TracePath, err = flags.GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	session, err := prof.Start(cfg)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}

// setupDiagnostics combines tracing and profiling for a command run.
func setupDiagnostics(cmd *cobra.Command) (func(), error) {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	stopTracing, err := setupTracing(cmd)
	if err != nil {
		stopProfiling()
		return nil, err
	}
	return func() {
		stopTracing()
		stopProfiling()
	}, nil
}
