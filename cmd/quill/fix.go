package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/fix"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] <file.md|directory>...",
	Short: "Apply suggested replacements to Markdown files",
	Long:  "Check the given files and rewrite them with the first suggested replacement of every finding. Overlapping replacements are skipped.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().StringSlice("rule", nil, "only apply fixes for these rule ids (repeatable)")
	fixCmd.Flags().Bool("once", false, "apply only the first available fix per file")
	fixCmd.Flags().Bool("preview", false, "print the fixed text instead of writing files")
	fixCmd.Flags().Int("jobs", 0, "files checked in parallel (0=auto)")
	addCacheFlags(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	rules, err := cmd.Flags().GetStringSlice("rule")
	if err != nil {
		return fmt.Errorf("failed to get rule flag: %w", err)
	}
	once, err := cmd.Flags().GetBool("once")
	if err != nil {
		return fmt.Errorf("failed to get once flag: %w", err)
	}
	preview, err := cmd.Flags().GetBool("preview")
	if err != nil {
		return fmt.Errorf("failed to get preview flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	cache, err := readCacheOptions(cmd)
	if err != nil {
		return err
	}

	cleanup, err := setupDiagnostics(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, startDirFor(args[0]))
	if err != nil {
		return err
	}
	coord, err := newCoordinator(cfg, cache)
	if err != nil {
		return err
	}
	results, err := checkFiles(cmd.Context(), coord, files, jobs, nil)
	if err != nil {
		return err
	}

	opts := fix.ApplyOptions{Mode: fix.ApplyModeAll, Rules: rules}
	if once {
		opts.Mode = fix.ApplyModeOnce
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	failed := false
	for _, r := range results {
		if err := fixFile(out, errOut, r.file, opts, preview); err != nil {
			fmt.Fprintf(errOut, "error: %s: %v\n", r.file.Path, err)
			failed = true
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// fixFile applies the fixes of one checked file and writes the result back
// with the original permissions, or prints it when preview is set.
func fixFile(out, errOut io.Writer, f diagfmt.File, opts fix.ApplyOptions, preview bool) error {
	if f.Err != nil {
		return f.Err
	}
	for _, w := range f.Warnings {
		fmt.Fprintf(errOut, "warning: %s: %s\n", f.Path, w)
	}
	res, applyErr := fix.Apply(f.Text, f.Entries, opts)
	if err := reportApplyResult(out, f.Path, res, applyErr); err != nil {
		return err
	}
	if len(res.Applied) == 0 {
		return nil
	}
	if preview {
		_, err := io.WriteString(out, res.Text)
		return err
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(res.Text), info.Mode().Perm())
}

func reportApplyResult(out io.Writer, path string, res *fix.ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	if len(res.Applied) > 0 {
		if _, err := fmt.Fprintf(out, "%s: applied %d fix(es):\n", path, len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			if _, err := fmt.Fprintf(out, "  %s %s [%s]\n", item.Range.Start.LineCol(), item.Title, item.Code); err != nil {
				return err
			}
		}
	}
	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintf(out, "%s: skipped %d fix(es):\n", path, len(res.Skipped)); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			label := skip.Title
			if label == "" {
				label = "(no replacement)"
			}
			if _, err := fmt.Fprintf(out, "  %s %s [%s]: %s\n", skip.Range.Start.LineCol(), label, skip.Code, skip.Reason); err != nil {
				return err
			}
		}
	}
	if len(res.Applied)+len(res.Skipped) > 0 {
		if _, err := fmt.Fprintf(out, "%s: %s\n", path, res.Describe()); err != nil {
			return err
		}
	}
	if applyErr != nil {
		if errors.Is(applyErr, fix.ErrNoFixes) {
			_, err := fmt.Fprintf(out, "%s: no applicable fixes found\n", path)
			return err
		}
		return applyErr
	}
	return nil
}
