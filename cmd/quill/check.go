package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quill/internal/check"
	"quill/internal/checker"
	"quill/internal/diagfmt"
	"quill/internal/observ"
	"quill/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.md|directory>...",
	Short: "Check the prose of Markdown files",
	Long:  `Check every given Markdown file, or every *.md and *.markdown file below the given directories, and report findings. Exits with status 1 when anything was found or a file could not be checked.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|plain|json)")
	checkCmd.Flags().Int("jobs", 0, "files checked in parallel (0=auto)")
	checkCmd.Flags().Int("max-chunk", 0, "characters per checker request (overrides config)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().Bool("timings", false, "print phase timings to stderr")
	checkCmd.Flags().String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	checkCmd.Flags().Int("context", 0, "lines of context before each finding (pretty)")
	checkCmd.Flags().Bool("urls", false, "print rule reference URLs (pretty)")
	checkCmd.Flags().Int("max", 0, "maximum findings per file in JSON output (0=all)")
	addCacheFlags(checkCmd)
}

type fileResult struct {
	file    diagfmt.File
	timings observ.Report
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "plain", "json":
	default:
		return fmt.Errorf("unknown format %q (expected pretty|plain|json)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	maxChunk, err := cmd.Flags().GetInt("max-chunk")
	if err != nil {
		return fmt.Errorf("failed to get max-chunk flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	cache, err := readCacheOptions(cmd)
	if err != nil {
		return err
	}
	render, err := readRenderOptions(cmd)
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
	if maxChunk > 0 {
		cfg.Check.MaxChunk = maxChunk
	}
	coord, err := newCoordinator(cfg, cache)
	if err != nil {
		return err
	}

	var results []fileResult
	if format != "json" && shouldUseTUI(mode) {
		title := fmt.Sprintf("checking %d file(s) against %s", len(files), cfg.Client().BaseURL())
		results, err = checkFilesWithUI(cmd.Context(), title, coord, files, jobs)
	} else {
		results, err = checkFiles(cmd.Context(), coord, files, jobs, nil)
	}
	if err != nil {
		return err
	}

	out := make([]diagfmt.File, 0, len(results))
	reports := make([]observ.Report, 0, len(results))
	for _, r := range results {
		out = append(out, r.file)
		reports = append(reports, r.timings)
	}
	if err := renderFiles(cmd.OutOrStdout(), cmd.ErrOrStderr(), format, out, render); err != nil {
		return err
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), observ.Merge(reports...))
	}
	return exitStatus(out)
}

// checkFiles runs one pass per file, at most jobs at a time. Results keep the
// order of paths. A file that cannot be read or checked carries its error; only
// cancellation of ctx stops the run.
func checkFiles(ctx context.Context, coord *check.Coordinator, paths []string, jobs int, progress func(ui.Event)) ([]fileResult, error) {
	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(progress, ui.Event{File: path, Stage: ui.StageFetch, Status: ui.StatusWorking})
			results[i] = checkFile(gctx, coord, path)
			if err := gctx.Err(); err != nil {
				return err
			}
			ev := ui.Event{File: path, Stage: ui.StageMap, Status: ui.StatusDone, Findings: len(results[i].file.Entries)}
			if results[i].file.Err != nil {
				ev.Status = ui.StatusError
			}
			emit(progress, ev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkFile(ctx context.Context, coord *check.Coordinator, path string) fileResult {
	res := fileResult{file: diagfmt.File{Path: path}}
	data, err := os.ReadFile(path)
	if err != nil {
		res.file.Err = err
		return res
	}
	res.file.Text = string(data)
	out, err := coord.Run(ctx, check.Document{URI: path, Revision: 1, Text: res.file.Text})
	if err != nil {
		res.file.Err = err
		return res
	}
	res.file.Entries = out.Entries
	res.file.Language = out.Language
	for _, w := range out.Warnings {
		res.file.Warnings = append(res.file.Warnings, w.String())
	}
	res.timings = out.Timings
	if out.Unchecked() {
		res.file.Err = fmt.Errorf("%w: none of %d chunk(s) could be checked", checker.ErrService, out.Chunks)
	}
	return res
}

func emit(progress func(ui.Event), ev ui.Event) {
	if progress != nil {
		progress(ev)
	}
}

type renderOptions struct {
	color    bool
	pathMode diagfmt.PathMode
	baseDir  string
	context  int
	urls     bool
	max      int
}

func readRenderOptions(cmd *cobra.Command) (renderOptions, error) {
	var opts renderOptions
	var err error
	if opts.color, err = useColor(cmd); err != nil {
		return opts, err
	}
	pathFlag, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return opts, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	mode, ok := diagfmt.ParsePathMode(pathFlag)
	if !ok {
		return opts, fmt.Errorf("invalid --path-mode value %q", pathFlag)
	}
	opts.pathMode = mode
	if opts.context, err = cmd.Flags().GetInt("context"); err != nil {
		return opts, fmt.Errorf("failed to get context flag: %w", err)
	}
	if opts.urls, err = cmd.Flags().GetBool("urls"); err != nil {
		return opts, fmt.Errorf("failed to get urls flag: %w", err)
	}
	if opts.max, err = cmd.Flags().GetInt("max"); err != nil {
		return opts, fmt.Errorf("failed to get max flag: %w", err)
	}
	if wd, err := os.Getwd(); err == nil {
		opts.baseDir = wd
	}
	return opts, nil
}

// renderFiles writes findings to out. In the text formats skipped chunks and
// failed files are reported on errOut; JSON carries them inline.
func renderFiles(out, errOut io.Writer, format string, files []diagfmt.File, opts renderOptions) error {
	if format == "json" {
		return diagfmt.JSON(out, files, diagfmt.JSONOpts{
			PathMode:     opts.pathMode,
			BaseDir:      opts.baseDir,
			Max:          opts.max,
			IncludeFixes: true,
			Indent:       true,
		})
	}
	for _, f := range files {
		path := diagfmt.FormatPath(f.Path, opts.pathMode, opts.baseDir)
		for _, w := range f.Warnings {
			fmt.Fprintf(errOut, "warning: %s: %s\n", path, w)
		}
		if f.Err != nil {
			fmt.Fprintf(errOut, "error: %s: %v\n", path, f.Err)
			continue
		}
		var err error
		if format == "plain" {
			err = diagfmt.Plain(out, f, diagfmt.PlainOpts{PathMode: opts.pathMode, BaseDir: opts.baseDir})
		} else {
			err = diagfmt.Pretty(out, f, diagfmt.PrettyOpts{
				Color:     opts.color,
				Context:   opts.context,
				PathMode:  opts.pathMode,
				BaseDir:   opts.baseDir,
				ShowFixes: true,
				ShowURLs:  opts.urls,
			})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// exitStatus is 1 when any file has findings, failed, or was only partly
// checked.
func exitStatus(files []diagfmt.File) error {
	for _, f := range files {
		if f.Err != nil || len(f.Entries) > 0 || len(f.Warnings) > 0 {
			return &exitError{code: 1}
		}
	}
	return nil
}
