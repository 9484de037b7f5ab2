// Package check runs one check pass over a document: segment, fetch every
// chunk from the checker, then fold the responses in document order through a
// single source.Position.
package check

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"quill/internal/checker"
	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/segment"
	"quill/internal/source"
	"quill/internal/trace"
)

// DefaultJobs bounds concurrent checker requests of one pass.
const DefaultJobs = 4

// ErrUnconsumed is the panic value (wrapped) raised when the chunks of a pass
// do not add up to the document length.
var ErrUnconsumed = errors.New("document not fully consumed by chunks")

type Options struct {
	Rules         *segment.Rules
	MaxChunk      int
	Unit          source.Unit
	Language      string
	Level         string
	EnabledRules  []string
	DisabledRules []string
	Jobs          int
}

// Document is one revision of a document to check.
type Document struct {
	URI      string
	Revision int32
	Text     string
	Language string // overrides Options.Language when set
}

// ChunkWarning records a chunk whose findings were dropped.
type ChunkWarning struct {
	Index  int
	Start  source.Location
	Length int
	Err    error
}

func (w ChunkWarning) String() string {
	return fmt.Sprintf("chunk %d at %s (%d chars) skipped: %v", w.Index, w.Start.LineCol(), w.Length, w.Err)
}

// Result is the outcome of a pass that was not aborted.
type Result struct {
	URI      string
	Revision int32
	Entries  []diag.Entry
	Warnings []ChunkWarning
	Chunks   int
	Language string // as reported by the checker, empty if no chunk succeeded
	Timings  observ.Report
}

// Unchecked reports whether the checker failed on every chunk, so that no
// part of the document was actually checked.
func (r *Result) Unchecked() bool {
	return r.Chunks > 0 && len(r.Warnings) == r.Chunks
}

// Coordinator runs passes against one checker. Safe for concurrent use.
type Coordinator struct {
	checker checker.Checker
	opts    Options
}

// New returns a coordinator. Zero options select the defaults.
func New(c checker.Checker, opts Options) *Coordinator {
	if opts.Rules == nil {
		opts.Rules = segment.DefaultRules()
	}
	if opts.MaxChunk <= 0 {
		opts.MaxChunk = segment.DefaultMaxChunk
	}
	if opts.Jobs <= 0 {
		opts.Jobs = DefaultJobs
	}
	if opts.Language == "" {
		opts.Language = "auto"
	}
	return &Coordinator{checker: c, opts: opts}
}

// Run checks doc. A chunk the checker fails on is skipped with a warning; a
// response that breaks the checker contract aborts the pass with an error
// wrapping diag.ErrProtocol, as does cancellation of ctx with its error.
func (c *Coordinator) Run(ctx context.Context, doc Document) (*Result, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "pass")
	span.WithExtra("uri", doc.URI).WithExtra("rev", strconv.Itoa(int(doc.Revision)))
	timer := observ.NewTimer()

	idx := timer.Begin("segment")
	chunks := slices.Collect(segment.Chunks(segment.Parse(doc.Text), segment.Options{
		Rules:    c.opts.Rules,
		MaxChunk: c.opts.MaxChunk,
		Unit:     c.opts.Unit,
	}))
	timer.End(idx, fmt.Sprintf("%d chunks", len(chunks)))

	language := doc.Language
	if language == "" {
		language = c.opts.Language
	}

	idx = timer.Begin("fetch")
	responses, failures, err := c.fetch(ctx, chunks, language)
	timer.End(idx, "")
	if err != nil {
		span.End(err.Error())
		return nil, err
	}

	idx = timer.Begin("map")
	res, err := c.fold(ctx, doc, chunks, responses, failures)
	timer.End(idx, "")
	if err != nil {
		span.End(err.Error())
		return nil, err
	}
	res.Timings = timer.Report()
	span.WithExtra("entries", strconv.Itoa(len(res.Entries)))
	span.End(fmt.Sprintf("%d chunks, %d skipped", len(chunks), len(res.Warnings)))
	return res, nil
}

// Request builds the checker request for one chunk.
func (c *Coordinator) Request(ch segment.Chunk, language string) *checker.Request {
	req := &checker.Request{
		Language:      language,
		Level:         c.opts.Level,
		EnabledRules:  c.opts.EnabledRules,
		DisabledRules: c.opts.DisabledRules,
		Annotations:   make([]checker.Annotation, 0, len(ch.Units)),
	}
	for _, u := range ch.Units {
		if u.Text == "" {
			continue
		}
		if u.Kind == segment.UnitText {
			req.Annotations = append(req.Annotations, checker.Annotation{Text: u.Text})
			continue
		}
		req.Annotations = append(req.Annotations, checker.Annotation{Markup: u.Text, InterpretAs: u.InterpretAs})
	}
	return req
}

// fetch issues all chunk requests concurrently. Results are indexed by chunk
// position; a per-chunk failure lands in failures and does not stop the
// others.
func (c *Coordinator) fetch(ctx context.Context, chunks []segment.Chunk, language string) ([]*checker.Response, []error, error) {
	responses := make([]*checker.Response, len(chunks))
	failures := make([]error, len(chunks))
	if len(chunks) == 0 {
		return responses, failures, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(c.opts.Jobs, len(chunks)))
	for i, ch := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cctx, span := trace.Start(gctx, trace.ScopeChunk, "chunk")
			span.WithExtra("index", strconv.Itoa(i)).WithExtra("chars", strconv.Itoa(ch.Length))

			resp, err := c.checker.Check(cctx, c.Request(ch, language))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					span.End(ctxErr.Error())
					return ctxErr
				}
				failures[i] = err
				span.End(err.Error())
				return nil
			}
			responses[i] = resp
			matches := 0
			if resp != nil {
				matches = len(resp.Matches)
			}
			span.End(fmt.Sprintf("%d matches", matches))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return responses, failures, nil
}

// fold maps responses strictly in chunk order.
func (c *Coordinator) fold(ctx context.Context, doc Document, chunks []segment.Chunk, responses []*checker.Response, failures []error) (*Result, error) {
	tr := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx).SpanID
	res := &Result{URI: doc.URI, Revision: doc.Revision, Chunks: len(chunks)}

	pos := source.NewPosition(doc.Text, c.opts.Unit)
	for i, ch := range chunks {
		if failures[i] != nil {
			res.Warnings = append(res.Warnings, ChunkWarning{
				Index:  i,
				Start:  pos.Location(),
				Length: ch.Length,
				Err:    failures[i],
			})
			diag.Skip(pos, ch.Length)
			continue
		}
		entries, err := diag.MapResponse(doc.URI, pos, responses[i], ch.Length)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		for _, e := range entries {
			trace.Point(tr, trace.ScopeMatch, "match", e.Diagnostic.Code+" "+e.Diagnostic.Range.String(), parent)
		}
		res.Entries = append(res.Entries, entries...)
		if res.Language == "" && responses[i] != nil {
			res.Language = responses[i].Language.Code
		}
	}
	if !pos.AtEnd() {
		panic(fmt.Errorf("%w: %d characters left after %d chunks consumed %d", ErrUnconsumed, pos.Remaining(), len(chunks), pos.Consumed()))
	}
	return res, nil
}
