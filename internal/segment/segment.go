// Package segment splits a Markdown document into chunks of checkable prose.
//
// Every byte of the document ends up in exactly one unit of exactly one
// chunk, in document order. Prose becomes text units; syntax, excluded nodes
// and transformed nodes become markup units. Chunk lengths therefore add up
// to the document length, which keeps a single cursor over the document in
// step with checker offsets across chunk boundaries.
package segment

import (
	"iter"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"quill/internal/source"
)

const paragraphBreak = "\n\n"

// DefaultMaxChunk is the default character budget of one chunk.
const DefaultMaxChunk = 10000

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.DefinitionList,
		extension.Footnote,
	),
)

// Document is a parsed Markdown document.
type Document struct {
	Text string
	Root ast.Node
}

// Parse parses text with goldmark.
func Parse(content string) *Document {
	src := []byte(content)
	root := markdown.Parser().Parse(text.NewReader(src))
	return &Document{Text: string(src), Root: root}
}

// Options control segmentation.
type Options struct {
	Rules    *Rules
	MaxChunk int
	Unit     source.Unit
}

// Units returns the document as an ordered list of units covering every byte.
func Units(doc *Document, opts Options) []Unit {
	if doc == nil || doc.Text == "" {
		return nil
	}
	w := &walker{rules: opts.Rules}
	if doc.Root != nil {
		_ = ast.Walk(doc.Root, w.walk)
	}
	return buildUnits(doc.Text, w.pieces, opts.Unit)
}

// Chunks lazily groups the document's units into chunks of at most
// opts.MaxChunk characters. A chunk that would overflow is closed at its last
// paragraph break when it has one, otherwise right before the unit that does
// not fit. A unit longer than the budget is emitted alone.
func Chunks(doc *Document, opts Options) iter.Seq[Chunk] {
	budget := opts.MaxChunk
	if budget <= 0 {
		budget = DefaultMaxChunk
	}
	return func(yield func(Chunk) bool) {
		units := Units(doc, opts)
		var (
			cur    []Unit
			curLen int
			index  int
			start  int
		)
		emit := func(head []Unit) bool {
			c := Chunk{Index: index, Start: start, Units: head}
			for _, u := range head {
				c.Length += u.Len
			}
			index++
			start += c.Length
			return yield(c)
		}
		for _, u := range units {
			for len(cur) > 0 && curLen+u.Len > budget {
				split := lastBreak(cur)
				if split <= 0 {
					split = len(cur)
				}
				head := cur[:split:split]
				tail := cur[split:]
				if !emit(head) {
					return
				}
				cur = append([]Unit(nil), tail...)
				curLen = 0
				for _, t := range cur {
					curLen += t.Len
				}
			}
			cur = append(cur, u)
			curLen += u.Len
		}
		if len(cur) > 0 {
			emit(cur)
		}
	}
}

// lastBreak returns the index right after the last paragraph break in units,
// or 0 when there is none.
func lastBreak(units []Unit) int {
	for i := len(units) - 1; i >= 0; i-- {
		if units[i].isBreak() {
			return i + 1
		}
	}
	return 0
}

type pieceKind uint8

const (
	pieceText pieceKind = iota
	pieceTransform
)

// piece is a byte range of the source the walker wants to surface.
type piece struct {
	start, stop int
	kind        pieceKind
	as          string
	block       int
}

type blockFrame struct {
	node ast.Node
	id   int
}

type walker struct {
	rules     *Rules
	pieces    []piece
	blocks    []blockFrame
	nextBlock int
}

func (w *walker) block() int {
	if len(w.blocks) == 0 {
		return 0
	}
	return w.blocks[len(w.blocks)-1].id
}

func (w *walker) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	if n.Kind() == ast.KindDocument {
		return ast.WalkContinue, nil
	}
	isBlock := n.Type() == ast.TypeBlock
	if !entering {
		if isBlock && len(w.blocks) > 0 && w.blocks[len(w.blocks)-1].node == n {
			w.blocks = w.blocks[:len(w.blocks)-1]
		}
		return ast.WalkContinue, nil
	}

	rule := w.rules.For(n.Kind().String())
	switch rule.Mode {
	case ModeExclude:
		return ast.WalkSkipChildren, nil
	case ModeTransform:
		if start, stop, ok := extent(n); ok {
			w.pieces = append(w.pieces, piece{start: start, stop: stop, kind: pieceTransform, as: rule.As, block: w.block()})
		}
		return ast.WalkSkipChildren, nil
	}

	if isBlock {
		w.nextBlock++
		w.blocks = append(w.blocks, blockFrame{node: n, id: w.nextBlock})
	}
	switch node := n.(type) {
	case *ast.Text:
		w.addText(node.Segment.Start, node.Segment.Stop)
	case *ast.RawHTML:
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			w.addText(seg.Start, seg.Stop)
		}
	default:
		// leaf blocks such as code blocks carry their content as lines
		if isBlock && !n.HasChildren() {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.addText(seg.Start, seg.Stop)
			}
		}
	}
	return ast.WalkContinue, nil
}

func (w *walker) addText(start, stop int) {
	if stop <= start {
		return
	}
	w.pieces = append(w.pieces, piece{start: start, stop: stop, kind: pieceText, block: w.block()})
}

// extent returns the byte range spanned by a node's own text.
func extent(n ast.Node) (int, int, bool) {
	switch node := n.(type) {
	case *ast.Text:
		return node.Segment.Start, node.Segment.Stop, node.Segment.Stop > node.Segment.Start
	case *ast.RawHTML:
		if node.Segments.Len() == 0 {
			return 0, 0, false
		}
		return node.Segments.At(0).Start, node.Segments.At(node.Segments.Len() - 1).Stop, true
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		return lines.At(0).Start, lines.At(lines.Len() - 1).Stop, true
	}
	start, stop, ok := 0, 0, false
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		s, e, cok := extent(c)
		if !cok {
			continue
		}
		if !ok || s < start {
			start = s
		}
		if !ok || e > stop {
			stop = e
		}
		ok = true
	}
	return start, stop, ok
}

// buildUnits turns pieces into units, filling every gap with markup.
func buildUnits(src string, pieces []piece, unit source.Unit) []Unit {
	sort.SliceStable(pieces, func(i, j int) bool { return pieces[i].start < pieces[j].start })

	var units []Unit
	cursor := 0
	prevBlock := -1
	for _, p := range pieces {
		if p.stop > len(src) {
			p.stop = len(src)
		}
		if p.start < cursor {
			if p.stop <= cursor {
				continue
			}
			p.start = cursor
		}
		if p.start > cursor {
			gap := src[cursor:p.start]
			units = appendMarkup(units, gap, interpretGap(gap, prevBlock, p.block), unit)
		}
		switch p.kind {
		case pieceText:
			units = appendText(units, src[p.start:p.stop], unit)
		case pieceTransform:
			units = appendMarkup(units, src[p.start:p.stop], p.as, unit)
		}
		cursor = p.stop
		prevBlock = p.block
	}
	if cursor < len(src) {
		units = appendMarkup(units, src[cursor:], "", unit)
	}
	return units
}

// interpretGap decides what the checker reads for syntax between two pieces.
func interpretGap(gap string, prevBlock, nextBlock int) string {
	if prevBlock < 0 {
		return ""
	}
	if prevBlock != nextBlock {
		return paragraphBreak
	}
	if strings.Contains(gap, "\n") {
		return " "
	}
	return ""
}

func appendText(units []Unit, s string, unit source.Unit) []Unit {
	if n := len(units); n > 0 && units[n-1].Kind == UnitText {
		units[n-1].Text += s
		units[n-1].Len += unit.Len(s)
		return units
	}
	return append(units, Unit{Kind: UnitText, Text: s, Len: unit.Len(s)})
}

func appendMarkup(units []Unit, s, as string, unit source.Unit) []Unit {
	return append(units, Unit{Kind: UnitMarkup, Text: s, InterpretAs: as, Len: unit.Len(s)})
}
