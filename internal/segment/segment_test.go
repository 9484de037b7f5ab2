package segment

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/internal/source"
)

func defaultOptions(max int) Options {
	return Options{Rules: DefaultRules(), MaxChunk: max, Unit: source.UnitCodepoint}
}

func joinUnits(units []Unit) string {
	var sb strings.Builder
	for _, u := range units {
		sb.WriteString(u.Text)
	}
	return sb.String()
}

func textUnits(units []Unit) []string {
	var out []string
	for _, u := range units {
		if u.Kind == UnitText {
			out = append(out, u.Text)
		}
	}
	return out
}

func collect(doc *Document, opts Options) []Chunk {
	var out []Chunk
	for c := range Chunks(doc, opts) {
		out = append(out, c)
	}
	return out
}

func TestUnitsCoverDocument(t *testing.T) {
	src := "# Title\n\nSome `code` here.\n\n```go\nfmt.Println(1)\n```\n\n- one\n- two\n"
	units := Units(Parse(src), defaultOptions(100))
	require.NotEmpty(t, units)
	assert.Equal(t, src, joinUnits(units))
	for _, u := range units {
		assert.Equal(t, source.UnitCodepoint.Len(u.Text), u.Len)
	}
}

func TestCodeSpanIsTransformed(t *testing.T) {
	units := Units(Parse("Run `make all` now.\n"), defaultOptions(100))
	found := false
	for _, u := range units {
		if u.Kind == UnitMarkup && u.Text == "make all" {
			found = true
			assert.Equal(t, "code", u.InterpretAs)
		}
	}
	assert.True(t, found, "expected transformed code span in %#v", units)
	for _, text := range textUnits(units) {
		assert.NotContains(t, text, "make all")
	}
}

func TestFencedCodeIsExcluded(t *testing.T) {
	src := "Intro.\n\n```go\nfmt.Println(1)\n```\n\nOutro.\n"
	units := Units(Parse(src), defaultOptions(100))
	for _, text := range textUnits(units) {
		assert.NotContains(t, text, "Println")
	}
	assert.Equal(t, src, joinUnits(units))
}

func TestIncludeOverrideChecksCode(t *testing.T) {
	rules, err := NewRules(map[string]Rule{"FencedCodeBlock": {Mode: ModeInclude}})
	require.NoError(t, err)
	src := "Intro.\n\n```\nsome prose in a fence\n```\n"
	units := Units(Parse(src), Options{Rules: rules, MaxChunk: 100})
	assert.Contains(t, strings.Join(textUnits(units), "|"), "some prose in a fence")
	assert.Equal(t, src, joinUnits(units))
}

func TestExcludedHeadingIsMarkup(t *testing.T) {
	rules, err := NewRules(map[string]Rule{"Heading": {Mode: ModeExclude}})
	require.NoError(t, err)
	units := Units(Parse("# Secret Title\n\nBody text.\n"), Options{Rules: rules, MaxChunk: 100})
	for _, text := range textUnits(units) {
		assert.NotContains(t, text, "Secret")
	}
	assert.Contains(t, strings.Join(textUnits(units), ""), "Body text.")
}

func TestBlocksAreSeparatedByParagraphBreak(t *testing.T) {
	units := Units(Parse("# Title\n\nSome prose.\n"), defaultOptions(100))
	titleIdx, bodyIdx := -1, -1
	for i, u := range units {
		if u.Kind != UnitText {
			continue
		}
		if strings.Contains(u.Text, "Title") {
			titleIdx = i
		}
		if strings.Contains(u.Text, "Some prose") {
			bodyIdx = i
		}
	}
	require.GreaterOrEqual(t, titleIdx, 0)
	require.Greater(t, bodyIdx, titleIdx)
	between := units[titleIdx+1 : bodyIdx]
	require.Len(t, between, 1)
	assert.Equal(t, UnitMarkup, between[0].Kind)
	assert.Equal(t, "\n\n", between[0].InterpretAs)
}

func TestSoftBreakReadsAsSpace(t *testing.T) {
	units := Units(Parse("first line\nsecond line\n"), defaultOptions(100))
	found := false
	for _, u := range units {
		if u.Kind == UnitMarkup && u.Text == "\n" && u.InterpretAs == " " {
			found = true
		}
	}
	assert.True(t, found, "expected soft break markup in %#v", units)
}

func TestNewRulesValidates(t *testing.T) {
	_, err := NewRules(map[string]Rule{"CodeSpan": {Mode: ModeTransform}})
	assert.Error(t, err)
	_, err = NewRules(map[string]Rule{"CodeSpan": {Mode: "skip"}})
	assert.Error(t, err)
	_, err = NewRules(map[string]Rule{"": {Mode: ModeInclude}})
	assert.Error(t, err)

	rules, err := NewRules(map[string]Rule{"Link": {Mode: "EXCLUDE"}})
	require.NoError(t, err)
	assert.Equal(t, ModeExclude, rules.For("Link").Mode)
	assert.Equal(t, ModeInclude, rules.For("Paragraph").Mode)
	assert.Contains(t, rules.kinds(), "Link")
}

func TestEmptyDocumentHasNoChunks(t *testing.T) {
	assert.Empty(t, collect(Parse(""), defaultOptions(10)))
}

func TestChunksPreferParagraphBreaks(t *testing.T) {
	src := "aaaa aaaa.\n\nbbbb *cc* dd\n"
	chunks := collect(Parse(src), defaultOptions(19))
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa aaaa.\n\n", chunks[0].text())
	assert.Equal(t, "bbbb *cc* dd\n", chunks[1].text())
	assert.Equal(t, 12, chunks[0].Length)
	assert.Equal(t, 12, chunks[1].Start)
}

func TestOversizedUnitIsEmittedAlone(t *testing.T) {
	long := strings.Repeat("word ", 40) + "end."
	src := "Short.\n\n" + long + "\n\nTail.\n"
	chunks := collect(Parse(src), defaultOptions(30))

	found := false
	for _, c := range chunks {
		if strings.Contains(c.text(), "word word") {
			found = true
			assert.Len(t, c.Units, 1)
			assert.Greater(t, c.Length, 30)
		}
	}
	assert.True(t, found)
}

func TestChunksStopEarly(t *testing.T) {
	src := strings.Repeat("Paragraph here.\n\n", 20)
	n := 0
	for range Chunks(Parse(src), defaultOptions(20)) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

var fragments = []string{
	"# Heading",
	"plain text line",
	"*emph* and **strong** words",
	"use `code` inline",
	"```go\nfmt.Println(1)\n```",
	"- item one\n- item two",
	"> quoted line\n> more quote",
	"a [link](http://example.com) here",
	"emoji 🙂 and 𝔘𝔫𝔦𝔠𝔬𝔡𝔢 text",
	"| a | b |\n|---|---|\n| c | d |",
	"<div>html block</div>",
	"line one\nline two",
	"café naïve résumé",
	"see https://example.org today",
	"    indented code",
	"Term\n: definition",
	"note[^1]\n\n[^1]: footnote text",
	"- [x] done task",
	"hard break  \nnext",
}

func randomDocument(rng *rand.Rand) string {
	var sb strings.Builder
	n := rng.IntN(12)
	for i := 0; i < n; i++ {
		sb.WriteString(fragments[rng.IntN(len(fragments))])
		switch rng.IntN(3) {
		case 0:
			sb.WriteString("\n")
		default:
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func TestChunksConserveDocumentLength(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, unit := range []source.Unit{source.UnitCodepoint, source.UnitUTF16} {
		for iter := 0; iter < 300; iter++ {
			src := randomDocument(rng)
			budget := rng.IntN(120) + 1
			opts := Options{Rules: DefaultRules(), MaxChunk: budget, Unit: unit}
			chunks := collect(Parse(src), opts)

			total := 0
			var sb strings.Builder
			for i, c := range chunks {
				require.Equal(t, i, c.Index)
				require.Equal(t, total, c.Start)
				sum := 0
				for _, u := range c.Units {
					sum += u.Len
				}
				require.Equal(t, sum, c.Length)
				if len(c.Units) > 1 {
					require.LessOrEqual(t, c.Length, budget, "chunk %d of %q", i, src)
				}
				total += c.Length
				sb.WriteString(c.text())
			}
			require.Equal(t, unit.Len(src), total, "document %q budget %d", src, budget)
			require.Equal(t, src, sb.String())
		}
	}
}
