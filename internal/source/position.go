package source

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrAdvancePastEnd is the panic value (wrapped) raised when a Position is
// asked to consume more characters than remain. It always means chunk lengths
// and checker offsets disagree with the document text.
var ErrAdvancePastEnd = errors.New("position advanced past end of document")

// Position is a cursor over a document's character stream. It converts
// "skip n characters" into line and column updates.
type Position struct {
	Line  int
	Col   int
	Col16 int

	rest     string
	unit     Unit
	carry    int // units of an already consumed code point not yet requested
	consumed int
}

// NewPosition places a cursor at 1:1 of text.
func NewPosition(text string, unit Unit) *Position {
	return &Position{
		Line:  1,
		Col:   1,
		Col16: 1,
		rest:  text,
		unit:  unit,
	}
}

// Advance consumes exactly n characters. A newline moves to the next line and
// resets the column to 1; any other character moves the column by one.
// It panics when n is negative or exceeds the remaining characters.
func (p *Position) Advance(n int) {
	if n < 0 {
		panic(fmt.Errorf("%w: negative advance %d at %d:%d", ErrAdvancePastEnd, n, p.Line, p.Col))
	}
	p.consumed += n
	if p.carry > 0 {
		c := min(p.carry, n)
		p.carry -= c
		n -= c
	}
	for n > 0 {
		if p.rest == "" {
			panic(fmt.Errorf("%w: %d characters short at %d:%d", ErrAdvancePastEnd, n, p.Line, p.Col))
		}
		r, size := utf8.DecodeRuneInString(p.rest)
		p.rest = p.rest[size:]
		if r == '\n' {
			p.Line++
			p.Col = 1
			p.Col16 = 1
		} else {
			p.Col++
			p.Col16 += utf16Width(r)
		}
		// an offset landing inside a surrogate pair consumes the whole code point
		if w := p.unit.Width(r); w > n {
			p.carry = w - n
			n = 0
		} else {
			n -= w
		}
	}
}

// Clone snapshots the cursor. Advancing the clone leaves p untouched.
func (p *Position) Clone() *Position {
	c := *p
	return &c
}

// Location returns the current point.
func (p *Position) Location() Location {
	return Location{Line: p.Line, Col: p.Col, Col16: p.Col16}
}

// LineCol returns the current line and code point column.
func (p *Position) LineCol() LineCol {
	return LineCol{Line: p.Line, Col: p.Col}
}

// Consumed returns how many units have been advanced over in total.
func (p *Position) Consumed() int {
	return p.consumed
}

// Remaining returns how many units are left in the stream.
func (p *Position) Remaining() int {
	return p.unit.Len(p.rest) + p.carry
}

// AtEnd reports whether the whole stream has been consumed.
func (p *Position) AtEnd() bool {
	return p.rest == "" && p.carry == 0
}

// Unit returns the counting unit of the cursor.
func (p *Position) Unit() Unit {
	return p.unit
}
