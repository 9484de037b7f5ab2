package source

import "fmt"

// LineCol is a human-readable position: 1-based line and 1-based column
// counted in code points.
type LineCol struct {
	Line int
	Col  int
}

// Less reports whether lc sorts strictly before other.
func (lc LineCol) Less(other LineCol) bool {
	if lc.Line != other.Line {
		return lc.Line < other.Line
	}
	return lc.Col < other.Col
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// Location is a point in a document. Col16 is the same column measured in
// UTF-16 code units, which is what LSP clients expect by default.
type Location struct {
	Line  int // 1-based
	Col   int // 1-based, code points
	Col16 int // 1-based, UTF-16 code units
}

// LineCol drops the UTF-16 column.
func (l Location) LineCol() LineCol {
	return LineCol{Line: l.Line, Col: l.Col}
}

// Range is a half-open document range [Start, End).
type Range struct {
	Start Location
	End   Location
}

// Empty reports whether the range covers no characters, as for an insertion
// point.
func (r Range) Empty() bool {
	return !r.Start.LineCol().Less(r.End.LineCol())
}

// Contains reports whether p lies inside the half-open range. An empty range
// contains only its start.
func (r Range) Contains(p LineCol) bool {
	if r.Empty() {
		return p == r.Start.LineCol()
	}
	return !p.Less(r.Start.LineCol()) && p.Less(r.End.LineCol())
}

// Overlaps reports whether two ranges share at least one position. An empty
// range overlaps a range that contains its start.
func (r Range) Overlaps(other Range) bool {
	switch {
	case r.Empty():
		return other.Contains(r.Start.LineCol())
	case other.Empty():
		return r.Contains(other.Start.LineCol())
	}
	return r.Start.LineCol().Less(other.End.LineCol()) && other.Start.LineCol().Less(r.End.LineCol())
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Col, r.End.Line, r.End.Col)
}
