package segment

import "strings"

// UnitKind says how the checker treats a unit.
type UnitKind uint8

const (
	// UnitText is prose to be checked.
	UnitText UnitKind = iota
	// UnitMarkup is document syntax the checker skips, reading InterpretAs in
	// its place.
	UnitMarkup
)

func (k UnitKind) String() string {
	switch k {
	case UnitText:
		return "text"
	case UnitMarkup:
		return "markup"
	}
	return "unknown"
}

// Unit is a contiguous span of document text. Len is measured in the
// document's character unit and always equals the length of Text.
type Unit struct {
	Kind        UnitKind
	Text        string
	InterpretAs string
	Len         int
}

// Chunk is a group of consecutive units submitted as one checker request.
type Chunk struct {
	Index  int
	Start  int // characters of the document preceding the chunk
	Length int // characters the chunk consumes, markup included
	Units  []Unit
}

// text returns the raw document text the chunk covers.
func (c Chunk) text() string {
	var sb strings.Builder
	for _, u := range c.Units {
		sb.WriteString(u.Text)
	}
	return sb.String()
}

// isBreak reports whether a chunk may be closed right after u without
// splitting a paragraph.
func (u Unit) isBreak() bool {
	return u.Kind == UnitMarkup && u.InterpretAs == paragraphBreak
}
