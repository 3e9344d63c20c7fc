package xmlindex

import "errors"

// maxSpanLength is the largest run a single span can describe. Longer
// text runs are split into chained sibling text entries.
const maxSpanLength = 1<<16 - 1

// Span references a contiguous region of the index's input buffer.
// A zero-length span denotes the empty string regardless of offset.
type Span struct {
	Offset uint32
	Length uint16
}

// Bytes returns the referenced bytes from input.
func (s Span) Bytes(input []byte) []byte {
	end := int(s.Offset) + int(s.Length)
	if end > len(input) {
		return nil
	}
	return input[s.Offset:end]
}

// IsEmpty reports whether the span denotes the empty string.
func (s Span) IsEmpty() bool {
	return s.Length == 0
}

var errSpanTooLong = errors.New("region exceeds span length limit")

// makeSpan converts a half-open byte range into a Span.
func makeSpan(start, end int) (Span, error) {
	if end-start > maxSpanLength {
		return Span{}, errSpanTooLong
	}
	return Span{Offset: uint32(start), Length: uint16(end - start)}, nil
}

// NoNode is the parent sentinel for the root element.
const NoNode = ^uint32(0)

// ChildKind tags a ChildRef destination array.
type ChildKind uint32

const (
	ChildElement ChildKind = iota
	ChildText
	ChildCData
)

// ChildRef packs a child kind and a flat-array index into one word.
// The top two bits carry the kind; the low 30 bits carry the index.
type ChildRef uint32

const childIndexMask = 1<<30 - 1

func makeChildRef(kind ChildKind, index uint32) ChildRef {
	return ChildRef(uint32(kind)<<30 | index&childIndexMask)
}

// Kind reports which flat array the reference points into.
func (c ChildRef) Kind() ChildKind {
	return ChildKind(c >> 30)
}

// Index reports the position within the destination array.
func (c ChildRef) Index() uint32 {
	return uint32(c) & childIndexMask
}

// IsElement reports whether the reference points at an element.
func (c ChildRef) IsElement() bool {
	return c.Kind() == ChildElement
}

// IsText reports whether the reference points at a text or CDATA run.
func (c ChildRef) IsText() bool {
	kind := c.Kind()
	return kind == ChildText || kind == ChildCData
}
