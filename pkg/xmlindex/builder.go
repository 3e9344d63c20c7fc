package xmlindex

import (
	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

// builderFrame tracks one open element and its scratch children list.
type builderFrame struct {
	element  uint32
	children []ChildRef
}

// Builder consumes scanner events and materializes an Index.
type Builder struct {
	index *Index
	stack []builderFrame
	spare [][]ChildRef
}

// NewBuilder creates a builder with capacity heuristics derived from
// the input size. The heuristics are advisory; growth is geometric.
func NewBuilder(input []byte) *Builder {
	n := len(input)
	return &Builder{
		index: &Index{
			input:        input,
			elements:     make([]Element, 0, n/50+4),
			texts:        make([]Text, 0, n/40+4),
			attrs:        make([]Attribute, 0, n/30+4),
			childrenData: make([]ChildRef, 0, n/25+4),
			root:         NoNode,
		},
	}
}

// Build scans input and returns the resulting index. On error the
// index built so far is still returned with all open elements closed,
// which is what the lenient parse hands out.
func Build(input []byte, opts ...xmltext.Options) (*Index, error) {
	b := NewBuilder(input)
	err := xmltext.Scan(input, b, opts...)
	return b.Finish(), err
}

// Finish closes any elements left open and returns the index.
func (b *Builder) Finish() *Index {
	for len(b.stack) > 0 {
		b.closeTop()
	}
	return b.index
}

func (b *Builder) top() *builderFrame {
	return &b.stack[len(b.stack)-1]
}

func (b *Builder) pushFrame(element uint32) {
	var children []ChildRef
	if n := len(b.spare); n > 0 {
		children = b.spare[n-1][:0]
		b.spare = b.spare[:n-1]
	}
	b.stack = append(b.stack, builderFrame{element: element, children: children})
}

// closeTop copies the top frame's scratch children contiguously into
// childrenData and records the element's range.
func (b *Builder) closeTop() {
	frame := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	x := b.index
	elem := &x.elements[frame.element]
	elem.ChildStart = uint32(len(x.childrenData))
	elem.ChildCount = uint32(len(frame.children))
	x.childrenData = append(x.childrenData, frame.children...)
	b.spare = append(b.spare, frame.children)
}

// StartElement implements xmltext.Handler.
func (b *Builder) StartElement(name xmltext.Name, attrs []xmltext.Attr, selfClosing bool, _ xmltext.Region) error {
	x := b.index
	nameSpan, err := makeSpan(name.Full.Start, name.Full.End)
	if err != nil {
		return err
	}
	var prefixLen uint16
	if name.HasPrefix() {
		prefixLen = uint16(name.Prefix.Len())
	}

	attrStart := uint32(len(x.attrs))
	for _, attr := range attrs {
		attrName, err := makeSpan(attr.Name.Full.Start, attr.Name.Full.End)
		if err != nil {
			return err
		}
		attrValue, err := makeSpan(attr.Value.Start, attr.Value.End)
		if err != nil {
			return err
		}
		var attrPrefixLen uint16
		if attr.Name.HasPrefix() {
			attrPrefixLen = uint16(attr.Name.Prefix.Len())
		}
		x.attrs = append(x.attrs, Attribute{
			Name:          attrName,
			Value:         attrValue,
			PrefixLen:     attrPrefixLen,
			NeedsUnescape: attr.NeedsUnescape,
		})
	}

	parent := NoNode
	if len(b.stack) > 0 {
		parent = b.top().element
	}
	idx := uint32(len(x.elements))
	x.elements = append(x.elements, Element{
		Name:      nameSpan,
		Parent:    parent,
		AttrStart: attrStart,
		AttrCount: uint16(len(attrs)),
		PrefixLen: prefixLen,
	})

	ref := makeChildRef(ChildElement, idx)
	if parent == NoNode {
		x.topLevel = append(x.topLevel, ref)
		if x.root == NoNode {
			x.root = idx
		}
	} else {
		b.top().children = append(b.top().children, ref)
	}

	if selfClosing {
		x.elements[idx].ChildStart = uint32(len(x.childrenData))
		return nil
	}
	b.pushFrame(idx)
	return nil
}

// EndElement implements xmltext.Handler.
func (b *Builder) EndElement(xmltext.Name, xmltext.Region) error {
	if len(b.stack) == 0 {
		return nil
	}
	b.closeTop()
	return nil
}

// CharData implements xmltext.Handler. Adjacent text runs under the
// same parent coalesce when their input regions are contiguous.
func (b *Builder) CharData(text xmltext.Region, needsUnescape bool) error {
	if len(b.stack) == 0 {
		return nil
	}
	b.appendText(text, needsUnescape, false)
	return nil
}

// CDATA implements xmltext.Handler. CDATA never coalesces with text.
func (b *Builder) CDATA(text xmltext.Region) error {
	if len(b.stack) == 0 {
		return nil
	}
	b.appendText(text, false, true)
	return nil
}

func (b *Builder) appendText(region xmltext.Region, needsUnescape, isCData bool) {
	x := b.index
	frame := b.top()
	start := region.Start

	if !isCData {
		// Coalesce with a directly preceding, contiguous text run.
		if n := len(frame.children); n > 0 {
			last := frame.children[n-1]
			if last.Kind() == ChildText {
				prev := &x.texts[last.Index()]
				prevEnd := int(prev.Span.Offset) + int(prev.Span.Length)
				merge := region.End - start
				if prevEnd == start && int(prev.Span.Length)+merge <= maxSpanLength {
					prev.Span.Length += uint16(merge)
					prev.NeedsUnescape = prev.NeedsUnescape || needsUnescape
					return
				}
			}
		}
	}

	kind := ChildText
	if isCData {
		kind = ChildCData
	}
	for start < region.End {
		end := region.End
		if end-start > maxSpanLength {
			end = splitBoundary(x.input, start, start+maxSpanLength, needsUnescape)
		}
		idx := uint32(len(x.texts))
		x.texts = append(x.texts, Text{
			Span:          Span{Offset: uint32(start), Length: uint16(end - start)},
			Parent:        frame.element,
			NeedsUnescape: needsUnescape,
			IsCData:       isCData,
		})
		frame.children = append(frame.children, makeChildRef(kind, idx))
		start = end
	}
}

// splitBoundary backs a chunk boundary off an entity reference or a
// multi-byte UTF-8 sequence so chained text entries decode cleanly.
func splitBoundary(input []byte, start, end int, needsUnescape bool) int {
	if needsUnescape {
	scan:
		for i := end - 1; i > start && i > end-16; i-- {
			switch input[i] {
			case ';':
				break scan
			case '&':
				return i
			}
		}
	}
	for end > start && end < len(input) && input[end]&0xC0 == 0x80 {
		end--
	}
	return end
}

// Comment implements xmltext.Handler; comments are not indexed.
func (b *Builder) Comment(xmltext.Region) error { return nil }

// ProcessingInstruction implements xmltext.Handler; PIs are not indexed.
func (b *Builder) ProcessingInstruction(xmltext.Name, xmltext.Region) error { return nil }

// XMLDecl implements xmltext.Handler.
func (b *Builder) XMLDecl([]xmltext.Attr) error { return nil }

// DoctypeSeen implements xmltext.Handler.
func (b *Builder) DoctypeSeen(xmltext.Region) error {
	b.index.doctypeSeen = true
	return nil
}
