package xmlindex

import (
	"bytes"
	"iter"

	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

// Element is one element node in document order.
type Element struct {
	Name       Span
	Parent     uint32
	ChildStart uint32
	ChildCount uint32
	AttrStart  uint32
	AttrCount  uint16
	PrefixLen  uint16
}

// Text is one text or CDATA run.
type Text struct {
	Span          Span
	Parent        uint32
	NeedsUnescape bool
	IsCData       bool
}

// Attribute is one attribute in document order.
type Attribute struct {
	Name          Span
	Value         Span
	PrefixLen     uint16
	NeedsUnescape bool
}

// Index is the immutable structural index of a parsed document.
// It owns the input buffer; every span stays valid for its lifetime.
type Index struct {
	input        []byte
	elements     []Element
	texts        []Text
	attrs        []Attribute
	childrenData []ChildRef
	topLevel     []ChildRef
	root         uint32
	doctypeSeen  bool
}

// Input returns the owned input buffer spans refer into.
func (x *Index) Input() []byte {
	return x.input
}

// Root returns the root element index, or false when the document is
// empty (possible only in lenient mode).
func (x *Index) Root() (uint32, bool) {
	if x.root == NoNode {
		return 0, false
	}
	return x.root, true
}

// DoctypeSeen reports whether a DOCTYPE declaration was present.
func (x *Index) DoctypeSeen() bool {
	return x.doctypeSeen
}

// ElementCount reports the number of element nodes.
func (x *Index) ElementCount() int {
	return len(x.elements)
}

// TextCount reports the number of text and CDATA runs.
func (x *Index) TextCount() int {
	return len(x.texts)
}

// AttrCount reports the number of attributes.
func (x *Index) AttrCount() int {
	return len(x.attrs)
}

// Element returns the element at idx.
func (x *Index) Element(idx uint32) Element {
	return x.elements[idx]
}

// Text returns the text entry at idx.
func (x *Index) Text(idx uint32) Text {
	return x.texts[idx]
}

// ElementName returns the element's full (possibly prefixed) name.
func (x *Index) ElementName(idx uint32) string {
	return string(x.elements[idx].Name.Bytes(x.input))
}

// ElementLocalName returns the element name without its prefix.
func (x *Index) ElementLocalName(idx uint32) string {
	elem := x.elements[idx]
	name := elem.Name.Bytes(x.input)
	if elem.PrefixLen > 0 && int(elem.PrefixLen) < len(name) {
		return string(name[elem.PrefixLen+1:])
	}
	return string(name)
}

// ElementPrefix returns the element's namespace prefix, if any.
func (x *Index) ElementPrefix(idx uint32) string {
	elem := x.elements[idx]
	if elem.PrefixLen == 0 {
		return ""
	}
	name := elem.Name.Bytes(x.input)
	return string(name[:elem.PrefixLen])
}

// Parent returns the parent element index, or false for the root.
func (x *Index) Parent(idx uint32) (uint32, bool) {
	parent := x.elements[idx].Parent
	if parent == NoNode {
		return 0, false
	}
	return parent, true
}

// Children yields the element's child references in document order.
func (x *Index) Children(idx uint32) iter.Seq[ChildRef] {
	elem := x.elements[idx]
	refs := x.childrenData[elem.ChildStart : elem.ChildStart+elem.ChildCount]
	return func(yield func(ChildRef) bool) {
		for _, ref := range refs {
			if !yield(ref) {
				return
			}
		}
	}
}

// ChildRefs returns the element's child references as a slice view.
func (x *Index) ChildRefs(idx uint32) []ChildRef {
	elem := x.elements[idx]
	return x.childrenData[elem.ChildStart : elem.ChildStart+elem.ChildCount]
}

// TopLevel returns the document-level child references. The root
// element is among them; comments and PIs are not indexed.
func (x *Index) TopLevel() []ChildRef {
	return x.topLevel
}

// Attrs returns the element's attributes as a slice view.
func (x *Index) Attrs(idx uint32) []Attribute {
	elem := x.elements[idx]
	return x.attrs[elem.AttrStart : elem.AttrStart+uint32(elem.AttrCount)]
}

// AttrAt returns the attribute at the global index.
func (x *Index) AttrAt(idx uint32) Attribute {
	return x.attrs[idx]
}

// AttrName returns an attribute's full name.
func (x *Index) AttrName(attr Attribute) string {
	return string(attr.Name.Bytes(x.input))
}

// AttrLocalName returns an attribute's name without its prefix.
func (x *Index) AttrLocalName(attr Attribute) string {
	name := attr.Name.Bytes(x.input)
	if attr.PrefixLen > 0 && int(attr.PrefixLen) < len(name) {
		return string(name[attr.PrefixLen+1:])
	}
	return string(name)
}

// AttrPrefix returns an attribute's namespace prefix, if any.
func (x *Index) AttrPrefix(attr Attribute) string {
	if attr.PrefixLen == 0 {
		return ""
	}
	return string(attr.Name.Bytes(x.input)[:attr.PrefixLen])
}

// AttrValue returns an attribute's value with entities decoded.
func (x *Index) AttrValue(attr Attribute) string {
	raw := attr.Value.Bytes(x.input)
	if !attr.NeedsUnescape {
		return string(raw)
	}
	decoded, err := xmltext.Unescape(raw, false)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// Attr looks up an attribute value on an element by full name.
func (x *Index) Attr(idx uint32, name string) (string, bool) {
	nameBytes := []byte(name)
	for _, attr := range x.Attrs(idx) {
		if bytes.Equal(attr.Name.Bytes(x.input), nameBytes) {
			return x.AttrValue(attr), true
		}
	}
	return "", false
}

// TextValue returns a text run with entities decoded. CDATA runs are
// returned verbatim.
func (x *Index) TextValue(idx uint32) string {
	text := x.texts[idx]
	raw := text.Span.Bytes(x.input)
	if text.IsCData || !text.NeedsUnescape {
		return string(raw)
	}
	decoded, err := xmltext.Unescape(raw, false)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// StringValue returns the concatenated descendant text of an element,
// entity-decoded, using an explicit work stack so deeply nested
// documents cannot overflow the goroutine stack.
func (x *Index) StringValue(idx uint32) string {
	var out []byte
	stack := make([]ChildRef, 0, 16)
	refs := x.ChildRefs(idx)
	for i := len(refs) - 1; i >= 0; i-- {
		stack = append(stack, refs[i])
	}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ref.IsText() {
			out = x.appendTextValue(out, ref.Index())
			continue
		}
		children := x.ChildRefs(ref.Index())
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return string(out)
}

func (x *Index) appendTextValue(dst []byte, idx uint32) []byte {
	text := x.texts[idx]
	raw := text.Span.Bytes(x.input)
	if text.IsCData || !text.NeedsUnescape {
		return append(dst, raw...)
	}
	decoded, err := xmltext.AppendUnescaped(dst, raw, false)
	if err != nil {
		return append(dst, raw...)
	}
	return decoded
}

// Descendants yields all descendant child references of an element in
// document order, depth first, using an explicit stack.
func (x *Index) Descendants(idx uint32) iter.Seq[ChildRef] {
	return func(yield func(ChildRef) bool) {
		stack := make([]ChildRef, 0, 32)
		refs := x.ChildRefs(idx)
		for i := len(refs) - 1; i >= 0; i-- {
			stack = append(stack, refs[i])
		}
		for len(stack) > 0 {
			ref := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(ref) {
				return
			}
			if ref.IsElement() {
				children := x.ChildRefs(ref.Index())
				for i := len(children) - 1; i >= 0; i-- {
					stack = append(stack, children[i])
				}
			}
		}
	}
}

// FindByName yields the indices of all elements whose full name
// matches, by linear walk in document order.
func (x *Index) FindByName(name string) iter.Seq[uint32] {
	nameBytes := []byte(name)
	return func(yield func(uint32) bool) {
		for i := range x.elements {
			if bytes.Equal(x.elements[i].Name.Bytes(x.input), nameBytes) {
				if !yield(uint32(i)) {
					return
				}
			}
		}
	}
}

// FindByLocalName yields the indices of all elements whose local name
// matches, ignoring prefixes.
func (x *Index) FindByLocalName(local string) iter.Seq[uint32] {
	localBytes := []byte(local)
	return func(yield func(uint32) bool) {
		for i := range x.elements {
			elem := &x.elements[i]
			name := elem.Name.Bytes(x.input)
			if elem.PrefixLen > 0 && int(elem.PrefixLen) < len(name) {
				name = name[elem.PrefixLen+1:]
			}
			if bytes.Equal(name, localBytes) {
				if !yield(uint32(i)) {
					return
				}
			}
		}
	}
}

// Stats summarizes index sizes.
type Stats struct {
	Elements   int
	Texts      int
	Attributes int
	Children   int
	InputBytes int
}

// Stats returns the index size summary.
func (x *Index) Stats() Stats {
	return Stats{
		Elements:   len(x.elements),
		Texts:      len(x.texts),
		Attributes: len(x.attrs),
		Children:   len(x.childrenData),
		InputBytes: len(x.input),
	}
}
