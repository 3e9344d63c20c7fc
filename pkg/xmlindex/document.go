package xmlindex

import (
	"sort"

	"github.com/xmlkit/xmlkit/pkg/xpath"
)

// Node identities expose the index to the XPath engine: the high bits
// of a NodeID tag the flat array, the low 32 bits carry the array
// index. The document root is its own singleton node.
const (
	nodeTagRoot uint64 = iota
	nodeTagElement
	nodeTagText
	nodeTagAttr
)

func packNode(tag uint64, index uint32) xpath.NodeID {
	return xpath.NodeID(tag<<32 | uint64(index))
}

func unpackNode(id xpath.NodeID) (uint64, uint32) {
	return uint64(id) >> 32, uint32(id)
}

// Document adapts an Index to the xpath.Document capability set.
type Document struct {
	x *Index
}

// Document returns the XPath view of the index.
func (x *Index) Document() *Document {
	return &Document{x: x}
}

// ElementID converts an element index into its node identity.
func (d *Document) ElementID(elem uint32) xpath.NodeID {
	return packNode(nodeTagElement, elem)
}

// ElementIndex converts a node identity back to an element index.
func (d *Document) ElementIndex(id xpath.NodeID) (uint32, bool) {
	tag, index := unpackNode(id)
	return index, tag == nodeTagElement
}

// Root implements xpath.Document.
func (d *Document) Root() xpath.NodeID {
	return packNode(nodeTagRoot, 0)
}

// Kind implements xpath.Document.
func (d *Document) Kind(id xpath.NodeID) xpath.NodeKind {
	switch tag, _ := unpackNode(id); tag {
	case nodeTagRoot:
		return xpath.KindRoot
	case nodeTagElement:
		return xpath.KindElement
	case nodeTagText:
		return xpath.KindText
	default:
		return xpath.KindAttribute
	}
}

// Parent implements xpath.Document.
func (d *Document) Parent(id xpath.NodeID) (xpath.NodeID, bool) {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagRoot:
		return 0, false
	case nodeTagElement:
		parent := d.x.elements[index].Parent
		if parent == NoNode {
			return d.Root(), true
		}
		return packNode(nodeTagElement, parent), true
	case nodeTagText:
		return packNode(nodeTagElement, d.x.texts[index].Parent), true
	default:
		return packNode(nodeTagElement, d.attrOwner(index)), true
	}
}

// attrOwner finds the element owning a global attribute index by
// binary search over the monotonically increasing attribute ranges.
func (d *Document) attrOwner(attrIdx uint32) uint32 {
	elements := d.x.elements
	upper := sort.Search(len(elements), func(i int) bool {
		return elements[i].AttrStart > attrIdx
	})
	for i := upper - 1; i >= 0; i-- {
		elem := &elements[i]
		if attrIdx >= elem.AttrStart && attrIdx < elem.AttrStart+uint32(elem.AttrCount) {
			return uint32(i)
		}
		if elem.AttrStart+uint32(elem.AttrCount) <= attrIdx {
			break
		}
	}
	return 0
}

// Children implements xpath.Document.
func (d *Document) Children(id xpath.NodeID, dst []xpath.NodeID) []xpath.NodeID {
	tag, index := unpackNode(id)
	var refs []ChildRef
	switch tag {
	case nodeTagRoot:
		refs = d.x.topLevel
	case nodeTagElement:
		refs = d.x.ChildRefs(index)
	default:
		return dst
	}
	for _, ref := range refs {
		if ref.IsElement() {
			dst = append(dst, packNode(nodeTagElement, ref.Index()))
		} else {
			dst = append(dst, packNode(nodeTagText, ref.Index()))
		}
	}
	return dst
}

// Attributes implements xpath.Document. Namespace declarations are
// attributes in the index and are reported like any other.
func (d *Document) Attributes(id xpath.NodeID, dst []xpath.NodeID) []xpath.NodeID {
	tag, index := unpackNode(id)
	if tag != nodeTagElement {
		return dst
	}
	elem := d.x.elements[index]
	for i := uint32(0); i < uint32(elem.AttrCount); i++ {
		dst = append(dst, packNode(nodeTagAttr, elem.AttrStart+i))
	}
	return dst
}

// Name implements xpath.Document.
func (d *Document) Name(id xpath.NodeID) string {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagElement:
		return d.x.ElementName(index)
	case nodeTagAttr:
		return d.x.AttrName(d.x.attrs[index])
	default:
		return ""
	}
}

// LocalName implements xpath.Document.
func (d *Document) LocalName(id xpath.NodeID) string {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagElement:
		return d.x.ElementLocalName(index)
	case nodeTagAttr:
		return d.x.AttrLocalName(d.x.attrs[index])
	default:
		return ""
	}
}

// Prefix implements xpath.Document.
func (d *Document) Prefix(id xpath.NodeID) string {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagElement:
		return d.x.ElementPrefix(index)
	case nodeTagAttr:
		return d.x.AttrPrefix(d.x.attrs[index])
	default:
		return ""
	}
}

// NamespaceURI implements xpath.Document by resolving the node's
// prefix against the in-scope xmlns declarations.
func (d *Document) NamespaceURI(id xpath.NodeID) string {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagElement:
		uri, _ := d.x.ResolveNamespace(index, d.x.ElementPrefix(index))
		return uri
	case nodeTagAttr:
		attr := d.x.attrs[index]
		prefix := d.x.AttrPrefix(attr)
		if prefix == "" {
			// Unprefixed attributes are in no namespace.
			return ""
		}
		uri, _ := d.x.ResolveNamespace(d.attrOwner(index), prefix)
		return uri
	default:
		return ""
	}
}

// StringValue implements xpath.Document.
func (d *Document) StringValue(id xpath.NodeID) string {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagRoot:
		var out []byte
		for _, ref := range d.x.topLevel {
			if ref.IsElement() {
				out = append(out, d.x.StringValue(ref.Index())...)
			} else {
				out = d.x.appendTextValue(out, ref.Index())
			}
		}
		return string(out)
	case nodeTagElement:
		return d.x.StringValue(index)
	case nodeTagText:
		return d.x.TextValue(index)
	default:
		return d.x.AttrValue(d.x.attrs[index])
	}
}

// Compare implements xpath.Document. Every node maps to a distinct
// input offset, so document order is offset order; the root precedes
// everything.
func (d *Document) Compare(a, b xpath.NodeID) int {
	if a == b {
		return 0
	}
	oa, ob := d.offset(a), d.offset(b)
	switch {
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	default:
		return 0
	}
}

func (d *Document) offset(id xpath.NodeID) int64 {
	tag, index := unpackNode(id)
	switch tag {
	case nodeTagRoot:
		return -1
	case nodeTagElement:
		return int64(d.x.elements[index].Name.Offset)
	case nodeTagText:
		return int64(d.x.texts[index].Span.Offset)
	default:
		return int64(d.x.attrs[index].Name.Offset)
	}
}
