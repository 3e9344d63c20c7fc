package xpath

// NodeID identifies a node within a Document. The value is opaque to
// the engine; only the owning Document can interpret it.
type NodeID uint64

// NodeKind classifies a node.
type NodeKind uint8

const (
	KindRoot NodeKind = iota
	KindElement
	KindAttribute
	KindText
	KindComment
	KindPI
)

// Document is the capability set the evaluator requires from a
// representation. The structural index and the in-memory test tree
// both implement it; the engine has no other dependency on the
// representation.
//
// Children and Attributes append to dst and return the extended slice
// so hot traversal paths can reuse buffers.
type Document interface {
	// Root returns the document root node (not the root element).
	Root() NodeID
	// Kind classifies the node.
	Kind(id NodeID) NodeKind
	// Parent returns the parent node, or false for the root.
	Parent(id NodeID) (NodeID, bool)
	// Children appends the node's children in document order.
	Children(id NodeID, dst []NodeID) []NodeID
	// Attributes appends the element's attribute nodes in document order.
	Attributes(id NodeID, dst []NodeID) []NodeID
	// Name returns the full node name: element or attribute QName,
	// processing-instruction target, empty otherwise.
	Name(id NodeID) string
	// LocalName returns the name without its namespace prefix.
	LocalName(id NodeID) string
	// Prefix returns the namespace prefix, or the empty string.
	Prefix(id NodeID) string
	// NamespaceURI resolves the node's in-scope namespace URI, or the
	// empty string when the representation does not track namespaces.
	NamespaceURI(id NodeID) string
	// StringValue returns the XPath string-value of the node.
	StringValue(id NodeID) string
	// Compare orders two nodes by document order: -1, 0, or +1.
	Compare(a, b NodeID) int
}
