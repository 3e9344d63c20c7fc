package xpath

// appendAxis appends the nodes reached from context along axis onto
// dst, in the axis's natural order (reverse axes yield nearest-first).
// Traversals use explicit work stacks so document depth never grows
// the goroutine stack.
func appendAxis(doc Document, axis Axis, context NodeID, dst []NodeID) []NodeID {
	switch axis {
	case AxisChild:
		return doc.Children(context, dst)

	case AxisDescendant:
		return appendDescendants(doc, context, dst)

	case AxisDescendantOrSelf:
		dst = append(dst, context)
		return appendDescendants(doc, context, dst)

	case AxisParent:
		if parent, ok := doc.Parent(context); ok {
			dst = append(dst, parent)
		}
		return dst

	case AxisAncestor:
		node := context
		for {
			parent, ok := doc.Parent(node)
			if !ok {
				return dst
			}
			dst = append(dst, parent)
			node = parent
		}

	case AxisAncestorOrSelf:
		dst = append(dst, context)
		node := context
		for {
			parent, ok := doc.Parent(node)
			if !ok {
				return dst
			}
			dst = append(dst, parent)
			node = parent
		}

	case AxisFollowingSibling:
		return appendSiblings(doc, context, dst, true)

	case AxisPrecedingSibling:
		return appendSiblings(doc, context, dst, false)

	case AxisFollowing:
		return appendFollowing(doc, context, dst)

	case AxisPreceding:
		return appendPreceding(doc, context, dst)

	case AxisSelf:
		return append(dst, context)

	case AxisAttribute:
		return doc.Attributes(context, dst)

	case AxisNamespace:
		// Namespace nodes are not representable through the document
		// capability; the axis is empty by documented reduction.
		return dst

	default:
		return dst
	}
}

func appendDescendants(doc Document, context NodeID, dst []NodeID) []NodeID {
	stack := doc.Children(context, nil)
	reverse(stack)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		dst = append(dst, node)
		mark := len(stack)
		stack = doc.Children(node, stack)
		reverse(stack[mark:])
	}
	return dst
}

// appendSiblings appends siblings after (following) or before
// (preceding, nearest first) the context node. Attribute nodes have
// no siblings.
func appendSiblings(doc Document, context NodeID, dst []NodeID, following bool) []NodeID {
	if doc.Kind(context) == KindAttribute {
		return dst
	}
	parent, ok := doc.Parent(context)
	if !ok {
		return dst
	}
	siblings := doc.Children(parent, nil)
	idx := -1
	for i, sibling := range siblings {
		if sibling == context {
			idx = i
			break
		}
	}
	if idx < 0 {
		return dst
	}
	if following {
		return append(dst, siblings[idx+1:]...)
	}
	for i := idx - 1; i >= 0; i-- {
		dst = append(dst, siblings[i])
	}
	return dst
}

// appendFollowing walks each ancestor-or-self's following siblings and
// their subtrees in document order.
func appendFollowing(doc Document, context NodeID, dst []NodeID) []NodeID {
	node := context
	if doc.Kind(node) == KindAttribute {
		if parent, ok := doc.Parent(node); ok {
			node = parent
		}
	}
	for {
		var siblings []NodeID
		siblings = appendSiblings(doc, node, siblings, true)
		for _, sibling := range siblings {
			dst = append(dst, sibling)
			dst = appendDescendants(doc, sibling, dst)
		}
		parent, ok := doc.Parent(node)
		if !ok {
			return dst
		}
		node = parent
	}
}

// appendPreceding collects the nodes before context in document order,
// excluding ancestors, and yields them in reverse document order.
func appendPreceding(doc Document, context NodeID, dst []NodeID) []NodeID {
	target := context
	if doc.Kind(target) == KindAttribute {
		if parent, ok := doc.Parent(target); ok {
			target = parent
		}
	}

	ancestors := make(map[NodeID]struct{})
	node := target
	for {
		parent, ok := doc.Parent(node)
		if !ok {
			break
		}
		ancestors[parent] = struct{}{}
		node = parent
	}

	mark := len(dst)
	stack := doc.Children(doc.Root(), nil)
	reverse(stack)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == target {
			break
		}
		if _, isAncestor := ancestors[node]; !isAncestor {
			dst = append(dst, node)
		}
		top := len(stack)
		stack = doc.Children(node, stack)
		reverse(stack[top:])
	}
	reverse(dst[mark:])
	return dst
}

func reverse(nodes []NodeID) {
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
}

// matchesTest applies a node test. The principal node type is
// attribute for the attribute axis and element otherwise.
func matchesTest(doc Document, id NodeID, test NodeTest, axis Axis) bool {
	kind := doc.Kind(id)
	principal := KindElement
	if axis == AxisAttribute {
		principal = KindAttribute
	}

	switch test.Kind {
	case TestAnyName:
		return kind == principal

	case TestName:
		if kind != principal {
			return false
		}
		if doc.LocalName(id) != test.Local {
			return false
		}
		if test.Prefix != "" {
			return doc.Prefix(id) == test.Prefix
		}
		return doc.Prefix(id) == ""

	case TestNSWildcard:
		return kind == principal && doc.Prefix(id) == test.Prefix

	case TestNode:
		return true

	case TestText:
		return kind == KindText

	case TestComment:
		return kind == KindComment

	case TestPI:
		if kind != KindPI {
			return false
		}
		if test.PITarget == "" {
			return true
		}
		return doc.Name(id) == test.PITarget

	default:
		return false
	}
}
