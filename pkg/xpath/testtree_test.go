package xpath

import "strings"

// testTree is the in-memory Document implementation used by the
// engine tests. Node identities are indices into the flat node list,
// assigned in document order.
type testTree struct {
	nodes []*testNode
}

type testNode struct {
	id       NodeID
	kind     NodeKind
	name     string
	prefix   string
	local    string
	nsURI    string
	value    string
	parent   int
	children []int
	attrs    []int
}

type treeSpec struct {
	kind     NodeKind
	name     string
	nsURI    string
	value    string
	attrs    []treeSpec
	children []treeSpec
}

func elem(name string, parts ...treeSpec) treeSpec {
	spec := treeSpec{kind: KindElement, name: name}
	for _, part := range parts {
		if part.kind == KindAttribute {
			spec.attrs = append(spec.attrs, part)
		} else {
			spec.children = append(spec.children, part)
		}
	}
	return spec
}

func txt(value string) treeSpec {
	return treeSpec{kind: KindText, value: value}
}

func attr(name, value string) treeSpec {
	return treeSpec{kind: KindAttribute, name: name, value: value}
}

func comment(value string) treeSpec {
	return treeSpec{kind: KindComment, value: value}
}

func pi(target, data string) treeSpec {
	return treeSpec{kind: KindPI, name: target, value: data}
}

func newTree(rootChildren ...treeSpec) *testTree {
	tree := &testTree{}
	root := &testNode{id: 0, kind: KindRoot, parent: -1}
	tree.nodes = append(tree.nodes, root)
	for _, spec := range rootChildren {
		tree.add(0, spec)
	}
	return tree
}

func (t *testTree) add(parent int, spec treeSpec) int {
	idx := len(t.nodes)
	node := &testNode{
		id:     NodeID(idx),
		kind:   spec.kind,
		name:   spec.name,
		nsURI:  spec.nsURI,
		value:  spec.value,
		parent: parent,
	}
	node.local = spec.name
	if prefix, local, ok := strings.Cut(spec.name, ":"); ok && spec.kind != KindPI {
		node.prefix = prefix
		node.local = local
	}
	t.nodes = append(t.nodes, node)
	if spec.kind == KindAttribute {
		t.nodes[parent].attrs = append(t.nodes[parent].attrs, idx)
	} else {
		t.nodes[parent].children = append(t.nodes[parent].children, idx)
	}
	for _, attrSpec := range spec.attrs {
		t.add(idx, attrSpec)
	}
	for _, childSpec := range spec.children {
		t.add(idx, childSpec)
	}
	return idx
}

func (t *testTree) Root() NodeID { return 0 }

func (t *testTree) Kind(id NodeID) NodeKind { return t.nodes[id].kind }

func (t *testTree) Parent(id NodeID) (NodeID, bool) {
	parent := t.nodes[id].parent
	if parent < 0 {
		return 0, false
	}
	return NodeID(parent), true
}

func (t *testTree) Children(id NodeID, dst []NodeID) []NodeID {
	for _, child := range t.nodes[id].children {
		dst = append(dst, NodeID(child))
	}
	return dst
}

func (t *testTree) Attributes(id NodeID, dst []NodeID) []NodeID {
	for _, a := range t.nodes[id].attrs {
		dst = append(dst, NodeID(a))
	}
	return dst
}

func (t *testTree) Name(id NodeID) string { return t.nodes[id].name }

func (t *testTree) LocalName(id NodeID) string { return t.nodes[id].local }

func (t *testTree) Prefix(id NodeID) string { return t.nodes[id].prefix }

func (t *testTree) NamespaceURI(id NodeID) string { return t.nodes[id].nsURI }

func (t *testTree) StringValue(id NodeID) string {
	node := t.nodes[id]
	switch node.kind {
	case KindText, KindAttribute, KindComment, KindPI:
		return node.value
	default:
		var b strings.Builder
		stack := make([]int, 0, 8)
		for i := len(node.children) - 1; i >= 0; i-- {
			stack = append(stack, node.children[i])
		}
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			child := t.nodes[idx]
			if child.kind == KindText {
				b.WriteString(child.value)
				continue
			}
			if child.kind != KindElement {
				continue
			}
			for i := len(child.children) - 1; i >= 0; i-- {
				stack = append(stack, child.children[i])
			}
		}
		return b.String()
	}
}

func (t *testTree) Compare(a, b NodeID) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// find returns the first element with the given name, depth first.
func (t *testTree) find(name string) NodeID {
	for _, node := range t.nodes {
		if node.kind == KindElement && node.name == name {
			return node.id
		}
	}
	return 0
}
