package xmlindex

import "strings"

// xmlNamespace is the URI implicitly bound to the xml prefix.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ResolveNamespace returns the in-scope namespace URI for prefix at
// the given element, walking xmlns declarations up the ancestor chain.
// Pass the empty prefix for the default namespace.
func (x *Index) ResolveNamespace(elem uint32, prefix string) (string, bool) {
	if prefix == "xml" {
		return xmlNamespace, true
	}
	var want string
	if prefix == "" {
		want = "xmlns"
	} else {
		want = "xmlns:" + prefix
	}
	node := elem
	for {
		for _, attr := range x.Attrs(node) {
			if x.AttrName(attr) == want {
				return x.AttrValue(attr), true
			}
		}
		parent := x.elements[node].Parent
		if parent == NoNode {
			return "", false
		}
		node = parent
	}
}

// NamespaceBinding is one in-scope prefix binding.
type NamespaceBinding struct {
	Prefix string
	URI    string
}

// InScopeNamespaces collects the namespace bindings visible at an
// element, innermost declaration winning per prefix. The implicit xml
// binding is always present.
func (x *Index) InScopeNamespaces(elem uint32) []NamespaceBinding {
	seen := map[string]struct{}{}
	var bindings []NamespaceBinding
	node := elem
	for {
		for _, attr := range x.Attrs(node) {
			name := x.AttrName(attr)
			var prefix string
			switch {
			case name == "xmlns":
				prefix = ""
			case strings.HasPrefix(name, "xmlns:"):
				prefix = name[len("xmlns:"):]
			default:
				continue
			}
			if _, dup := seen[prefix]; dup {
				continue
			}
			seen[prefix] = struct{}{}
			uri := x.AttrValue(attr)
			if uri == "" {
				continue
			}
			bindings = append(bindings, NamespaceBinding{Prefix: prefix, URI: uri})
		}
		parent := x.elements[node].Parent
		if parent == NoNode {
			break
		}
		node = parent
	}
	bindings = append(bindings, NamespaceBinding{Prefix: "xml", URI: xmlNamespace})
	return bindings
}
