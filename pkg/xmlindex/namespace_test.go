package xmlindex

import "testing"

func TestResolveNamespace(t *testing.T) {
	input := `<root xmlns="urn:default" xmlns:a="urn:a"><a:x><y/></a:x><b:z xmlns:b="urn:b"/></root>`
	idx := buildStrict(t, input)

	root, _ := idx.Root()
	if uri, ok := idx.ResolveNamespace(root, ""); !ok || uri != "urn:default" {
		t.Fatalf("default ns = %q, %v, want urn:default, true", uri, ok)
	}

	var ax, y, bz uint32
	for i := 0; i < idx.ElementCount(); i++ {
		switch idx.ElementName(uint32(i)) {
		case "a:x":
			ax = uint32(i)
		case "y":
			y = uint32(i)
		case "b:z":
			bz = uint32(i)
		}
	}

	if uri, ok := idx.ResolveNamespace(ax, "a"); !ok || uri != "urn:a" {
		t.Fatalf("a prefix = %q, %v, want urn:a, true", uri, ok)
	}
	if uri, ok := idx.ResolveNamespace(y, "a"); !ok || uri != "urn:a" {
		t.Fatalf("inherited a prefix = %q, %v, want urn:a, true", uri, ok)
	}
	if uri, ok := idx.ResolveNamespace(bz, "b"); !ok || uri != "urn:b" {
		t.Fatalf("local b prefix = %q, %v, want urn:b, true", uri, ok)
	}
	if _, ok := idx.ResolveNamespace(root, "missing"); ok {
		t.Fatalf("missing prefix resolved, want miss")
	}
	if uri, ok := idx.ResolveNamespace(y, "xml"); !ok || uri != xmlNamespace {
		t.Fatalf("xml prefix = %q, %v, want implicit binding", uri, ok)
	}
}

func TestInScopeNamespaces(t *testing.T) {
	input := `<root xmlns="urn:d" xmlns:a="urn:outer"><inner xmlns:a="urn:inner"/></root>`
	idx := buildStrict(t, input)

	var inner uint32
	for i := 0; i < idx.ElementCount(); i++ {
		if idx.ElementName(uint32(i)) == "inner" {
			inner = uint32(i)
		}
	}
	bindings := idx.InScopeNamespaces(inner)
	byPrefix := map[string]string{}
	for _, b := range bindings {
		byPrefix[b.Prefix] = b.URI
	}
	if byPrefix["a"] != "urn:inner" {
		t.Fatalf("a binding = %q, want innermost urn:inner", byPrefix["a"])
	}
	if byPrefix[""] != "urn:d" {
		t.Fatalf("default binding = %q, want urn:d", byPrefix[""])
	}
	if byPrefix["xml"] != xmlNamespace {
		t.Fatalf("xml binding = %q, want implicit", byPrefix["xml"])
	}
}
