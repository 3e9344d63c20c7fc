package xmlindex

import (
	"strings"
	"testing"

	"github.com/xmlkit/xmlkit/internal/xiter"
	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

func buildStrict(t *testing.T, input string) *Index {
	t.Helper()
	idx, err := Build([]byte(input), xmltext.Strict(true))
	if err != nil {
		t.Fatalf("Build(%q) error = %v", input, err)
	}
	return idx
}

func TestBuildBasicStructure(t *testing.T) {
	idx := buildStrict(t, `<root><child id="value">hello world</child></root>`)

	if idx.ElementCount() != 2 {
		t.Fatalf("ElementCount = %d, want 2", idx.ElementCount())
	}
	if idx.TextCount() != 1 {
		t.Fatalf("TextCount = %d, want 1", idx.TextCount())
	}
	if idx.AttrCount() != 1 {
		t.Fatalf("AttrCount = %d, want 1", idx.AttrCount())
	}

	root, ok := idx.Root()
	if !ok {
		t.Fatalf("Root = none, want root element")
	}
	if got := idx.ElementName(root); got != "root" {
		t.Fatalf("root name = %q, want root", got)
	}
	if _, hasParent := idx.Parent(root); hasParent {
		t.Fatalf("root has a parent, want sentinel")
	}

	children := xiter.Collect(idx.Children(root))
	if len(children) != 1 || !children[0].IsElement() {
		t.Fatalf("root children = %v, want one element", children)
	}
	child := children[0].Index()
	if got := idx.ElementName(child); got != "child" {
		t.Fatalf("child name = %q, want child", got)
	}
	if parent, _ := idx.Parent(child); parent != root {
		t.Fatalf("child parent = %d, want %d", parent, root)
	}
	if value, ok := idx.Attr(child, "id"); !ok || value != "value" {
		t.Fatalf("Attr(id) = %q, %v, want value, true", value, ok)
	}
	if got := idx.StringValue(child); got != "hello world" {
		t.Fatalf("StringValue = %q, want hello world", got)
	}
}

func TestBuildParentChildInvariant(t *testing.T) {
	idx := buildStrict(t, `<a><b><c/><d>t</d></b><e/></a>`)
	for i := 0; i < idx.ElementCount(); i++ {
		elem := uint32(i)
		parent, hasParent := idx.Parent(elem)
		root, _ := idx.Root()
		if !hasParent {
			if elem != root {
				t.Fatalf("element %d has sentinel parent but is not root", elem)
			}
			continue
		}
		if parent >= elem {
			t.Fatalf("parent %d >= element %d, want strictly earlier in document order", parent, elem)
		}
		seen := 0
		for ref := range idx.Children(parent) {
			if ref.IsElement() && ref.Index() == elem {
				seen++
			}
		}
		if seen != 1 {
			t.Fatalf("element %d appears %d times in parent's children, want 1", elem, seen)
		}
	}
}

func TestBuildSpanBounds(t *testing.T) {
	input := `<a x="1"><b>text<![CDATA[cd]]></b><c y="&amp;"/></a>`
	idx := buildStrict(t, input)
	check := func(s Span) {
		if int(s.Offset)+int(s.Length) > len(idx.Input()) {
			t.Fatalf("span %+v exceeds input length %d", s, len(idx.Input()))
		}
	}
	for i := 0; i < idx.ElementCount(); i++ {
		check(idx.Element(uint32(i)).Name)
	}
	for i := 0; i < idx.TextCount(); i++ {
		check(idx.Text(uint32(i)).Span)
	}
	for i := uint32(0); i < uint32(idx.AttrCount()); i++ {
		attr := idx.AttrAt(i)
		check(attr.Name)
		check(attr.Value)
	}
}

func TestBuildMixedContentOrder(t *testing.T) {
	idx := buildStrict(t, `<p>A<b/>C</p>`)
	root, _ := idx.Root()
	refs := idx.ChildRefs(root)
	if len(refs) != 3 {
		t.Fatalf("children = %d, want 3", len(refs))
	}
	if refs[0].Kind() != ChildText || refs[1].Kind() != ChildElement || refs[2].Kind() != ChildText {
		t.Fatalf("child kinds = %v %v %v, want text, element, text", refs[0].Kind(), refs[1].Kind(), refs[2].Kind())
	}
	if got := idx.TextValue(refs[0].Index()); got != "A" {
		t.Fatalf("first text = %q, want A", got)
	}
	if got := idx.TextValue(refs[2].Index()); got != "C" {
		t.Fatalf("last text = %q, want C", got)
	}
}

func TestBuildCDATANotCoalesced(t *testing.T) {
	idx := buildStrict(t, `<a>x<![CDATA[y]]>z</a>`)
	root, _ := idx.Root()
	refs := idx.ChildRefs(root)
	if len(refs) != 3 {
		t.Fatalf("children = %d, want 3 (cdata breaks coalescing)", len(refs))
	}
	if refs[1].Kind() != ChildCData {
		t.Fatalf("middle kind = %v, want ChildCData", refs[1].Kind())
	}
	if got := idx.StringValue(root); got != "xyz" {
		t.Fatalf("StringValue = %q, want xyz", got)
	}
}

func TestBuildEntityDecodingLazy(t *testing.T) {
	idx := buildStrict(t, `<root><a>&amp;&lt;&gt;&apos;&quot;</a></root>`)
	root, _ := idx.Root()
	a := idx.ChildRefs(root)[0].Index()
	if got := idx.StringValue(a); got != `&<>'"` {
		t.Fatalf("StringValue = %q, want %q", got, `&<>'"`)
	}
	text := idx.Text(idx.ChildRefs(a)[0].Index())
	if !text.NeedsUnescape {
		t.Fatalf("NeedsUnescape = false, want true")
	}
	raw := text.Span.Bytes(idx.Input())
	if string(raw) != "&amp;&lt;&gt;&apos;&quot;" {
		t.Fatalf("raw span = %q, want escaped source bytes", raw)
	}
}

func TestBuildAttrEntityDecoding(t *testing.T) {
	idx := buildStrict(t, `<a title="x &amp; y"/>`)
	root, _ := idx.Root()
	if value, ok := idx.Attr(root, "title"); !ok || value != "x & y" {
		t.Fatalf("Attr(title) = %q, %v, want x & y, true", value, ok)
	}
}

func TestBuildDoctypeFlag(t *testing.T) {
	idx := buildStrict(t, `<!DOCTYPE a><a/>`)
	if !idx.DoctypeSeen() {
		t.Fatalf("DoctypeSeen = false, want true")
	}
	idx = buildStrict(t, `<a/>`)
	if idx.DoctypeSeen() {
		t.Fatalf("DoctypeSeen = true, want false")
	}
}

func TestBuildLenientEmptyDocument(t *testing.T) {
	idx, err := Build(nil)
	if err != nil {
		t.Fatalf("lenient Build(empty) error = %v", err)
	}
	if _, ok := idx.Root(); ok {
		t.Fatalf("Root = present, want none for empty document")
	}
}

func TestBuildLenientMalformed(t *testing.T) {
	inputs := []string{
		`<1invalid/>`,
		`<a><b>`,
		`<a x=1>`,
		`&&&&`,
		strings.Repeat("<a>", 1000),
	}
	for _, input := range inputs {
		idx, _ := Build([]byte(input))
		if idx == nil {
			t.Fatalf("lenient Build(%q) = nil index", input)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	input := []byte(`<r a="1"><x>1</x><x>2</x><!-- c --><y><z/></y></r>`)
	first, err := Build(input, xmltext.Strict(true))
	if err != nil {
		t.Fatalf("first Build error = %v", err)
	}
	second, err := Build(input, xmltext.Strict(true))
	if err != nil {
		t.Fatalf("second Build error = %v", err)
	}
	if first.ElementCount() != second.ElementCount() ||
		first.TextCount() != second.TextCount() ||
		first.AttrCount() != second.AttrCount() {
		t.Fatalf("counts differ: %+v vs %+v", first.Stats(), second.Stats())
	}
	for i := 0; i < first.ElementCount(); i++ {
		if first.Element(uint32(i)).Name != second.Element(uint32(i)).Name {
			t.Fatalf("element %d span differs between parses", i)
		}
	}
}

func TestFindByLocalName(t *testing.T) {
	idx := buildStrict(t, `<r><ns:e/><e/><other/></r>`)
	if got := xiter.Count(idx.FindByLocalName("e")); got != 2 {
		t.Fatalf("FindByLocalName(e) count = %d, want 2", got)
	}
	if got := xiter.Count(idx.FindByName("ns:e")); got != 1 {
		t.Fatalf("FindByName(ns:e) count = %d, want 1", got)
	}
}

func TestDescendantsOrder(t *testing.T) {
	idx := buildStrict(t, `<a><b><c/></b><d/></a>`)
	root, _ := idx.Root()
	var names []string
	for ref := range idx.Descendants(root) {
		if ref.IsElement() {
			names = append(names, idx.ElementName(ref.Index()))
		}
	}
	want := []string{"b", "c", "d"}
	if len(names) != len(want) {
		t.Fatalf("descendants = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("descendants[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDeepNestingNoOverflow(t *testing.T) {
	const depth = 50000
	input := strings.Repeat("<d>", depth) + "x" + strings.Repeat("</d>", depth)
	idx := buildStrict(t, input)
	root, _ := idx.Root()
	if got := idx.StringValue(root); got != "x" {
		t.Fatalf("StringValue = %q, want x", got)
	}
	if got := xiter.Count(idx.Descendants(root)); got != depth {
		t.Fatalf("descendant count = %d, want %d", got, depth)
	}
}
