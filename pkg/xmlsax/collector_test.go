package xmlsax

import (
	"testing"

	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

func TestParseEventSequence(t *testing.T) {
	input := `<?p d?><root a="1"><x>t&amp;t</x><![CDATA[<raw>]]><!-- c --><empty/></root>`
	events, err := Parse([]byte(input), xmltext.Strict(true))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	type want struct {
		kind EventKind
		name string
		text string
	}
	wants := []want{
		{EventProcessingInstruction, "p", "d"},
		{EventStartElement, "root", ""},
		{EventStartElement, "x", ""},
		{EventCharacters, "", "t&t"},
		{EventEndElement, "x", ""},
		{EventCData, "", "<raw>"},
		{EventComment, "", " c "},
		{EventStartElement, "empty", ""},
		{EventEndElement, "empty", ""},
		{EventEndElement, "root", ""},
	}
	if len(events) != len(wants) {
		t.Fatalf("events = %d, want %d: %+v", len(events), len(wants), events)
	}
	for i, w := range wants {
		ev := events[i]
		if ev.Kind != w.kind {
			t.Fatalf("events[%d].Kind = %v, want %v", i, ev.Kind, w.kind)
		}
		if ev.Name != w.name {
			t.Fatalf("events[%d].Name = %q, want %q", i, ev.Name, w.name)
		}
		if ev.Text != w.text {
			t.Fatalf("events[%d].Text = %q, want %q", i, ev.Text, w.text)
		}
	}
}

func TestParseAttributesDecoded(t *testing.T) {
	events, err := Parse([]byte(`<a title="x &amp; y" n="&#65;"/>`), xmltext.Strict(true))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	start := events[0]
	if len(start.Attrs) != 2 {
		t.Fatalf("attrs = %d, want 2", len(start.Attrs))
	}
	if start.Attrs[0].Value != "x & y" {
		t.Fatalf("attr[0] = %q, want decoded value", start.Attrs[0].Value)
	}
	if start.Attrs[1].Value != "A" {
		t.Fatalf("attr[1] = %q, want A", start.Attrs[1].Value)
	}
}

func TestParseMalformedStrict(t *testing.T) {
	events, err := Parse([]byte(`<a><b></a>`), xmltext.Strict(true))
	if err == nil {
		t.Fatalf("Parse error = nil, want mismatched end tag error")
	}
	// Events before the failure are still delivered.
	if len(events) < 2 {
		t.Fatalf("events before failure = %d, want start events", len(events))
	}
}

func TestEventsIterator(t *testing.T) {
	n := 0
	for ev, err := range Events([]byte(`<a><b/></a>`), xmltext.Strict(true)) {
		if err != nil {
			t.Fatalf("iterator error = %v", err)
		}
		_ = ev
		n++
	}
	if n != 4 {
		t.Fatalf("iterated events = %d, want 4", n)
	}
}
