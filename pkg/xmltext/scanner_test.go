package xmltext

import (
	"errors"
	"strings"
	"testing"
)

// recorder captures scanner events as compact strings.
type recorder struct {
	input  []byte
	events []string
}

func (r *recorder) text(region Region) string {
	return string(region.Bytes(r.input))
}

func (r *recorder) StartElement(name Name, attrs []Attr, selfClosing bool, _ Region) error {
	ev := "start:" + r.text(name.Full)
	for _, attr := range attrs {
		ev += " " + r.text(attr.Name.Full) + "=" + r.text(attr.Value)
	}
	if selfClosing {
		ev += " empty"
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) EndElement(name Name, _ Region) error {
	r.events = append(r.events, "end:"+r.text(name.Full))
	return nil
}

func (r *recorder) CharData(text Region, needs bool) error {
	ev := "text:" + r.text(text)
	if needs {
		ev += " needs"
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) CDATA(text Region) error {
	r.events = append(r.events, "cdata:"+r.text(text))
	return nil
}

func (r *recorder) Comment(text Region) error {
	r.events = append(r.events, "comment:"+r.text(text))
	return nil
}

func (r *recorder) ProcessingInstruction(target Name, data Region) error {
	r.events = append(r.events, "pi:"+r.text(target.Full)+" "+r.text(data))
	return nil
}

func (r *recorder) XMLDecl(attrs []Attr) error {
	ev := "xmldecl:"
	for _, attr := range attrs {
		ev += " " + r.text(attr.Name.Full) + "=" + r.text(attr.Value)
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) DoctypeSeen(Region) error {
	r.events = append(r.events, "doctype")
	return nil
}

func scanEvents(t *testing.T, input string, opts ...Options) []string {
	t.Helper()
	rec := &recorder{input: []byte(input)}
	if err := Scan(rec.input, rec, opts...); err != nil {
		t.Fatalf("Scan(%q) error = %v", input, err)
	}
	return rec.events
}

func TestScanBasicDocument(t *testing.T) {
	events := scanEvents(t, `<root attr="v">text</root>`, Strict(true))
	want := []string{"start:root attr=v", "text:text", "end:root"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestScanEmptyElement(t *testing.T) {
	events := scanEvents(t, `<br/>`, Strict(true))
	if len(events) != 1 || events[0] != "start:br empty" {
		t.Fatalf("events = %v, want [start:br empty]", events)
	}
}

func TestScanPrefixSplit(t *testing.T) {
	rec := &recorder{input: []byte(`<ns:item xmlns:ns="urn:x"/>`)}
	var got Name
	capture := &captureHandler{rec: rec, name: &got}
	if err := Scan(rec.input, capture, Strict(true)); err != nil {
		t.Fatalf("Scan error = %v", err)
	}
	if !got.HasPrefix() {
		t.Fatalf("HasPrefix = false, want true")
	}
	if prefix := string(got.Prefix.Bytes(rec.input)); prefix != "ns" {
		t.Fatalf("prefix = %q, want ns", prefix)
	}
	if local := string(got.Local.Bytes(rec.input)); local != "item" {
		t.Fatalf("local = %q, want item", local)
	}
}

type captureHandler struct {
	rec  *recorder
	name *Name
}

func (c *captureHandler) StartElement(name Name, attrs []Attr, selfClosing bool, raw Region) error {
	*c.name = name
	return c.rec.StartElement(name, attrs, selfClosing, raw)
}

func (c *captureHandler) EndElement(name Name, raw Region) error { return c.rec.EndElement(name, raw) }
func (c *captureHandler) CharData(text Region, needs bool) error { return c.rec.CharData(text, needs) }
func (c *captureHandler) CDATA(text Region) error                { return c.rec.CDATA(text) }
func (c *captureHandler) Comment(text Region) error              { return c.rec.Comment(text) }
func (c *captureHandler) ProcessingInstruction(target Name, data Region) error {
	return c.rec.ProcessingInstruction(target, data)
}
func (c *captureHandler) XMLDecl(attrs []Attr) error    { return c.rec.XMLDecl(attrs) }
func (c *captureHandler) DoctypeSeen(decl Region) error { return c.rec.DoctypeSeen(decl) }

func TestScanCommentCDATAPI(t *testing.T) {
	input := `<?xml version="1.0"?><!-- hi --><root><![CDATA[<not a tag>]]><?go run?></root>`
	events := scanEvents(t, input, Strict(true))
	want := []string{
		"xmldecl: version=1.0",
		"comment: hi ",
		"start:root",
		"cdata:<not a tag>",
		"pi:go run",
		"end:root",
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestScanDoctypeInternalSubset(t *testing.T) {
	input := `<!DOCTYPE root [ <!ENTITY a "b"> <!ELEMENT root (#PCDATA)> ]><root/>`
	events := scanEvents(t, input, Strict(true))
	if events[0] != "doctype" {
		t.Fatalf("events[0] = %q, want doctype", events[0])
	}
	if events[1] != "start:root empty" {
		t.Fatalf("events[1] = %q, want start:root empty", events[1])
	}
}

func TestScanTextNeedsUnescape(t *testing.T) {
	events := scanEvents(t, `<a>x&amp;y</a>`, Strict(true))
	if events[1] != "text:x&amp;y needs" {
		t.Fatalf("events[1] = %q, want raw text flagged for decode", events[1])
	}
}

func TestScanStrictErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"bad name", `<1invalid/>`},
		{"mismatched end", `<a></b>`},
		{"unclosed", `<a><b></b>`},
		{"duplicate attr", `<a x="1" x="2"/>`},
		{"lt in attr", `<a x="<"/>`},
		{"bad entity", `<a>&nope;</a>`},
		{"bare amp", `<a>a & b</a>`},
		{"bad charref", `<a>&#x0;</a>`},
		{"double dash comment", `<a><!-- a -- b --></a>`},
		{"cdend in text", `<a>]]></a>`},
		{"multiple roots", `<a/><b/>`},
		{"content outside root", `<a/>junk`},
		{"missing root", `   `},
		{"unterminated comment", `<a><!-- x</a>`},
		{"unterminated cdata", `<a><![CDATA[x</a>`},
		{"reserved pi target", `<a><?XML x?></a>`},
		{"misplaced xml decl", `<a><?xml version="1.0"?></a>`},
		{"bad standalone", `<?xml version="1.0" standalone="maybe"?><a/>`},
		{"doctype after root", `<a/><!DOCTYPE a>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{input: []byte(tc.input)}
			err := Scan(rec.input, rec, Strict(true))
			if err == nil {
				t.Fatalf("Scan(%q) error = nil, want well-formedness error", tc.input)
			}
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("Scan(%q) error = %T, want *SyntaxError", tc.input, err)
			}
			if syntax.Line <= 0 || syntax.Column <= 0 {
				t.Fatalf("SyntaxError location = %d:%d, want positive", syntax.Line, syntax.Column)
			}
		})
	}
}

func TestScanLenientRecovers(t *testing.T) {
	cases := []string{
		`<1invalid/>`,
		`<a x="1" x="2"/>`,
		`<a>&nope;</a>`,
		`<a>]]></a>`,
		`<a><b></b>`,
		`<a/><b/>`,
		`<a`,
		``,
	}
	for _, input := range cases {
		rec := &recorder{input: []byte(input)}
		if err := Scan(rec.input, rec, Strict(false)); err != nil {
			t.Fatalf("lenient Scan(%q) error = %v, want nil", input, err)
		}
	}
}

func TestScanLenientClosesOpenElements(t *testing.T) {
	events := scanEvents(t, `<a><b>text`)
	want := []string{"start:a", "start:b", "text:text", "end:b", "end:a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestScanMismatchedEndFatalInLenient(t *testing.T) {
	rec := &recorder{input: []byte(`<a><b></a>`)}
	if err := Scan(rec.input, rec); err == nil {
		t.Fatalf("lenient Scan error = nil, want mismatched end tag error")
	}
}

func TestScanFragmentMode(t *testing.T) {
	// A fragment window may hold stray end tags and text outside any
	// element.
	rec := &recorder{input: []byte(`tail</item><item id="2">B`)}
	if err := Scan(rec.input, rec, Fragment(true)); err != nil {
		t.Fatalf("fragment Scan error = %v", err)
	}
	want := []string{"text:tail", "end:item", "start:item id=2", "text:B"}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events[%d] = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestScanMaxDepth(t *testing.T) {
	input := strings.Repeat("<a>", 10) + strings.Repeat("</a>", 10)
	rec := &recorder{input: []byte(input)}
	if err := Scan(rec.input, rec, Strict(true), MaxDepth(5)); err == nil {
		t.Fatalf("Scan error = nil, want depth limit error")
	}
	rec = &recorder{input: []byte(input)}
	if err := Scan(rec.input, rec, Strict(true), MaxDepth(10)); err != nil {
		t.Fatalf("Scan error = %v, want nil at exact depth", err)
	}
}

func TestScanAttributeWhitespaceForms(t *testing.T) {
	events := scanEvents(t, "<a x = '1'\n\ty=\"2\" />", Strict(true))
	if events[0] != "start:a x=1 y=2 empty" {
		t.Fatalf("events[0] = %q, want start:a x=1 y=2 empty", events[0])
	}
}
