package xmlkit

import (
	"strings"
	"testing"
)

func benchDocument(items int) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><catalog>`)
	for i := 0; i < items; i++ {
		b.WriteString(`<item id="`)
		b.WriteString(strings.Repeat("x", 1+i%8))
		b.WriteString(`"><name>widget</name><price>9.99</price></item>`)
	}
	b.WriteString(`</catalog>`)
	return []byte(b.String())
}

func BenchmarkParseStrict(b *testing.B) {
	doc := benchDocument(1000)
	b.SetBytes(int64(len(doc)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseStrict(doc); err != nil {
			b.Fatalf("ParseStrict error = %v", err)
		}
	}
}

func BenchmarkQueryCached(b *testing.B) {
	doc := benchDocument(1000)
	idx, err := ParseStrict(doc)
	if err != nil {
		b.Fatalf("ParseStrict error = %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Query(idx, "count(//item)"); err != nil {
			b.Fatalf("Query error = %v", err)
		}
	}
}

func BenchmarkQueryAttrFastPath(b *testing.B) {
	doc := benchDocument(1000)
	idx, err := ParseStrict(doc)
	if err != nil {
		b.Fatalf("ParseStrict error = %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Query(idx, `//item[@id='x']`); err != nil {
			b.Fatalf("Query error = %v", err)
		}
	}
}

func BenchmarkStreaming(b *testing.B) {
	doc := benchDocument(1000)
	b.SetBytes(int64(len(doc)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p := NewStream("item")
		if _, _, err := p.Feed(doc); err != nil {
			b.Fatalf("Feed error = %v", err)
		}
		if _, err := p.Finalize(); err != nil {
			b.Fatalf("Finalize error = %v", err)
		}
	}
}
