// Package xmlkit is a high-performance XML parsing and querying
// library: a zero-copy structural index over the input buffer, a
// chunked streaming element extractor, a SAX event collector, and an
// XPath 1.0 engine with a bounded compiled-expression cache.
//
// All parse and evaluation calls are synchronous and run to
// completion. A parsed Index is immutable and safe for concurrent
// readers; the expression cache is the only shared mutable state.
package xmlkit

import (
	"errors"

	xmlerrors "github.com/xmlkit/xmlkit/errors"
	"github.com/xmlkit/xmlkit/pkg/xmlindex"
	"github.com/xmlkit/xmlkit/pkg/xmlsax"
	"github.com/xmlkit/xmlkit/pkg/xmlstream"
	"github.com/xmlkit/xmlkit/pkg/xmltext"
	"github.com/xmlkit/xmlkit/pkg/xpath"
)

// ParseStrict parses an XML document enforcing the XML 1.0
// well-formedness constraints. The input is canonicalized first:
// UTF-16 is transcoded by BOM, a UTF-8 BOM is dropped, and line
// endings are normalized. The returned index owns the canonical
// buffer.
func ParseStrict(input []byte, opts ...Option) (*xmlindex.Index, error) {
	cfg := resolveConfig(opts...)
	prepared := xmltext.Prepare(input)
	idx, err := xmlindex.Build(prepared, cfg.scanOptions(true)...)
	if err != nil {
		return nil, toParseError(err)
	}
	return idx, nil
}

// ParseLenient parses an XML document skipping recoverable
// well-formedness checks. It never returns an error: on unrecoverable
// input the best-effort index built so far is returned, which may be
// empty.
func ParseLenient(input []byte, opts ...Option) *xmlindex.Index {
	cfg := resolveConfig(opts...)
	prepared := xmltext.Prepare(input)
	idx, _ := xmlindex.Build(prepared, cfg.scanOptions(false)...)
	return idx
}

// Root returns the root element index of a parsed document, or false
// when the document is empty.
func Root(idx *xmlindex.Index) (uint32, bool) {
	return idx.Root()
}

// Query evaluates an XPath 1.0 expression against a parsed index,
// compiling through the package expression cache.
func Query(idx *xmlindex.Index, expr string, opts ...Option) (xpath.Value, error) {
	cfg := resolveConfig(opts...)
	compiled, err := cfg.compile(expr)
	if err != nil {
		return xpath.Value{}, err
	}
	return xpath.Evaluate(idx.Document(), compiled)
}

// QueryStrings evaluates an XPath expression and returns the
// string-value of each node of a node-set result without
// materializing node handles. Non-node-set results convert to a
// single string per the XPath string() rules.
func QueryStrings(idx *xmlindex.Index, expr string, opts ...Option) ([]string, error) {
	value, err := Query(idx, expr, opts...)
	if err != nil {
		return nil, err
	}
	doc := idx.Document()
	if value.Kind != xpath.KindNodeSet {
		return []string{value.StringValue(doc)}, nil
	}
	out := make([]string, 0, len(value.Nodes))
	for _, node := range value.Nodes {
		out = append(out, doc.StringValue(node))
	}
	return out, nil
}

// CompileXPath compiles an expression without touching the cache.
func CompileXPath(expr string) (*xpath.Compiled, error) {
	return xpath.Compile(expr)
}

// SAXParse scans a document and returns its SAX event sequence with
// entities decoded. Strict well-formedness is enforced; events
// collected before a failure accompany the error.
func SAXParse(input []byte, opts ...Option) ([]xmlsax.Event, error) {
	cfg := resolveConfig(opts...)
	prepared := xmltext.Prepare(input)
	events, err := xmlsax.Parse(prepared, cfg.scanOptions(true)...)
	if err != nil {
		return events, toParseError(err)
	}
	return events, nil
}

// NewStream creates a streaming parser. With a non-empty filter only
// elements with that exact tag name are extracted; otherwise every
// top-level element is.
func NewStream(filter string, opts ...Option) *xmlstream.Parser {
	cfg := resolveConfig(opts...)
	return xmlstream.New(filter, cfg.scanOptions(cfg.strictStream)...)
}

// toParseError converts a scanner SyntaxError into the public
// ParseError carrying its code and location.
func toParseError(err error) error {
	var syntax *xmltext.SyntaxError
	if errors.As(err, &syntax) {
		return &xmlerrors.ParseError{
			Code:    syntax.Code,
			Message: syntax.Err.Error(),
			Offset:  syntax.Offset,
			Line:    syntax.Line,
			Column:  syntax.Column,
		}
	}
	return &xmlerrors.ParseError{
		Code:    xmlerrors.CodeMalformedMarkup,
		Message: err.Error(),
	}
}
