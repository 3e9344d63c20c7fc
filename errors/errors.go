// Package errors defines the public error types for the xmlkit module.
//
// Errors are values: parse failures carry a well-formedness code and a
// byte offset into the input, XPath compile failures carry a position
// into the expression source, and evaluation failures carry the
// originating expression.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a well-formedness or evaluation failure.
type Code string

const (
	// CodeUnexpectedEOF indicates the input ended inside a construct.
	CodeUnexpectedEOF Code = "xml-unexpected-eof"
	// CodeMalformedMarkup indicates markup that fits no XML construct.
	CodeMalformedMarkup Code = "xml-malformed-markup"
	// CodeBadName indicates an invalid XML name.
	CodeBadName Code = "xml-bad-name"
	// CodeUnclosedTag indicates a tag without a closing delimiter.
	CodeUnclosedTag Code = "xml-unclosed-tag"
	// CodeMismatchedEndTag indicates an end tag that does not match the open element.
	CodeMismatchedEndTag Code = "xml-mismatched-end-tag"
	// CodeBadAttribute indicates a malformed or duplicate attribute.
	CodeBadAttribute Code = "xml-bad-attribute"
	// CodeInvalidCharRef indicates an entity or character reference error,
	// or a character that is not allowed in XML.
	CodeInvalidCharRef Code = "xml-invalid-char-ref"
	// CodeBadComment indicates a malformed comment.
	CodeBadComment Code = "xml-bad-comment"
	// CodeBadCData indicates a malformed CDATA section.
	CodeBadCData Code = "xml-bad-cdata"
	// CodeBadDoctype indicates a malformed DOCTYPE declaration.
	CodeBadDoctype Code = "xml-bad-doctype"
	// CodeForbiddenSequence indicates "]]>" in character data. A "--"
	// inside a comment is reported as CodeBadComment, not with this code.
	CodeForbiddenSequence Code = "xml-forbidden-sequence"
	// CodeBadDocument indicates a document-level constraint violation,
	// such as multiple roots or content outside the root element.
	CodeBadDocument Code = "xml-bad-document"
	// CodeStreamCorrupt indicates streaming-parser state corruption.
	CodeStreamCorrupt Code = "xml-stream-corrupt"
)

// ParseError reports a well-formedness violation with location context.
type ParseError struct {
	Code    Code
	Message string
	Offset  int64
	Line    int
	Column  int
}

// Error formats the parse error with its code and location.
func (e *ParseError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("[%s] %s at line %d, column %d", e.Code, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("[%s] %s at offset %d", e.Code, e.Message, e.Offset)
}

// CompileError reports an XPath lexing or parsing failure.
type CompileError struct {
	Message  string
	Position int
}

// Error formats the compile error with its expression position.
func (e *CompileError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("xpath compile error at position %d: %s", e.Position, e.Message)
}

// EvalError reports an XPath evaluation failure.
type EvalError struct {
	Message string
	Expr    string
}

// Error formats the evaluation error with the originating expression.
func (e *EvalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Expr == "" {
		return "xpath eval error: " + e.Message
	}
	return fmt.Sprintf("xpath eval error in %q: %s", e.Expr, e.Message)
}

// AsParseError extracts a ParseError from an error chain.
func AsParseError(err error) (*ParseError, bool) {
	if err == nil {
		return nil, false
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr, true
	}
	return nil, false
}

// AsCompileError extracts a CompileError from an error chain.
func AsCompileError(err error) (*CompileError, bool) {
	if err == nil {
		return nil, false
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return compileErr, true
	}
	return nil, false
}

// AsEvalError extracts an EvalError from an error chain.
func AsEvalError(err error) (*EvalError, bool) {
	if err == nil {
		return nil, false
	}
	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		return evalErr, true
	}
	return nil, false
}
