package xmltext

import (
	"errors"
	"fmt"

	xmlerrors "github.com/xmlkit/xmlkit/errors"
)

var (
	errUnexpectedEOF      = errors.New("unexpected end of input")
	errMalformedMarkup    = errors.New("malformed markup")
	errInvalidName        = errors.New("invalid XML name")
	errUnclosedTag        = errors.New("unclosed tag")
	errMismatchedEndTag   = errors.New("mismatched end element")
	errInvalidAttribute   = errors.New("invalid attribute")
	errDuplicateAttr      = errors.New("duplicate attribute name")
	errLtInAttrValue      = errors.New("'<' in attribute value")
	errInvalidEntity      = errors.New("invalid entity reference")
	errInvalidCharRef     = errors.New("invalid character reference")
	errInvalidChar        = errors.New("invalid XML character")
	errInvalidComment     = errors.New("invalid XML comment")
	errInvalidCData       = errors.New("invalid CDATA section")
	errInvalidDoctype     = errors.New("invalid DOCTYPE declaration")
	errInvalidPI          = errors.New("invalid processing instruction")
	errCDEndInText        = errors.New("']]>' in character data")
	errMultipleRoots      = errors.New("multiple root elements")
	errMissingRoot        = errors.New("missing root element")
	errContentOutsideRoot = errors.New("content outside root element")
	errMisplacedXMLDecl   = errors.New("XML declaration not at start")
	errMisplacedDoctype   = errors.New("DOCTYPE after root element")
	errDuplicateDoctype   = errors.New("duplicate DOCTYPE declaration")
	errReservedPITarget   = errors.New("processing instruction target 'xml' is reserved")
	errBadXMLDecl         = errors.New("invalid XML declaration")
	errBadStandalone      = errors.New("standalone must be 'yes' or 'no'")
	errDepthLimit         = errors.New("element depth exceeds MaxDepth")
)

// SyntaxError reports a well-formedness error with location context.
type SyntaxError struct {
	Offset int64
	Line   int
	Column int
	Code   xmlerrors.Code
	Err    error
}

// classify maps a scanner sentinel to its public error code.
func classify(err error) xmlerrors.Code {
	switch {
	case errors.Is(err, errUnexpectedEOF):
		return xmlerrors.CodeUnexpectedEOF
	case errors.Is(err, errInvalidName):
		return xmlerrors.CodeBadName
	case errors.Is(err, errUnclosedTag):
		return xmlerrors.CodeUnclosedTag
	case errors.Is(err, errMismatchedEndTag):
		return xmlerrors.CodeMismatchedEndTag
	case errors.Is(err, errInvalidAttribute),
		errors.Is(err, errDuplicateAttr),
		errors.Is(err, errLtInAttrValue):
		return xmlerrors.CodeBadAttribute
	case errors.Is(err, errInvalidEntity),
		errors.Is(err, errInvalidCharRef),
		errors.Is(err, errInvalidChar):
		return xmlerrors.CodeInvalidCharRef
	case errors.Is(err, errInvalidComment):
		return xmlerrors.CodeBadComment
	case errors.Is(err, errInvalidCData):
		return xmlerrors.CodeBadCData
	case errors.Is(err, errInvalidDoctype),
		errors.Is(err, errMisplacedDoctype),
		errors.Is(err, errDuplicateDoctype):
		return xmlerrors.CodeBadDoctype
	case errors.Is(err, errCDEndInText):
		return xmlerrors.CodeForbiddenSequence
	case errors.Is(err, errMultipleRoots),
		errors.Is(err, errMissingRoot),
		errors.Is(err, errContentOutsideRoot),
		errors.Is(err, errDepthLimit):
		return xmlerrors.CodeBadDocument
	default:
		return xmlerrors.CodeMalformedMarkup
	}
}

// Error formats the syntax error with location and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("xml syntax error at line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("xml syntax error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
