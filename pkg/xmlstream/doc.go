// Package xmlstream extracts complete serialized elements from an XML
// byte stream fed in arbitrary chunks, under bounded working memory.
//
// The parser keeps a residual buffer of bytes that could not yet be
// tokenized, carries the open-element name stack across chunks (an
// end tag that does not match the open element is fatal in every
// mode), and captures the verbatim byte range of every outermost
// element matching the tag filter from its '<tag' through its closing
// '</tag>' or '/>'. Completed elements are owned copies: the residual
// buffer is compacted as input is consumed, so spans into it would
// not survive.
//
// A Parser is stateful and not safe for concurrent use; exactly one
// owner may call Feed, Take, and Finalize.
package xmlstream
