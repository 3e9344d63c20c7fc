// Package xpath implements an XPath 1.0 lexer, parser, compiler, and
// evaluator over any document representation that satisfies the
// Document capability interface.
//
// Compiled expressions are immutable and safe for concurrent
// evaluation; the bounded Cache maps expression source strings to
// compiled forms under an interior mutex.
//
// Reduced semantics, by design: the namespace axis yields an empty
// node-set because node identities for namespace bindings are not part
// of the document capability, id() always fails because DTD processing
// is disabled, and $variable references always fail.
package xpath
