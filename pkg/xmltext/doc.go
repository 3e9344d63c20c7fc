// Package xmltext implements the byte-level XML scanner used by the
// structural index builder, the SAX collector, and the streaming
// parser.
//
// The scanner walks a fully-buffered input and dispatches structural
// events through the Handler interface. Every name, attribute value,
// and text run is reported as a Region into the scanned buffer; no
// copies are made. Entity references are left in place and decoded
// lazily by accessors through Unescape.
//
// Strict mode enforces the XML 1.0 well-formedness constraints; the
// lenient mode suppresses recoverable checks and keeps scanning.
package xmltext
