// Package xmlindex materializes a parsed XML document as a structural
// index: flat arrays of elements, texts, and attributes whose fields
// are (offset, length) spans into the owned input buffer.
//
// The index is built once by consuming scanner events and is immutable
// afterwards; any number of goroutines may read it concurrently. Child
// references are tagged 32-bit indices into the flat arrays, keeping
// traversal branch-light and allocation-free.
package xmlindex
