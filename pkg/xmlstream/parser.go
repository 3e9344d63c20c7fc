package xmlstream

import (
	"bytes"
	"errors"

	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

const initialBufferSize = 8 * 1024

var (
	errFinalized     = errors.New("streaming parser already finalized")
	errLatched       = errors.New("streaming parser failed earlier")
	errLeftover      = errors.New("incomplete markup at end of stream")
	errMismatchedTag = errors.New("mismatched end element")
	errNilReceiver   = errors.New("nil streaming parser")
)

// Parser is the stateful chunked element extractor.
//
// Chunk windows are scanned in fragment mode, so the parser owns the
// structural checks itself: open element names are kept on a stack
// that survives buffer compaction, and an end tag that does not match
// the open element is fatal regardless of mode.
type Parser struct {
	buffer    []byte
	completed [][]byte
	filter    []byte
	accum     []byte
	names     [][]byte
	opts      xmltext.Options
	err       error

	cursor       int
	targetDepth  int
	captureStart int
	finalized    bool
}

// New creates a streaming parser. When filter is non-empty only
// elements with that exact tag name are captured; otherwise every
// top-level element is.
func New(filter string, opts ...xmltext.Options) *Parser {
	return &Parser{
		buffer:       make([]byte, 0, initialBufferSize),
		filter:       []byte(filter),
		opts:         xmltext.JoinOptions(opts...),
		captureStart: -1,
	}
}

// Err returns the latched error, if any.
func (p *Parser) Err() error {
	if p == nil {
		return errNilReceiver
	}
	return p.err
}

// Available reports the number of completed elements awaiting Take.
func (p *Parser) Available() int {
	if p == nil {
		return 0
	}
	return len(p.completed)
}

// BufferSize reports the residual buffer size in bytes.
func (p *Parser) BufferSize() int {
	if p == nil {
		return 0
	}
	return len(p.buffer) - p.cursor
}

// Feed appends a chunk and scans as far as the data allows. It returns
// the number of completed elements available and the residual buffer
// size. After a fatal error every subsequent Feed fails, but elements
// completed before the error remain retrievable via Take.
func (p *Parser) Feed(chunk []byte) (available, bufferSize int, err error) {
	if p == nil {
		return 0, 0, errNilReceiver
	}
	if p.err != nil {
		return len(p.completed), p.BufferSize(), errLatched
	}
	if p.finalized {
		return len(p.completed), p.BufferSize(), p.latch(errFinalized)
	}
	p.buffer = append(p.buffer, chunk...)

	rel := findSafeBoundary(p.buffer[p.cursor:])
	if rel > 0 {
		if err := p.process(p.cursor + rel); err != nil {
			return len(p.completed), p.BufferSize(), p.latch(err)
		}
	}
	p.compact()
	return len(p.completed), p.BufferSize(), nil
}

// process scans buffer[cursor:end] and advances the cursor to end.
func (p *Parser) process(end int) error {
	window := p.buffer[p.cursor:end]
	handler := &streamHandler{p: p, base: p.cursor}
	err := xmltext.Scan(window, handler, p.opts, xmltext.Fragment(true))
	if err != nil {
		return err
	}
	if p.captureStart >= 0 {
		// The open capture spans past this window; move its processed
		// prefix into the accumulator so the buffer can compact.
		p.accum = append(p.accum, p.buffer[p.captureStart:end]...)
		p.captureStart = end
	}
	p.cursor = end
	return nil
}

// compact discards the consumed prefix once more than half the buffer
// has been processed, rewriting the capture offset to match.
func (p *Parser) compact() {
	if p.cursor == 0 || p.cursor <= len(p.buffer)/2 {
		return
	}
	remaining := copy(p.buffer, p.buffer[p.cursor:])
	p.buffer = p.buffer[:remaining]
	if p.captureStart >= 0 {
		p.captureStart -= p.cursor
	}
	p.cursor = 0
}

// Take drains up to max completed elements in the order their end tags
// appeared in the input.
func (p *Parser) Take(max int) [][]byte {
	if p == nil || max <= 0 || len(p.completed) == 0 {
		return nil
	}
	if max > len(p.completed) {
		max = len(p.completed)
	}
	taken := make([][]byte, max)
	copy(taken, p.completed[:max])
	remaining := copy(p.completed, p.completed[max:])
	for i := remaining; i < len(p.completed); i++ {
		p.completed[i] = nil
	}
	p.completed = p.completed[:remaining]
	return taken
}

// Finalize flushes the residual buffer. Leftover partial markup is a
// fatal error in strict mode and ignored otherwise. It returns all
// remaining completed elements.
func (p *Parser) Finalize() ([][]byte, error) {
	if p == nil {
		return nil, errNilReceiver
	}
	if p.err != nil {
		return p.Take(len(p.completed)), p.err
	}
	if p.finalized {
		return p.Take(len(p.completed)), nil
	}
	p.finalized = true

	strict := p.isStrict()
	if p.cursor < len(p.buffer) {
		// Lenient scanning consumes partial markup without error, so
		// anything reported here is structural and fatal in both modes.
		if err := p.process(len(p.buffer)); err != nil {
			return p.Take(len(p.completed)), p.latch(err)
		}
	}
	if strict && p.captureStart >= 0 {
		return p.Take(len(p.completed)), p.latch(errLeftover)
	}
	if strict && len(p.names) != 0 {
		return p.Take(len(p.completed)), p.latch(errLeftover)
	}
	p.buffer = nil
	p.accum = nil
	p.names = nil
	return p.Take(len(p.completed)), nil
}

func (p *Parser) isStrict() bool {
	strict, _ := p.opts.Strict()
	return strict
}

func (p *Parser) latch(err error) error {
	if p.err == nil {
		p.err = err
	}
	return p.err
}

func (p *Parser) matchesFilter(name []byte) bool {
	if len(p.filter) == 0 {
		return true
	}
	return bytes.Equal(name, p.filter)
}

// complete copies one finished element out of the buffer, prepending
// any bytes accumulated from earlier chunks.
func (p *Parser) complete(start, end int) {
	out := make([]byte, 0, len(p.accum)+(end-start))
	out = append(out, p.accum...)
	out = append(out, p.buffer[start:end]...)
	p.completed = append(p.completed, out)
	p.accum = p.accum[:0]
}

// streamHandler adapts window-relative scanner events to the parser's
// absolute buffer offsets.
type streamHandler struct {
	p    *Parser
	base int
}

func (h *streamHandler) StartElement(name xmltext.Name, _ []xmltext.Attr, selfClosing bool, raw xmltext.Region) error {
	p := h.p
	nameBytes := name.Full.Bytes(p.buffer[h.base:])
	if selfClosing {
		if p.targetDepth == 0 && p.matchesFilter(nameBytes) {
			p.complete(h.base+raw.Start, h.base+raw.End)
		}
		return nil
	}
	// The name is copied: the buffer compacts between windows.
	p.names = append(p.names, bytes.Clone(nameBytes))
	if p.targetDepth == 0 && p.matchesFilter(nameBytes) {
		p.targetDepth = len(p.names)
		p.captureStart = h.base + raw.Start
		p.accum = p.accum[:0]
	}
	return nil
}

func (h *streamHandler) EndElement(name xmltext.Name, raw xmltext.Region) error {
	p := h.p
	// An end tag that does not match the open element is fatal in both
	// modes, exactly as in the non-fragment scanner.
	nameBytes := name.Full.Bytes(p.buffer[h.base:])
	if len(p.names) == 0 || !bytes.Equal(nameBytes, p.names[len(p.names)-1]) {
		return errMismatchedTag
	}
	if p.targetDepth > 0 && len(p.names) == p.targetDepth {
		p.complete(p.captureStart, h.base+raw.End)
		p.targetDepth = 0
		p.captureStart = -1
	}
	p.names = p.names[:len(p.names)-1]
	return nil
}

func (h *streamHandler) CharData(xmltext.Region, bool) error              { return nil }
func (h *streamHandler) CDATA(xmltext.Region) error                      { return nil }
func (h *streamHandler) Comment(xmltext.Region) error                    { return nil }
func (h *streamHandler) ProcessingInstruction(xmltext.Name, xmltext.Region) error { return nil }
func (h *streamHandler) XMLDecl([]xmltext.Attr) error                    { return nil }
func (h *streamHandler) DoctypeSeen(xmltext.Region) error                { return nil }
