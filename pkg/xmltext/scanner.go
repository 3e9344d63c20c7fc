package xmltext

import "bytes"

// Pre-computed byte slices to avoid allocations in hot paths.
var (
	litXML      = []byte("xml")
	litPIEnd    = []byte("?>")
	litComEnd   = []byte("-->")
	litDDash    = []byte("--")
	litCDStart  = []byte("[CDATA[")
	litCDEnd    = []byte("]]>")
	litDoctype  = []byte("DOCTYPE")
	litVersion  = []byte("version")
	litEncoding = []byte("encoding")
	litStandal  = []byte("standalone")
	litYes      = []byte("yes")
	litNo       = []byte("no")
)

// Scanner walks an XML byte buffer and dispatches structural events.
// A Scanner is single-use; Scan is the entry point.
type Scanner struct {
	input []byte
	h     Handler
	stack []Region
	attrs []Attr
	opts  scanOptions
	pos   int

	rootSeen    bool
	doctypeSeen bool
	stopped     bool
}

// Scan tokenizes input and dispatches events to h in document order.
// The input must already be in canonical form (see Prepare).
func Scan(input []byte, h Handler, opts ...Options) error {
	s := Scanner{
		input: input,
		h:     h,
		opts:  resolveOptions(JoinOptions(opts...)),
	}
	return s.run()
}

func (s *Scanner) run() error {
	for s.pos < len(s.input) && !s.stopped {
		if s.input[s.pos] != '<' {
			if err := s.scanCharData(); err != nil {
				return err
			}
			continue
		}
		if s.pos+1 >= len(s.input) {
			if s.opts.strict {
				return s.fail(errUnexpectedEOF)
			}
			s.pos = len(s.input)
			break
		}
		var err error
		switch s.input[s.pos+1] {
		case '/':
			err = s.scanEndTag()
		case '?':
			err = s.scanPI()
		case '!':
			err = s.scanBang()
		default:
			err = s.scanStartTag()
		}
		if err != nil {
			return err
		}
	}

	if s.opts.fragment {
		return nil
	}
	if len(s.stack) > 0 {
		if s.opts.strict {
			return s.fail(errUnexpectedEOF)
		}
		// Lenient recovery: close whatever is still open so the
		// document stays a tree.
		end := Region{Start: len(s.input), End: len(s.input)}
		for len(s.stack) > 0 {
			top := s.stack[len(s.stack)-1]
			s.stack = s.stack[:len(s.stack)-1]
			if err := s.h.EndElement(s.splitName(top), end); err != nil {
				return err
			}
		}
	}
	if !s.rootSeen && s.opts.strict {
		return s.fail(errMissingRoot)
	}
	return nil
}

// scanCharData consumes the text run up to the next '<'.
func (s *Scanner) scanCharData() error {
	start := s.pos
	end := len(s.input)
	if idx := bytes.IndexByte(s.input[s.pos:], '<'); idx >= 0 {
		end = s.pos + idx
	}
	run := s.input[start:end]
	s.pos = end

	needs := bytes.IndexByte(run, '&') >= 0
	if s.opts.strict {
		if err := validateXMLChars(run); err != nil {
			return s.failAt(err, start)
		}
		if idx := bytes.Index(run, litCDEnd); idx >= 0 {
			return s.failAt(errCDEndInText, start+idx)
		}
		if needs {
			if err := validateEntities(run); err != nil {
				return s.failAt(err, start)
			}
		}
	}

	if len(s.stack) == 0 && !s.opts.fragment {
		if isWhitespaceBytes(run) {
			return nil
		}
		if s.opts.strict {
			return s.failAt(errContentOutsideRoot, start)
		}
		return nil
	}
	return s.h.CharData(Region{Start: start, End: end}, needs)
}

// readName consumes a Name at the cursor. The fast path accepts any
// non-ASCII byte; strict mode re-validates the full Unicode classes.
func (s *Scanner) readName() (Name, error) {
	start := s.pos
	if start >= len(s.input) {
		return Name{}, errUnexpectedEOF
	}
	b := s.input[start]
	if !isNameStartByte(b) && b < 0x80 {
		return Name{}, errInvalidName
	}
	i := start + 1
	for i < len(s.input) {
		b = s.input[i]
		if !isNameByte(b) && b < 0x80 {
			break
		}
		i++
	}
	s.pos = i
	full := Region{Start: start, End: i}
	if s.opts.strict {
		if err := ValidateName(full.Bytes(s.input)); err != nil {
			return Name{}, err
		}
	}
	return s.splitName(full), nil
}

// splitName splits a full-name region on its first colon.
func (s *Scanner) splitName(full Region) Name {
	name := Name{Full: full}
	data := full.Bytes(s.input)
	if idx := bytes.IndexByte(data, ':'); idx > 0 && idx < len(data)-1 {
		name.Prefix = Region{Start: full.Start, End: full.Start + idx}
		name.Local = Region{Start: full.Start + idx + 1, End: full.End}
	}
	return name
}

func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.input) && whitespaceLUT[s.input[s.pos]] {
		s.pos++
	}
}

// skipBadMarkup is the lenient recovery path: drop everything up to
// and including the next '>'.
func (s *Scanner) skipBadMarkup() {
	idx := bytes.IndexByte(s.input[s.pos:], '>')
	if idx < 0 {
		s.pos = len(s.input)
		s.stopped = true
		return
	}
	s.pos += idx + 1
}

func (s *Scanner) scanStartTag() error {
	start := s.pos
	s.pos++ // '<'
	name, err := s.readName()
	if err != nil {
		if s.opts.strict {
			return s.failAt(err, s.pos)
		}
		s.pos = start + 1
		s.skipBadMarkup()
		return nil
	}

	s.attrs = s.attrs[:0]
	selfClosing := false
	for {
		s.skipWhitespace()
		if s.pos >= len(s.input) {
			if s.opts.strict {
				return s.failAt(errUnclosedTag, start)
			}
			s.stopped = true
			return nil
		}
		b := s.input[s.pos]
		if b == '>' {
			s.pos++
			break
		}
		if b == '/' {
			if s.pos+1 < len(s.input) && s.input[s.pos+1] == '>' {
				s.pos += 2
				selfClosing = true
				break
			}
			if s.opts.strict {
				return s.fail(errMalformedMarkup)
			}
			s.pos++
			continue
		}
		if err := s.scanAttribute(); err != nil {
			return err
		}
		if s.stopped {
			return nil
		}
	}

	if len(s.stack) == 0 && !s.opts.fragment {
		if s.rootSeen && s.opts.strict {
			return s.failAt(errMultipleRoots, start)
		}
		s.rootSeen = true
	}
	if err := s.h.StartElement(name, s.attrs, selfClosing, Region{Start: start, End: s.pos}); err != nil {
		return err
	}
	if !selfClosing && !s.opts.fragment {
		if s.opts.maxDepth > 0 && len(s.stack)+1 > s.opts.maxDepth {
			return s.failAt(errDepthLimit, start)
		}
		s.stack = append(s.stack, name.Full)
	}
	return nil
}

// skipToAttrBoundary is the lenient recovery path inside a tag:
// drop bytes until the next attribute boundary or tag delimiter.
func (s *Scanner) skipToAttrBoundary() {
	for s.pos < len(s.input) {
		b := s.input[s.pos]
		if whitespaceLUT[b] || b == '>' || b == '/' {
			return
		}
		s.pos++
	}
	s.stopped = true
}

func (s *Scanner) scanAttribute() error {
	attrStart := s.pos
	name, err := s.readName()
	if err != nil {
		if s.opts.strict {
			return s.failAt(errInvalidAttribute, attrStart)
		}
		s.pos++
		s.skipToAttrBoundary()
		return nil
	}
	s.skipWhitespace()
	if s.pos >= len(s.input) || s.input[s.pos] != '=' {
		if s.opts.strict {
			return s.fail(errInvalidAttribute)
		}
		return nil
	}
	s.pos++
	s.skipWhitespace()
	if s.pos >= len(s.input) {
		if s.opts.strict {
			return s.fail(errUnclosedTag)
		}
		s.stopped = true
		return nil
	}
	quote := s.input[s.pos]
	if quote != '"' && quote != '\'' {
		if s.opts.strict {
			return s.fail(errInvalidAttribute)
		}
		s.skipToAttrBoundary()
		return nil
	}
	s.pos++
	valueStart := s.pos
	idx := bytes.IndexByte(s.input[s.pos:], quote)
	if idx < 0 {
		if s.opts.strict {
			return s.failAt(errUnclosedTag, attrStart)
		}
		s.pos = len(s.input)
		s.stopped = true
		return nil
	}
	valueEnd := s.pos + idx
	s.pos = valueEnd + 1
	value := s.input[valueStart:valueEnd]

	needs := bytes.IndexByte(value, '&') >= 0
	if s.opts.strict {
		if ltIdx := bytes.IndexByte(value, '<'); ltIdx >= 0 {
			return s.failAt(errLtInAttrValue, valueStart+ltIdx)
		}
		if err := validateXMLChars(value); err != nil {
			return s.failAt(err, valueStart)
		}
		if needs {
			if err := validateEntities(value); err != nil {
				return s.failAt(err, valueStart)
			}
		}
		nameBytes := name.Full.Bytes(s.input)
		for _, prev := range s.attrs {
			if bytes.Equal(prev.Name.Full.Bytes(s.input), nameBytes) {
				return s.failAt(errDuplicateAttr, attrStart)
			}
		}
	}
	s.attrs = append(s.attrs, Attr{
		Name:          name,
		Value:         Region{Start: valueStart, End: valueEnd},
		NeedsUnescape: needs,
	})
	return nil
}

func (s *Scanner) scanEndTag() error {
	start := s.pos
	s.pos += 2 // "</"
	name, err := s.readName()
	if err != nil {
		if s.opts.strict {
			return s.failAt(err, s.pos)
		}
		s.pos = start + 1
		s.skipBadMarkup()
		return nil
	}
	s.skipWhitespace()
	if s.pos >= len(s.input) || s.input[s.pos] != '>' {
		if s.opts.strict {
			return s.failAt(errUnclosedTag, start)
		}
		s.skipBadMarkup()
	} else {
		s.pos++
	}

	raw := Region{Start: start, End: s.pos}
	if s.opts.fragment {
		return s.h.EndElement(name, raw)
	}

	// A mismatched end tag is fatal in both modes.
	if len(s.stack) == 0 {
		return s.failAt(errMismatchedEndTag, start)
	}
	top := s.stack[len(s.stack)-1]
	if !bytes.Equal(name.Full.Bytes(s.input), top.Bytes(s.input)) {
		return s.failAt(errMismatchedEndTag, start)
	}
	s.stack = s.stack[:len(s.stack)-1]
	return s.h.EndElement(name, raw)
}

func (s *Scanner) scanBang() error {
	start := s.pos
	rest := s.input[s.pos+2:]
	switch {
	case bytes.HasPrefix(rest, litDDash):
		return s.scanComment(start)
	case bytes.HasPrefix(rest, litCDStart):
		return s.scanCDATA(start)
	case bytes.HasPrefix(rest, litDoctype):
		return s.scanDoctype(start)
	default:
		if s.opts.strict {
			return s.fail(errMalformedMarkup)
		}
		s.pos++
		s.skipBadMarkup()
		return nil
	}
}

func (s *Scanner) scanComment(start int) error {
	contentStart := start + 4 // "<!--"
	idx := bytes.Index(s.input[contentStart:], litComEnd)
	if idx < 0 {
		if s.opts.strict {
			return s.failAt(errUnexpectedEOF, start)
		}
		s.pos = len(s.input)
		s.stopped = true
		return nil
	}
	contentEnd := contentStart + idx
	s.pos = contentEnd + 3
	content := s.input[contentStart:contentEnd]

	if s.opts.strict {
		if bytes.Contains(content, litDDash) {
			return s.failAt(errInvalidComment, contentStart)
		}
		if len(content) > 0 && content[len(content)-1] == '-' {
			return s.failAt(errInvalidComment, contentEnd-1)
		}
		if err := validateXMLChars(content); err != nil {
			return s.failAt(err, contentStart)
		}
	}
	return s.h.Comment(Region{Start: contentStart, End: contentEnd})
}

func (s *Scanner) scanCDATA(start int) error {
	contentStart := start + 9 // "<![CDATA["
	if contentStart > len(s.input) {
		if s.opts.strict {
			return s.failAt(errUnexpectedEOF, start)
		}
		s.pos = len(s.input)
		s.stopped = true
		return nil
	}
	idx := bytes.Index(s.input[contentStart:], litCDEnd)
	if idx < 0 {
		if s.opts.strict {
			return s.failAt(errInvalidCData, start)
		}
		s.pos = len(s.input)
		s.stopped = true
		return nil
	}
	contentEnd := contentStart + idx
	s.pos = contentEnd + 3
	content := s.input[contentStart:contentEnd]

	if s.opts.strict {
		if err := validateXMLChars(content); err != nil {
			return s.failAt(err, contentStart)
		}
	}
	if len(s.stack) == 0 && !s.opts.fragment {
		if s.opts.strict {
			return s.failAt(errContentOutsideRoot, start)
		}
		return nil
	}
	return s.h.CDATA(Region{Start: contentStart, End: contentEnd})
}

// scanDoctype skips a DOCTYPE declaration without interpreting it.
// The internal subset is traversed with balanced brackets and quoted
// strings so a '>' inside it is not mistaken for the terminator.
func (s *Scanner) scanDoctype(start int) error {
	if s.opts.strict {
		if s.rootSeen {
			return s.failAt(errMisplacedDoctype, start)
		}
		if s.doctypeSeen {
			return s.failAt(errDuplicateDoctype, start)
		}
	}
	s.doctypeSeen = true
	s.pos = start + 2 + len(litDoctype)

	inSubset := false
	depth := 0
	var quote byte
	for s.pos < len(s.input) {
		b := s.input[s.pos]
		if quote != 0 {
			if b == quote {
				quote = 0
			}
			s.pos++
			continue
		}
		switch b {
		case '"', '\'':
			quote = b
			s.pos++
		case '[':
			inSubset = true
			s.pos++
		case ']':
			inSubset = false
			s.pos++
		case '<':
			if inSubset {
				depth++
			}
			s.pos++
		case '>':
			if inSubset && depth > 0 {
				depth--
				s.pos++
				continue
			}
			if !inSubset {
				s.pos++
				return s.h.DoctypeSeen(Region{Start: start, End: s.pos})
			}
			s.pos++
		default:
			s.pos++
		}
	}
	if s.opts.strict {
		return s.failAt(errInvalidDoctype, start)
	}
	s.stopped = true
	return nil
}

func (s *Scanner) scanPI() error {
	piStart := s.pos
	s.pos += 2 // "<?"
	target, err := s.readName()
	if err != nil {
		if s.opts.strict {
			return s.failAt(errInvalidPI, piStart)
		}
		s.pos = piStart + 1
		s.skipBadMarkup()
		return nil
	}
	targetBytes := target.Full.Bytes(s.input)
	isDecl := piStart == 0 && bytes.Equal(targetBytes, litXML)

	if s.opts.strict && !isDecl && bytes.EqualFold(targetBytes, litXML) {
		if bytes.Equal(targetBytes, litXML) {
			return s.failAt(errMisplacedXMLDecl, piStart)
		}
		return s.failAt(errReservedPITarget, piStart)
	}

	contentStart := s.pos
	idx := bytes.Index(s.input[s.pos:], litPIEnd)
	if idx < 0 {
		if s.opts.strict {
			return s.failAt(errInvalidPI, piStart)
		}
		s.pos = len(s.input)
		s.stopped = true
		return nil
	}
	contentEnd := contentStart + idx
	s.pos = contentEnd + 2
	content := s.input[contentStart:contentEnd]

	if s.opts.strict {
		if len(content) > 0 && !whitespaceLUT[content[0]] {
			return s.failAt(errInvalidPI, contentStart)
		}
		if err := validateXMLChars(content); err != nil {
			return s.failAt(err, contentStart)
		}
	}

	dataStart := contentStart
	for dataStart < contentEnd && whitespaceLUT[s.input[dataStart]] {
		dataStart++
	}
	data := Region{Start: dataStart, End: contentEnd}

	if isDecl {
		attrs, err := s.parseXMLDecl(data)
		if err != nil {
			if s.opts.strict {
				return err
			}
			attrs = nil
		}
		return s.h.XMLDecl(attrs)
	}
	return s.h.ProcessingInstruction(target, data)
}

// parseXMLDecl parses the pseudo-attributes of an XML declaration and
// validates their order and values in strict mode.
func (s *Scanner) parseXMLDecl(content Region) ([]Attr, error) {
	saved := s.pos
	defer func() { s.pos = saved }()

	var attrs []Attr
	s.pos = content.Start
	for s.pos < content.End {
		s.skipWhitespace()
		if s.pos >= content.End {
			break
		}
		name, err := s.readName()
		if err != nil || s.pos > content.End {
			return nil, s.failAt(errBadXMLDecl, content.Start)
		}
		s.skipWhitespace()
		if s.pos >= content.End || s.input[s.pos] != '=' {
			return nil, s.failAt(errBadXMLDecl, s.pos)
		}
		s.pos++
		s.skipWhitespace()
		if s.pos >= content.End {
			return nil, s.failAt(errBadXMLDecl, s.pos)
		}
		quote := s.input[s.pos]
		if quote != '"' && quote != '\'' {
			return nil, s.failAt(errBadXMLDecl, s.pos)
		}
		s.pos++
		valueStart := s.pos
		idx := bytes.IndexByte(s.input[s.pos:content.End], quote)
		if idx < 0 {
			return nil, s.failAt(errBadXMLDecl, valueStart)
		}
		valueEnd := s.pos + idx
		s.pos = valueEnd + 1
		attrs = append(attrs, Attr{
			Name:  name,
			Value: Region{Start: valueStart, End: valueEnd},
		})
	}

	if s.opts.strict {
		if len(attrs) == 0 || !bytes.Equal(attrs[0].Name.Full.Bytes(s.input), litVersion) {
			return nil, s.failAt(errBadXMLDecl, content.Start)
		}
		for _, attr := range attrs[1:] {
			nameBytes := attr.Name.Full.Bytes(s.input)
			switch {
			case bytes.Equal(nameBytes, litEncoding):
			case bytes.Equal(nameBytes, litStandal):
				value := attr.Value.Bytes(s.input)
				if !bytes.Equal(value, litYes) && !bytes.Equal(value, litNo) {
					return nil, s.failAt(errBadStandalone, attr.Value.Start)
				}
			default:
				return nil, s.failAt(errBadXMLDecl, attr.Name.Full.Start)
			}
		}
	}
	return attrs, nil
}

func (s *Scanner) fail(err error) error {
	return s.failAt(err, s.pos)
}

func (s *Scanner) failAt(err error, pos int) error {
	if pos > len(s.input) {
		pos = len(s.input)
	}
	prefix := s.input[:pos]
	line := 1 + bytes.Count(prefix, []byte{'\n'})
	column := pos - bytes.LastIndexByte(prefix, '\n')
	return &SyntaxError{
		Offset: int64(pos),
		Line:   line,
		Column: column,
		Code:   classify(err),
		Err:    err,
	}
}
