package xmltext

// Region marks a half-open byte range [Start, End) in the scanned input.
type Region struct {
	Start int
	End   int
}

// Len reports the region length in bytes.
func (r Region) Len() int {
	return r.End - r.Start
}

// IsZero reports whether the region is the zero region.
func (r Region) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Bytes returns the region's bytes from the scanned input.
func (r Region) Bytes(input []byte) []byte {
	if r.Start < 0 || r.End < r.Start || r.End > len(input) {
		return nil
	}
	return input[r.Start:r.End]
}

// Name is a possibly-prefixed XML name.
// Prefix and Local are only meaningful when HasPrefix reports true;
// Full always covers the complete name.
type Name struct {
	Full   Region
	Prefix Region
	Local  Region
}

// HasPrefix reports whether the name carries a namespace prefix.
func (n Name) HasPrefix() bool {
	return n.Prefix.End > n.Prefix.Start
}

// LocalRegion returns the local part, which is the full name when no
// prefix is present.
func (n Name) LocalRegion() Region {
	if n.HasPrefix() {
		return n.Local
	}
	return n.Full
}

// Attr is a single parsed attribute.
type Attr struct {
	Name          Name
	Value         Region
	NeedsUnescape bool
}

// Handler receives structural events from Scan in document order.
// Returning a non-nil error aborts the scan and propagates the error.
// The raw region of a tag event covers the whole construct, from its
// '<' through its closing '>'.
type Handler interface {
	StartElement(name Name, attrs []Attr, selfClosing bool, raw Region) error
	EndElement(name Name, raw Region) error
	CharData(text Region, needsUnescape bool) error
	CDATA(text Region) error
	Comment(text Region) error
	ProcessingInstruction(target Name, data Region) error
	XMLDecl(attrs []Attr) error
	DoctypeSeen(decl Region) error
}

// NopHandler implements Handler with no-op methods.
// Embed it to implement only the events a consumer cares about.
type NopHandler struct{}

func (NopHandler) StartElement(Name, []Attr, bool, Region) error { return nil }
func (NopHandler) EndElement(Name, Region) error                 { return nil }
func (NopHandler) CharData(Region, bool) error                   { return nil }
func (NopHandler) CDATA(Region) error                            { return nil }
func (NopHandler) Comment(Region) error                          { return nil }
func (NopHandler) ProcessingInstruction(Name, Region) error      { return nil }
func (NopHandler) XMLDecl([]Attr) error                          { return nil }
func (NopHandler) DoctypeSeen(Region) error                      { return nil }
