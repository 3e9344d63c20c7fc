package xmlsax

import (
	"iter"

	"github.com/xmlkit/xmlkit/pkg/xmltext"
)

// collector implements xmltext.Handler and accumulates events.
type collector struct {
	input  []byte
	events []Event
}

// Parse scans input and returns its SAX event sequence in document
// order. Empty elements produce a StartElement immediately followed by
// an EndElement.
func Parse(input []byte, opts ...xmltext.Options) ([]Event, error) {
	joined := xmltext.JoinOptions(opts...)
	c := &collector{
		input:  input,
		events: make([]Event, 0, len(input)/40+4),
	}
	if err := xmltext.Scan(input, c, joined); err != nil {
		return c.events, err
	}
	return c.events, nil
}

// Events yields the SAX events of input lazily. Scanning still runs
// eagerly on first iteration; the iterator form exists for range-over
// consumers.
func Events(input []byte, opts ...xmltext.Options) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		events, err := Parse(input, opts...)
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
		if err != nil {
			yield(Event{}, err)
		}
	}
}

func (c *collector) decode(region xmltext.Region, needsUnescape bool) string {
	raw := region.Bytes(c.input)
	if !needsUnescape {
		return string(raw)
	}
	decoded, err := xmltext.Unescape(raw, false)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// StartElement implements xmltext.Handler.
func (c *collector) StartElement(name xmltext.Name, attrs []xmltext.Attr, selfClosing bool, _ xmltext.Region) error {
	ev := Event{
		Kind: EventStartElement,
		Name: string(name.Full.Bytes(c.input)),
	}
	if len(attrs) > 0 {
		ev.Attrs = make([]Attr, 0, len(attrs))
		for _, attr := range attrs {
			ev.Attrs = append(ev.Attrs, Attr{
				Name:  string(attr.Name.Full.Bytes(c.input)),
				Value: c.decode(attr.Value, attr.NeedsUnescape),
			})
		}
	}
	c.events = append(c.events, ev)
	if selfClosing {
		c.events = append(c.events, Event{Kind: EventEndElement, Name: ev.Name})
	}
	return nil
}

// EndElement implements xmltext.Handler.
func (c *collector) EndElement(name xmltext.Name, _ xmltext.Region) error {
	c.events = append(c.events, Event{
		Kind: EventEndElement,
		Name: string(name.Full.Bytes(c.input)),
	})
	return nil
}

// CharData implements xmltext.Handler.
func (c *collector) CharData(text xmltext.Region, needsUnescape bool) error {
	c.events = append(c.events, Event{
		Kind: EventCharacters,
		Text: c.decode(text, needsUnescape),
	})
	return nil
}

// CDATA implements xmltext.Handler.
func (c *collector) CDATA(text xmltext.Region) error {
	c.events = append(c.events, Event{
		Kind: EventCData,
		Text: string(text.Bytes(c.input)),
	})
	return nil
}

// Comment implements xmltext.Handler.
func (c *collector) Comment(text xmltext.Region) error {
	c.events = append(c.events, Event{
		Kind: EventComment,
		Text: string(text.Bytes(c.input)),
	})
	return nil
}

// ProcessingInstruction implements xmltext.Handler.
func (c *collector) ProcessingInstruction(target xmltext.Name, data xmltext.Region) error {
	c.events = append(c.events, Event{
		Kind: EventProcessingInstruction,
		Name: string(target.Full.Bytes(c.input)),
		Text: string(data.Bytes(c.input)),
	})
	return nil
}

// XMLDecl implements xmltext.Handler; the declaration is not an event.
func (c *collector) XMLDecl([]xmltext.Attr) error { return nil }

// DoctypeSeen implements xmltext.Handler; DOCTYPE is not an event.
func (c *collector) DoctypeSeen(xmltext.Region) error { return nil }
