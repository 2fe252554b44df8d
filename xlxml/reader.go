package xlxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind enumerates the events produced by Reader.
type Kind int

const (
	StartTag Kind = iota
	EndTag
	Text
	Eof
)

func (k Kind) String() string {
	switch k {
	case StartTag:
		return "StartTag"
	case EndTag:
		return "EndTag"
	case Text:
		return "Text"
	case Eof:
		return "Eof"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Attr is a namespace-resolved attribute.
type Attr struct {
	Space string
	Local string
	Value string
}

// Event is one step of the pull loop. An empty element is reported as a
// StartTag immediately followed by its EndTag.
type Event struct {
	Kind  Kind
	Space string
	Name  string
	Attrs []Attr
	Text  string
}

// Attr returns the value of the unqualified attribute local.
func (e *Event) Attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Local == local && (a.Space == "" || a.Space == NsMain) {
			return a.Value, true
		}
	}
	return "", false
}

// AttrNS returns the value of the attribute local bound to namespace space.
func (e *Event) AttrNS(space, local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Local == local && a.Space == space {
			return a.Value, true
		}
	}
	return "", false
}

// Str returns an attribute value or the empty string.
func (e *Event) Str(local string) string {
	v, _ := e.Attr(local)
	return v
}

// RID returns the r:id style attribute named local.
func (e *Event) RID(local string) string {
	v, _ := e.AttrNS(NsRelationships, local)
	return v
}

// Int returns an integer attribute or def when absent or unparsable.
func (e *Event) Int(local string, def int) int {
	v, ok := e.Attr(local)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		if f, ferr := strconv.ParseFloat(v, 64); ferr == nil {
			return int(f)
		}
		return def
	}
	return n
}

// Int64 returns a 64-bit integer attribute or def.
func (e *Event) Int64(local string, def int64) int64 {
	v, ok := e.Attr(local)
	if !ok {
		return def
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return def
	}
	return n
}

// Float returns a float attribute or def.
func (e *Event) Float(local string, def float64) float64 {
	v, ok := e.Attr(local)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// Bool accepts both xs:boolean spellings ("1"/"0" and "true"/"false").
func (e *Event) Bool(local string, def bool) bool {
	v, ok := e.Attr(local)
	if !ok {
		return def
	}
	return ParseBool(v, def)
}

// ParseBool decodes an xs:boolean lexical value.
func ParseBool(v string, def bool) bool {
	switch strings.TrimSpace(v) {
	case "1", "true", "on", "t":
		return true
	case "0", "false", "off", "f":
		return false
	}
	return def
}

// Reader turns a part into a stream of events.
type Reader struct {
	part string
	d    *xml.Decoder
	eof  bool
}

// NewReader starts a pull loop over the bytes of the named part.
func NewReader(part string, data []byte) *Reader {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = true
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		// every SpreadsheetML part is UTF-8 or UTF-8 compatible
		return input, nil
	}
	return &Reader{part: part, d: d}
}

// Part returns the name of the part being read.
func (r *Reader) Part() string { return r.part }

// Offset is the byte position of the decoder.
func (r *Reader) Offset() int64 { return r.d.InputOffset() }

// Next returns the following event. Comments, processing instructions and
// directives are skipped.
func (r *Reader) Next() (Event, error) {
	if r.eof {
		return Event{Kind: Eof}, nil
	}
	for {
		tok, err := r.d.Token()
		if err == io.EOF {
			r.eof = true
			return Event{Kind: Eof}, nil
		}
		if err != nil {
			return Event{}, r.Errorf("%w: %v", ErrMalformed, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ev := Event{Kind: StartTag, Space: t.Name.Space, Name: t.Name.Local}
			if len(t.Attr) > 0 {
				ev.Attrs = make([]Attr, 0, len(t.Attr))
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
						continue
					}
					ev.Attrs = append(ev.Attrs, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
				}
			}
			return ev, nil
		case xml.EndElement:
			return Event{Kind: EndTag, Space: t.Name.Space, Name: t.Name.Local}, nil
		case xml.CharData:
			return Event{Kind: Text, Text: string(t)}, nil
		}
	}
}

// Skip consumes events up to and including the end tag that matches the
// start tag just returned by Next.
func (r *Reader) Skip() error {
	depth := 1
	for depth > 0 {
		ev, err := r.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case StartTag:
			depth++
		case EndTag:
			depth--
		case Eof:
			return r.UnexpectedEOF("")
		}
	}
	return nil
}

// ReadText collects the character data of the current element and consumes
// its end tag. Child elements are skipped.
func (r *Reader) ReadText() (string, error) {
	var sb strings.Builder
	for {
		ev, err := r.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case Text:
			sb.WriteString(ev.Text)
		case StartTag:
			if err := r.Skip(); err != nil {
				return "", err
			}
		case EndTag:
			return sb.String(), nil
		case Eof:
			return "", r.UnexpectedEOF("")
		}
	}
}

// Errorf builds a PartError at the current offset.
func (r *Reader) Errorf(format string, args ...any) error {
	return &PartError{Part: r.part, Offset: r.d.InputOffset(), Err: fmt.Errorf(format, args...)}
}

// UnexpectedEOF reports a part that ended before the end tag of name.
func (r *Reader) UnexpectedEOF(name string) error {
	if name == "" {
		return r.Errorf("%w: unexpected end of part", ErrMalformed)
	}
	return r.Errorf("%w: unexpected end of part inside <%s>", ErrMalformed, name)
}

// Root returns the start tag of the document element. When name is not
// empty the element must carry that local name.
func (r *Reader) Root(name string) (Event, error) {
	for {
		ev, err := r.Next()
		if err != nil {
			return ev, err
		}
		switch ev.Kind {
		case StartTag:
			if name != "" && ev.Name != name {
				return ev, r.Errorf("%w: root element <%s>, want <%s>", ErrMalformed, ev.Name, name)
			}
			return ev, nil
		case Eof:
			return ev, r.Errorf("%w: no root element", ErrMalformed)
		}
	}
}

// Children hands every child start tag of the current element to fn and
// returns after consuming the matching end tag. fn must consume the child
// it is given, by recursing into it or by calling Skip or ReadText.
func (r *Reader) Children(name string, fn func(ev Event) error) error {
	for {
		ev, err := r.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case StartTag:
			if err := fn(ev); err != nil {
				return err
			}
		case EndTag:
			return nil
		case Eof:
			return r.UnexpectedEOF(name)
		}
	}
}
