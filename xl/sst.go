package xl

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/adnsv/srw/xml"

	"github.com/adnsv/go-xlsx/xlxml"
)

// sharedStrings is the string table built while sheets are written. Items
// are deduplicated by content.
type sharedStrings struct {
	items []Value // String or Rich
	index map[string]int
	refs  int
}

func newSharedStrings() *sharedStrings {
	return &sharedStrings{index: map[string]int{}}
}

func sstKey(v Value) string {
	if r, ok := v.(Rich); ok {
		return "r" + r.key()
	}
	return "s" + v.Text()
}

// intern returns the index of v, appending it when new.
func (t *sharedStrings) intern(v Value) int {
	t.refs++
	k := sstKey(v)
	if i, ok := t.index[k]; ok {
		return i
	}
	i := len(t.items)
	t.items = append(t.items, v)
	t.index[k] = i
	return i
}

func (t *sharedStrings) Len() int { return len(t.items) }

// Bytes emits sharedStrings.xml.
func (t *sharedStrings) Bytes() []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("sst")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("count", t.refs)
	x.Attr("uniqueCount", len(t.items))

	for _, v := range t.items {
		x.OTag("+si")
		if r, ok := v.(Rich); ok {
			writeRuns(x, r.RichText)
		} else {
			writeText(x, v.Text())
		}
		x.CTag()
	}

	x.CTag()
	return bb.Bytes()
}

// writeText emits a <t> element, preserving significant whitespace.
func writeText(x *xml.Writer, s string) {
	x.OTag("t")
	if needsPreserve(s) {
		x.Attr("xml:space", "preserve")
	}
	x.String(escapeControl(s))
	x.CTag()
}

// writeRuns emits the <r> runs of rich text.
func writeRuns(x *xml.Writer, rt *RichText) {
	for _, run := range rt.Runs {
		x.OTag("r")
		if run.Font != nil {
			x.OTag("rPr")
			writeFont(x, run.Font, true, false)
			x.CTag()
		}
		writeText(x, run.Text)
		x.CTag()
	}
}

func needsPreserve(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == ' ' || last == ' ' || first == '\t' || last == '\t' ||
		strings.ContainsAny(s, "\n\r")
}

// escapeControl encodes the characters XML 1.0 cannot carry as _xHHHH_.
// A literal "_x" that would read back as an escape is protected too.
func escapeControl(s string) string {
	need := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 0x20 && c != '\t' && c != '\n' && c != '\r') || (c == '_' && isEscapeAt(s, i)) {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c < 0x20 && c != '\t' && c != '\n' && c != '\r':
			fmt.Fprintf(&sb, "_x%04X_", c)
		case c == '_' && isEscapeAt(s, i):
			sb.WriteString("_x005F_")
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// unescapeControl decodes _xHHHH_ sequences.
func unescapeControl(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && isEscapeAt(s, i) {
			n, _ := strconv.ParseUint(s[i+2:i+6], 16, 16)
			sb.WriteRune(rune(n))
			i += 6
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func isEscapeAt(s string, i int) bool {
	if i+7 > len(s) || s[i+1] != 'x' || s[i+6] != '_' {
		return false
	}
	for _, c := range []byte(s[i+2 : i+6]) {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// parseSharedStrings decodes the string table. Items without formatting
// become String values.
func parseSharedStrings(name string, data []byte) ([]Value, error) {
	r := xlxml.NewReader(name, data)
	if _, err := r.Root("sst"); err != nil {
		return nil, err
	}
	var items []Value
	err := r.Children("sst", func(ev xlxml.Event) error {
		if ev.Name != "si" {
			return r.Skip()
		}
		v, err := parseStringItem(r, ev)
		items = append(items, v)
		return err
	})
	return items, err
}

// parseStringItem reads an si or is element: a plain <t> or a list of
// runs. Phonetic runs are dropped.
func parseStringItem(r *xlxml.Reader, start xlxml.Event) (Value, error) {
	var plain strings.Builder
	var rt *RichText
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "t":
			s, err := r.ReadText()
			plain.WriteString(unescapeControl(s))
			return err
		case "r":
			if rt == nil {
				rt = &RichText{}
			}
			var run TextRun
			err := r.Children(ev.Name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "rPr":
					f, err := parseFont(r, ev)
					run.Font = f
					return err
				case "t":
					s, err := r.ReadText()
					run.Text += unescapeControl(s)
					return err
				}
				return r.Skip()
			})
			rt.Runs = append(rt.Runs, run)
			return err
		}
		return r.Skip()
	})
	if err != nil {
		return nil, err
	}
	if rt != nil {
		if plain.Len() > 0 {
			rt.Runs = append([]TextRun{{Text: plain.String()}}, rt.Runs...)
		}
		return Rich{rt}, nil
	}
	return String(plain.String()), nil
}
