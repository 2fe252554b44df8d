package xlxml

import (
	"io"
	"strconv"

	"github.com/adnsv/srw/xml"
)

// NewWriter returns the part writer configured the way every emitter uses it.
func NewWriter(out io.Writer) *xml.Writer {
	return xml.NewWriter(out, xml.WriterConfig{Indent: xml.Indent2Spaces})
}

// Bool formats an xs:boolean value.
func Bool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// Float formats a number in the shortest non-locale decimal form.
func Float(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
