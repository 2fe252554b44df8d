package xl

import (
	"strings"

	"github.com/tiendc/go-deepcopy"
)

// TextRun is a span of text with an optional font.
type TextRun struct {
	Text string
	Font *Font // nil inherits the cell font
}

// RichText is text made of formatted runs.
type RichText struct {
	Runs []TextRun
}

// NewRichText returns rich text holding a single unformatted run.
func NewRichText(text string) *RichText {
	return &RichText{Runs: []TextRun{{Text: text}}}
}

// Add appends a run and returns the receiver for chaining.
func (rt *RichText) Add(text string, font *Font) *RichText {
	rt.Runs = append(rt.Runs, TextRun{Text: text, Font: font})
	return rt
}

// Clone returns a deep copy of the rich text, fonts included.
func (rt *RichText) Clone() *RichText {
	if rt == nil {
		return nil
	}
	var c RichText
	if err := deepcopy.Copy(&c, rt); err != nil {
		// runs of strings and font pointers always copy
		panic(err)
	}
	return &c
}

// Text concatenates the runs.
func (rt *RichText) Text() string {
	var sb strings.Builder
	for _, r := range rt.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// IsPlain reports rich text without any formatting.
func (rt *RichText) IsPlain() bool {
	for _, r := range rt.Runs {
		if r.Font != nil {
			return false
		}
	}
	return true
}

// key is the interning identity of the rich text.
func (rt *RichText) key() string {
	var sb strings.Builder
	for _, r := range rt.Runs {
		sb.WriteString("\x00r")
		if r.Font != nil {
			sb.WriteString(r.Font.key())
		}
		sb.WriteString("\x00t")
		sb.WriteString(r.Text)
	}
	return sb.String()
}
