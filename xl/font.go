package xl

import (
	"strconv"
	"strings"
)

// Font represents font formatting properties for cell content.
// These properties correspond to the OpenXML font element as defined in ECMA-376.
type Font struct {
	Name          string        // Font face ("" = use default of Calibri)
	Size          float64       // Font size in points (0 = use default of 11)
	Bold          bool          // Bold text
	Italic        bool          // Italic text
	Underline     UnderlineType // Underline style
	Strikethrough bool          // Strikethrough text
	Color         *Color        // Text color (nil = automatic)
	VertAlign     string        // "superscript" or "subscript"
	Family        int           // Font family (0 = unset)
	Charset       int           // Character set (0 = unset)
	Scheme        string        // "major", "minor" or ""
}

// UnderlineType represents the type of underline formatting.
type UnderlineType string

// Underline type constants as defined in ECMA-376 (ST_UnderlineValues).
const (
	UnderlineNone             UnderlineType = ""                 // No underline (default)
	UnderlineSingle           UnderlineType = "single"           // Single underline
	UnderlineDouble           UnderlineType = "double"           // Double underline
	UnderlineSingleAccounting UnderlineType = "singleAccounting" // Single accounting underline
	UnderlineDoubleAccounting UnderlineType = "doubleAccounting" // Double accounting underline
)

const (
	DefaultFontName = "Calibri"
	DefaultFontSize = 11.0
)

// IsDefault returns true if the font uses all default properties.
func (f *Font) IsDefault() bool {
	return f.key() == (&Font{}).key()
}

// Empty returns true if the font has no custom properties set.
// This is an alias for IsDefault for consistency with other Empty() methods.
func (f *Font) Empty() bool {
	return f.IsDefault()
}

func (f *Font) name() string {
	if f.Name == "" {
		return DefaultFontName
	}
	return f.Name
}

func (f *Font) size() float64 {
	if f.Size <= 0 {
		return DefaultFontSize
	}
	return f.Size
}

// key is the structural identity used for interning. Defaults are
// normalized so an unset size and an explicit 11 compare equal.
func (f *Font) key() string {
	var sb strings.Builder
	sb.WriteString(f.name())
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatFloat(f.size(), 'f', -1, 64))
	sb.WriteByte('|')
	if f.Bold {
		sb.WriteByte('b')
	}
	if f.Italic {
		sb.WriteByte('i')
	}
	if f.Strikethrough {
		sb.WriteByte('s')
	}
	sb.WriteByte('|')
	sb.WriteString(string(f.Underline))
	sb.WriteByte('|')
	sb.WriteString(f.Color.key())
	sb.WriteByte('|')
	sb.WriteString(f.VertAlign)
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(f.Family))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(f.Charset))
	sb.WriteByte('|')
	sb.WriteString(f.Scheme)
	return sb.String()
}
