package xlxml

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <sheetData><row r="1" ht="15.5"><c r="A1" t="s"><v>0</v></c></row></sheetData>
  <drawing r:id="rId3"/>
</worksheet>`

func TestReaderEvents(t *testing.T) {
	r := NewReader("/xl/worksheets/sheet1.xml", []byte(sample))
	var names []string
	var kinds []Kind
	for {
		ev, err := r.Next()
		require.NoError(t, err)
		if ev.Kind == Text {
			continue
		}
		kinds = append(kinds, ev.Kind)
		names = append(names, ev.Name)
		if ev.Kind == StartTag && ev.Name == "row" {
			assert.Equal(t, 1, ev.Int("r", 0))
			assert.Equal(t, 15.5, ev.Float("ht", 0))
			assert.False(t, ev.Bool("hidden", false))
		}
		if ev.Kind == StartTag && ev.Name == "drawing" {
			assert.Equal(t, "rId3", ev.RID("id"))
			assert.Equal(t, NsMain, ev.Space)
		}
		if ev.Kind == Eof {
			break
		}
	}
	assert.Equal(t, []string{"worksheet", "sheetData", "row", "c", "v", "v", "c", "row", "sheetData", "drawing", "drawing", "worksheet", ""}, names)
	assert.Equal(t, Eof, kinds[len(kinds)-1])
}

func TestReaderSkipAndText(t *testing.T) {
	r := NewReader("p", []byte(`<a><b><c>x</c></b><t>hello <i>ignored</i>world</t></a>`))
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", ev.Name)
	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", ev.Name)
	require.NoError(t, r.Skip())
	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "t", ev.Name)
	text, err := r.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestReaderMalformed(t *testing.T) {
	r := NewReader("/xl/styles.xml", []byte(`<styleSheet><fonts></styleSheet>`))
	var err error
	for err == nil {
		var ev Event
		ev, err = r.Next()
		if ev.Kind == Eof {
			break
		}
	}
	var pe *PartError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/xl/styles.xml", pe.Part)
	assert.Greater(t, pe.Offset, int64(0))
	assert.ErrorIs(t, err, ErrPartInvalid)
}

func TestWriterHelpers(t *testing.T) {
	assert.Equal(t, "1", Bool(true))
	assert.Equal(t, "0.25", Float(0.25))
	assert.Equal(t, "42", Float(42))

	var bb bytes.Buffer
	x := NewWriter(&bb)
	x.XmlStandaloneDecl()
	x.OTag("a").Attr("v", "1&2").CTag()
	assert.Contains(t, bb.String(), `v="1&amp;2"`)
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true", false))
	assert.True(t, ParseBool("1", false))
	assert.False(t, ParseBool("0", true))
	assert.True(t, ParseBool("maybe", true))
}

func TestReaderChildren(t *testing.T) {
	r := NewReader("/p.xml", []byte(`<root a="1"><x>one</x><y/><x>two</x></root>`))
	root, err := r.Root("root")
	require.NoError(t, err)
	assert.Equal(t, 1, root.Int("a", 0))

	var got []string
	err = r.Children("root", func(ev Event) error {
		if ev.Name != "x" {
			return r.Skip()
		}
		s, err := r.ReadText()
		got = append(got, s)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)

	_, err = NewReader("/p.xml", []byte(`<other/>`)).Root("root")
	assert.ErrorIs(t, err, ErrMalformed)

	r = NewReader("/p.xml", []byte(`<root><x>`))
	_, err = r.Root("root")
	require.NoError(t, err)
	err = r.Children("root", func(ev Event) error { return r.Skip() })
	assert.ErrorIs(t, err, ErrPartInvalid)
}
