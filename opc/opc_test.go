package opc

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnsv/go-xlsx/xlxml"
)

func TestRelsPath(t *testing.T) {
	assert.Equal(t, "/_rels/.rels", RelsPath(""))
	assert.Equal(t, "/xl/_rels/workbook.xml.rels", RelsPath("/xl/workbook.xml"))
	assert.Equal(t, "/xl/worksheets/_rels/sheet1.xml.rels", RelsPath("xl/worksheets/sheet1.xml"))

	src, ok := RelsSource("/xl/worksheets/_rels/sheet1.xml.rels")
	assert.True(t, ok)
	assert.Equal(t, "/xl/worksheets/sheet1.xml", src)
	src, ok = RelsSource("/_rels/.rels")
	assert.True(t, ok)
	assert.Equal(t, "/", src)
	_, ok = RelsSource("/xl/workbook.xml")
	assert.False(t, ok)
}

func TestTargets(t *testing.T) {
	assert.Equal(t, "/xl/worksheets/sheet1.xml", ResolveTarget("/xl/workbook.xml", "worksheets/sheet1.xml"))
	assert.Equal(t, "/xl/media/image1.png", ResolveTarget("/xl/drawings/drawing1.xml", "../media/image1.png"))
	assert.Equal(t, "/xl/workbook.xml", ResolveTarget("", "xl/workbook.xml"))
	assert.Equal(t, "/xl/styles.xml", ResolveTarget("/xl/workbook.xml", "/xl/styles.xml"))

	assert.Equal(t, "worksheets/sheet1.xml", RelativeTarget("/xl/workbook.xml", "/xl/worksheets/sheet1.xml"))
	assert.Equal(t, "../media/image1.png", RelativeTarget("/xl/drawings/drawing1.xml", "/xl/media/image1.png"))
	assert.Equal(t, "xl/workbook.xml", RelativeTarget("", "/xl/workbook.xml"))
	assert.Equal(t, "../../docProps/core.xml", RelativeTarget("/xl/worksheets/sheet1.xml", "/docProps/core.xml"))
}

func TestRelationshipsRoundTrip(t *testing.T) {
	rs := NewRelationships("/xl/worksheets/sheet1.xml")
	id1 := rs.AddPart(xlxml.RelDrawing, "/xl/drawings/drawing1.xml")
	id2 := rs.AddExternal(xlxml.RelHyperlink, "https://example.com/?a=1&b=2")
	assert.Equal(t, "rId1", id1)
	assert.Equal(t, "rId2", id2)

	back, err := ParseRelationships(rs.Source, RelsPath(rs.Source), rs.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, rs.All(), back.All())

	part, ok := back.Resolve("rId1")
	assert.True(t, ok)
	assert.Equal(t, "/xl/drawings/drawing1.xml", part)
	_, ok = back.Resolve("rId2")
	assert.False(t, ok)
}

func TestContentTypesAssign(t *testing.T) {
	ct := NewContentTypes()
	backup := map[string]string{"/xl/custom/thing.xml": "application/x-thing+xml"}
	ct.Assign("/xl/worksheets/sheet3.xml", backup)
	ct.Assign("/xl/media/image1.png", backup)
	ct.Assign("/xl/custom/thing.xml", backup)
	ct.Assign("/xl/_rels/workbook.xml.rels", backup)

	assert.Equal(t, xlxml.TypeWorksheet, ct.Lookup("/xl/worksheets/sheet3.xml"))
	assert.Equal(t, "image/png", ct.Lookup("/xl/media/image1.png"))
	assert.Equal(t, "application/x-thing+xml", ct.Lookup("/xl/custom/thing.xml"))
	assert.Equal(t, xlxml.TypeRels, ct.Lookup("/xl/_rels/workbook.xml.rels"))

	back, err := ParseContentTypes(ContentTypesPart, ct.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ct.Defaults, back.Defaults)
	assert.Equal(t, ct.Overrides, back.Overrides)
}

func TestPackageZipRoundTrip(t *testing.T) {
	p := New()
	p.WritePart("xl/workbook.xml", []byte("<workbook/>"))
	p.WritePart("/xl/media/image1.png", []byte{0x89, 'P', 'N', 'G'})
	rs := NewRelationships("")
	rs.AddPart(xlxml.RelOfficeDocument, "/xl/workbook.xml")
	p.SetRelationships(rs)

	var buf bytes.Buffer
	zs := NewZipStorage(&buf, flate.BestSpeed)
	require.NoError(t, p.Finalize(zs, nil))
	require.NoError(t, zs.Close())

	back, err := OpenBytes(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, back.Has("/xl/workbook.xml"))
	assert.False(t, back.Has(ContentTypesPart))
	assert.Equal(t, xlxml.TypeWorkbook, back.Types.Lookup("/xl/workbook.xml"))

	data, err := back.ReadPart("/xl/media/image1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	_, err = back.ReadPart("/xl/missing.xml")
	assert.ErrorIs(t, err, ErrPartMissing)

	rels, err := back.Relationships("")
	require.NoError(t, err)
	target, ok := rels.Resolve("rId1")
	assert.True(t, ok)
	assert.Equal(t, "/xl/workbook.xml", target)
}

func TestMalformedPart(t *testing.T) {
	_, err := ParseRelationships("", "/_rels/.rels", []byte("<Relationships><Relationship></Relationships>"))
	var pe *xlxml.PartError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "/_rels/.rels", pe.Part)
	assert.ErrorIs(t, err, xlxml.ErrPartInvalid)
	assert.ErrorIs(t, err, xlxml.ErrMalformed)
}

func TestDirStorage(t *testing.T) {
	dir := t.TempDir()
	ds := NewDirStorage(dir)
	require.NoError(t, ds.WriteBlob("/xl/worksheets/sheet1.xml", []byte("<worksheet/>")))
	assert.FileExists(t, dir+"/xl/worksheets/sheet1.xml")
}
