package opc

import (
	"bytes"
	"slices"
	"strings"

	"github.com/adnsv/go-xlsx/xlxml"
	"golang.org/x/exp/maps"
)

// ContentTypes is the [Content_Types].xml manifest.
type ContentTypes struct {
	Defaults  map[string]string // extension to content type
	Overrides map[string]string // absolute part name to content type
}

// NewContentTypes returns a manifest with the defaults every package needs.
func NewContentTypes() *ContentTypes {
	return &ContentTypes{
		Defaults: map[string]string{
			"xml":  xlxml.TypeXML,
			"rels": xlxml.TypeRels,
		},
		Overrides: map[string]string{},
	}
}

type overrideRule struct {
	prefix string
	typ    string
}

// overrideRules maps part-name prefixes to content types; the first match
// wins.
var overrideRules = []overrideRule{
	{"/xl/workbook.xml", xlxml.TypeWorkbook},
	{"/xl/worksheets/sheet", xlxml.TypeWorksheet},
	{"/xl/styles.xml", xlxml.TypeStyles},
	{"/xl/sharedStrings.xml", xlxml.TypeSharedStrings},
	{"/xl/theme/theme", xlxml.TypeTheme},
	{"/xl/drawings/drawing", xlxml.TypeDrawing},
	{"/xl/charts/chart", xlxml.TypeChart},
	{"/xl/comments", xlxml.TypeComments},
	{"/xl/tables/table", xlxml.TypeTable},
	{"/xl/pivotTables/pivotTable", xlxml.TypePivotTable},
	{"/xl/pivotCache/pivotCacheDefinition", xlxml.TypePivotCache},
	{"/xl/pivotCache/pivotCacheRecords", xlxml.TypePivotRecords},
	{"/docProps/core.xml", xlxml.TypeCoreProps},
	{"/docProps/app.xml", xlxml.TypeExtProps},
	{"/docProps/custom.xml", xlxml.TypeCustomProps},
}

var defaultRules = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"emf":  "image/x-emf",
	"wmf":  "image/x-wmf",
	"vml":  xlxml.TypeVMLDrawing,
	"bin":  xlxml.TypePrinter,
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Lookup returns the content type recorded for a part.
func (ct *ContentTypes) Lookup(name string) string {
	name = Abs(name)
	if t, ok := ct.Overrides[name]; ok {
		return t
	}
	return ct.Defaults[Ext(name)]
}

// Assign records a content type for name. Known part families get an
// override through the dispatch table; other parts fall back to the backup
// list captured at load, then to an extension default.
func (ct *ContentTypes) Assign(name string, backup map[string]string) {
	name = Abs(name)
	if _, ok := ct.Overrides[name]; ok {
		return
	}
	ext := Ext(name)
	if ext == "rels" {
		return
	}
	for _, r := range overrideRules {
		if strings.HasPrefix(name, r.prefix) && ext == "xml" {
			ct.Overrides[name] = r.typ
			return
		}
	}
	if t, ok := backup[name]; ok {
		switch d, ok := ct.Defaults[ext]; {
		case !ok && ext != "":
			ct.Defaults[ext] = t
		case d != t:
			ct.Overrides[name] = t
		}
		return
	}
	if _, ok := ct.Defaults[ext]; ok {
		return
	}
	if t, ok := defaultRules[ext]; ok {
		ct.Defaults[ext] = t
	}
}

// ParseContentTypes decodes the manifest part.
func ParseContentTypes(name string, data []byte) (*ContentTypes, error) {
	ct := &ContentTypes{Defaults: map[string]string{}, Overrides: map[string]string{}}
	r := xlxml.NewReader(name, data)
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case xlxml.StartTag:
			switch ev.Name {
			case "Default":
				ct.Defaults[strings.ToLower(ev.Str("Extension"))] = ev.Str("ContentType")
			case "Override":
				ct.Overrides[Abs(ev.Str("PartName"))] = ev.Str("ContentType")
			}
		case xlxml.Eof:
			return ct, nil
		}
	}
}

// Bytes encodes the manifest with entries sorted by key.
func (ct *ContentTypes) Bytes() []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)

	x.XmlStandaloneDecl()
	x.OTag("Types")
	x.Attr("xmlns", xlxml.NsContentTypes)
	for _, ext := range sortedKeys(ct.Defaults) {
		x.OTag("+Default").Attr("Extension", ext).Attr("ContentType", ct.Defaults[ext]).CTag()
	}
	for _, part := range sortedKeys(ct.Overrides) {
		x.OTag("+Override").Attr("PartName", part).Attr("ContentType", ct.Overrides[part]).CTag()
	}
	x.CTag()
	return bb.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
