package xl

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xlxml"
)

// PivotCache is the source description of one or more pivot tables. It is
// owned by the workbook.
type PivotCache struct {
	SourceSheet string
	SourceRef   ref.Range
	Fields      []*CacheField
	// RefreshOnLoad asks the application to rebuild the cache on open.
	RefreshOnLoad bool

	records []byte // pivotCacheRecords part as loaded
}

// CacheField is a source column of a pivot cache.
type CacheField struct {
	Name     string
	NumFmtID int
	// Items are the distinct values an axis field can be grouped by.
	Items []CacheItem
}

// CacheItem is one shared item. Type is s, n, b, d, e or m (missing).
type CacheItem struct {
	Type  string
	Value string
}

// PivotTable places a pivot report on a sheet.
type PivotTable struct {
	Name     string
	Cache    *PivotCache
	Location ref.Range
	// Offsets within Location, 0-based.
	FirstHeaderRow, FirstDataRow, FirstDataCol int

	RowFields  []int // indices into Cache.Fields
	ColFields  []int
	PageFields []int
	DataFields []*PivotDataField
	StyleName  string
}

// PivotDataField aggregates a cache field.
type PivotDataField struct {
	Name     string
	Field    int
	Subtotal string // sum (default), count, average, max, min ...
}

// AddPivotCache describes the range rng of sheet as a pivot source. The
// first row names the fields; text columns get their distinct values as
// items.
func (wb *Workbook) AddPivotCache(sheet, rng string) (*PivotCache, error) {
	sh := wb.Sheet(sheet)
	if sh == nil {
		return nil, errors.Errorf("no sheet named '%s'", sheet)
	}
	r, err := ref.ParseRange(rng)
	if err != nil {
		return nil, errors.Wrap(ErrBadReference, err.Error())
	}
	r = r.Normalize()
	if r.Rows() < 2 {
		return nil, errors.New("pivot source needs a header row and data")
	}
	pc := &PivotCache{SourceSheet: sh.Name, SourceRef: r, RefreshOnLoad: true}
	for col := r.Start.Col; col <= r.End.Col; col++ {
		f := &CacheField{Name: "Column" + strconv.Itoa(col-r.Start.Col+1)}
		if c := sh.LookupCell(col, r.Start.Row); c != nil && c.String() != "" {
			f.Name = c.String()
		}
		seen := map[string]bool{}
		numeric := true
		for row := r.Start.Row + 1; row <= r.End.Row; row++ {
			c := sh.LookupCell(col, row)
			if c == nil || c.Type() == CellTypeUnset {
				continue
			}
			if c.Type() == CellTypeNumber {
				continue
			}
			numeric = false
			if s := c.String(); !seen[s] {
				seen[s] = true
				f.Items = append(f.Items, CacheItem{Type: "s", Value: s})
			}
		}
		if numeric {
			f.Items = nil
		}
		pc.Fields = append(pc.Fields, f)
	}
	wb.PivotCaches = append(wb.PivotCaches, pc)
	return pc, nil
}

// Field returns the index of the named cache field or -1.
func (pc *PivotCache) Field(name string) int {
	for i, f := range pc.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// AddPivotTable places a pivot table with its top-left corner at cell.
func (s *Sheet) AddPivotTable(name string, cache *PivotCache, cell string) (*PivotTable, error) {
	a, err := ref.ParseAddress(cell)
	if err != nil {
		return nil, errors.Wrap(ErrBadReference, err.Error())
	}
	for _, pt := range s.PivotTables {
		if pt.Name == name {
			return nil, errors.Errorf("duplicate pivot table name '%s'", name)
		}
	}
	pt := &PivotTable{
		Name:           name,
		Cache:          cache,
		Location:       ref.NewRange(a.Col, a.Row, a.Col+1, a.Row+1),
		FirstHeaderRow: 1,
		FirstDataRow:   1,
		FirstDataCol:   1,
		StyleName:      "PivotStyleLight16",
	}
	s.PivotTables = append(s.PivotTables, pt)
	return pt, nil
}

// AddRowField groups rows by the named cache field.
func (pt *PivotTable) AddRowField(name string) error {
	i := pt.Cache.Field(name)
	if i < 0 {
		return errors.Errorf("no pivot field named '%s'", name)
	}
	pt.RowFields = append(pt.RowFields, i)
	return nil
}

// AddColField groups columns by the named cache field.
func (pt *PivotTable) AddColField(name string) error {
	i := pt.Cache.Field(name)
	if i < 0 {
		return errors.Errorf("no pivot field named '%s'", name)
	}
	pt.ColFields = append(pt.ColFields, i)
	return nil
}

// AddDataField aggregates the named cache field.
func (pt *PivotTable) AddDataField(name, subtotal string) error {
	i := pt.Cache.Field(name)
	if i < 0 {
		return errors.Errorf("no pivot field named '%s'", name)
	}
	if subtotal == "" {
		subtotal = "sum"
	}
	label := "Sum of " + name
	if subtotal != "sum" {
		label = subtotal + " of " + name
	}
	pt.DataFields = append(pt.DataFields, &PivotDataField{Name: label, Field: i, Subtotal: subtotal})
	return nil
}

func (pt *PivotTable) axis(field int) string {
	for _, f := range pt.RowFields {
		if f == field {
			return "axisRow"
		}
	}
	for _, f := range pt.ColFields {
		if f == field {
			return "axisCol"
		}
	}
	for _, f := range pt.PageFields {
		if f == field {
			return "axisPage"
		}
	}
	return ""
}

func (pt *PivotTable) isData(field int) bool {
	for _, d := range pt.DataFields {
		if d.Field == field {
			return true
		}
	}
	return false
}

// cacheParts are the part names and id chosen for a pivot cache before
// any pivot table is written.
type cacheParts struct {
	id         int
	definition string
	records    string
}

func (w *Writer) planPivotCaches(caches []*PivotCache) {
	w.caches = map[*PivotCache]cacheParts{}
	for i, pc := range caches {
		n := strconv.Itoa(i + 1)
		cp := cacheParts{
			id:         i + 1,
			definition: "/xl/pivotCache/pivotCacheDefinition" + n + ".xml",
		}
		if len(pc.records) > 0 {
			cp.records = "/xl/pivotCache/pivotCacheRecords" + n + ".xml"
		}
		w.caches[pc] = cp
	}
}

// writePivotCache emits the cache definition (and records) of pc.
func (w *Writer) writePivotCache(pc *PivotCache) {
	cp := w.caches[pc]
	rels := opc.NewRelationships(cp.definition)

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("pivotCacheDefinition")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("xmlns:r", xlxml.NsRelationships)
	if cp.records != "" {
		w.out.WritePart(cp.records, pc.records)
		x.Attr("r:id", rels.AddPart(xlxml.RelPivotRecords, cp.records))
	}
	if pc.RefreshOnLoad || cp.records == "" {
		x.Attr("refreshOnLoad", 1)
	}
	x.Attr("createdVersion", 6)
	x.Attr("refreshedVersion", 6)
	x.Attr("minRefreshableVersion", 3)
	x.Attr("recordCount", max(pc.SourceRef.Rows()-1, 0))

	x.OTag("+cacheSource").Attr("type", "worksheet")
	x.OTag("worksheetSource").Attr("ref", pc.SourceRef.Coordinate()).Attr("sheet", pc.SourceSheet).CTag()
	x.CTag()

	x.OTag("+cacheFields").Attr("count", len(pc.Fields))
	for _, f := range pc.Fields {
		x.OTag("+cacheField").Attr("name", f.Name).Attr("numFmtId", f.NumFmtID)
		x.OTag("sharedItems")
		if len(f.Items) == 0 {
			x.Attr("containsSemiMixedTypes", 0).Attr("containsString", 0).Attr("containsNumber", 1)
		} else {
			x.Attr("count", len(f.Items))
		}
		for _, it := range f.Items {
			switch it.Type {
			case "n":
				x.OTag("n")
			case "b":
				x.OTag("b")
			case "d":
				x.OTag("d")
			case "e":
				x.OTag("e")
			case "m":
				x.OTag("m").CTag()
				continue
			default:
				x.OTag("s")
			}
			x.Attr("v", it.Value).CTag()
		}
		x.CTag()
		x.CTag()
	}
	x.CTag()

	x.CTag()
	w.out.WritePart(cp.definition, bb.Bytes())
	w.out.SetRelationships(rels)
}

// writePivotTable emits a pivot table part and returns its name.
func (w *Writer) writePivotTable(pt *PivotTable) (string, error) {
	cp, ok := w.caches[pt.Cache]
	if !ok {
		return "", errors.Errorf("pivot table %s: cache is not registered with the workbook", pt.Name)
	}
	part := w.nextPart(&w.lastPivotTable, "/xl/pivotTables/pivotTable", ".xml")
	rels := opc.NewRelationships(part)
	rels.AddPart(xlxml.RelPivotCache, cp.definition)

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("pivotTableDefinition")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("name", pt.Name)
	x.Attr("cacheId", cp.id)
	x.Attr("dataCaption", "Values")
	x.Attr("updatedVersion", 6)
	x.Attr("minRefreshableVersion", 3)
	x.Attr("createdVersion", 6)
	x.Attr("useAutoFormatting", 1)
	x.Attr("itemPrintTitles", 1)
	x.Attr("indent", 0)
	x.Attr("outline", 1)
	x.Attr("outlineData", 1)

	x.OTag("+location").Attr("ref", pt.Location.Normalize().Coordinate()).
		Attr("firstHeaderRow", pt.FirstHeaderRow).
		Attr("firstDataRow", pt.FirstDataRow).
		Attr("firstDataCol", pt.FirstDataCol)
	if len(pt.PageFields) > 0 {
		x.Attr("rowPageCount", len(pt.PageFields)).Attr("colPageCount", 1)
	}
	x.CTag()

	fields := pt.Cache.Fields
	x.OTag("+pivotFields").Attr("count", len(fields))
	for i, f := range fields {
		x.OTag("+pivotField")
		axis := pt.axis(i)
		if axis != "" {
			x.Attr("axis", axis)
		}
		if pt.isData(i) {
			x.Attr("dataField", 1)
		}
		x.Attr("showAll", 0)
		if axis != "" && len(f.Items) > 0 {
			x.OTag("items").Attr("count", len(f.Items)+1)
			for j := range f.Items {
				x.OTag("item").Attr("x", j).CTag()
			}
			x.OTag("item").Attr("t", "default").CTag()
			x.CTag()
		}
		x.CTag()
	}
	x.CTag()

	writeFields := func(list []int, dataAxis bool) {
		n := len(list)
		if dataAxis {
			n++
		}
		x.Attr("count", n)
		for _, f := range list {
			x.OTag("field").Attr("x", f).CTag()
		}
		if dataAxis {
			x.OTag("field").Attr("x", -2).CTag()
		}
		x.CTag()
	}
	multiData := len(pt.DataFields) > 1
	if len(pt.RowFields) > 0 {
		x.OTag("+rowFields")
		writeFields(pt.RowFields, false)
	}
	if len(pt.ColFields) > 0 || multiData {
		x.OTag("+colFields")
		writeFields(pt.ColFields, multiData)
	}
	if len(pt.PageFields) > 0 {
		x.OTag("+pageFields").Attr("count", len(pt.PageFields))
		for _, f := range pt.PageFields {
			x.OTag("pageField").Attr("fld", f).Attr("hier", -1).CTag()
		}
		x.CTag()
	}
	if len(pt.DataFields) > 0 {
		x.OTag("+dataFields").Attr("count", len(pt.DataFields))
		for _, d := range pt.DataFields {
			x.OTag("dataField").Attr("name", d.Name).Attr("fld", d.Field)
			if d.Subtotal != "" && d.Subtotal != "sum" {
				x.Attr("subtotal", d.Subtotal)
			}
			x.Attr("baseField", 0).Attr("baseItem", 0).CTag()
		}
		x.CTag()
	}

	if pt.StyleName != "" {
		x.OTag("+pivotTableStyleInfo").Attr("name", pt.StyleName).
			Attr("showRowHeaders", 1).Attr("showColHeaders", 1).
			Attr("showRowStripes", 0).Attr("showColStripes", 0).
			Attr("showLastColumn", 1).CTag()
	}

	x.CTag()
	w.out.WritePart(part, bb.Bytes())
	w.out.SetRelationships(rels)
	return part, nil
}

// readPivotCache decodes a cache definition and keeps its records part.
func (ld *loader) readPivotCache(part string) (*PivotCache, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	rels, err := ld.pkg.Relationships(part)
	if err != nil {
		return nil, err
	}
	r := xlxml.NewReader(part, data)
	root, err := r.Root("pivotCacheDefinition")
	if err != nil {
		return nil, err
	}
	pc := &PivotCache{RefreshOnLoad: root.Bool("refreshOnLoad", false)}
	if rid := root.RID("id"); rid != "" {
		if rp, ok := rels.Resolve(rid); ok {
			if pc.records, err = ld.pkg.ReadPart(rp); err != nil {
				return nil, err
			}
			ld.own(rp)
		}
	}
	err = r.Children(root.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "cacheSource":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "worksheetSource" {
					pc.SourceSheet = ev.Str("sheet")
					if rng, err := ref.ParseRange(ev.Str("ref")); err == nil {
						pc.SourceRef = rng.Normalize()
					} else {
						ld.log.Warn("pivot cache source is not a range")
					}
				}
				return r.Skip()
			})
		case "cacheFields":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "cacheField" {
					return r.Skip()
				}
				f := &CacheField{Name: ev.Str("name"), NumFmtID: ev.Int("numFmtId", 0)}
				pc.Fields = append(pc.Fields, f)
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name != "sharedItems" {
						return r.Skip()
					}
					return r.Children(ev.Name, func(ev xlxml.Event) error {
						f.Items = append(f.Items, CacheItem{Type: ev.Name, Value: ev.Str("v")})
						return r.Skip()
					})
				})
			})
		}
		return r.Skip()
	})
	return pc, err
}

// readPivotTable decodes a pivot table part and binds it to its cache.
func (ld *loader) readPivotTable(part string) (*PivotTable, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	rels, err := ld.pkg.Relationships(part)
	if err != nil {
		return nil, err
	}
	r := xlxml.NewReader(part, data)
	root, err := r.Root("pivotTableDefinition")
	if err != nil {
		return nil, err
	}
	pt := &PivotTable{Name: root.Str("name")}
	for _, rel := range rels.ByType(xlxml.RelPivotCache) {
		pt.Cache = ld.cachesByPart[opc.ResolveTarget(part, rel.Target)]
	}
	if pt.Cache == nil {
		pt.Cache = ld.cachesByID[root.Int("cacheId", -1)]
	}
	if pt.Cache == nil {
		return nil, r.Errorf("%w: pivot table %s without cache", ErrPartInvalid, pt.Name)
	}
	field := 0
	err = r.Children(root.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "location":
			if rng, err := ref.ParseRange(ev.Str("ref")); err == nil {
				pt.Location = rng.Normalize()
			}
			pt.FirstHeaderRow = ev.Int("firstHeaderRow", 0)
			pt.FirstDataRow = ev.Int("firstDataRow", 0)
			pt.FirstDataCol = ev.Int("firstDataCol", 0)
		case "pivotFields":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "pivotField" && ev.Str("axis") == "axisPage" {
					pt.PageFields = append(pt.PageFields, field)
				}
				field++
				return r.Skip()
			})
		case "rowFields", "colFields":
			list := &pt.RowFields
			if ev.Name == "colFields" {
				list = &pt.ColFields
			}
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if x := ev.Int("x", -2); ev.Name == "field" && x >= 0 {
					*list = append(*list, x)
				}
				return r.Skip()
			})
		case "dataFields":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "dataField" {
					pt.DataFields = append(pt.DataFields, &PivotDataField{
						Name:     ev.Str("name"),
						Field:    ev.Int("fld", 0),
						Subtotal: ev.Str("subtotal"),
					})
				}
				return r.Skip()
			})
		case "pivotTableStyleInfo":
			pt.StyleName = ev.Str("name")
		}
		return r.Skip()
	})
	return pt, err
}
