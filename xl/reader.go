package xl

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// loader decodes one package into a Workbook. Every part a codec reads is
// marked consumed; whatever is left over is retained verbatim.
type loader struct {
	pkg *opc.Package
	wb  *Workbook
	log *zap.Logger

	consumed map[string]bool
	styles   *styleTable
	sst      []Value

	images       map[string]*PictureInfo
	cachesByPart map[string]*PivotCache
	cachesByID   map[int]*PivotCache
}

// own marks a part as decoded. Its relationship part is regenerated on
// write and is not retained either.
func (ld *loader) own(part string) {
	ld.consumed[opc.Abs(part)] = true
}

// workbookRelTypes are decoded by the loader; other workbook
// relationships are retained.
var workbookRelTypes = map[string]bool{
	xlxml.RelWorksheet:     true,
	xlxml.RelStyles:        true,
	xlxml.RelSharedStrings: true,
	xlxml.RelTheme:         true,
	xlxml.RelPivotCache:    true,
	xlxml.RelVBAProject:    true,
	xlxml.RelCalcChain:     true,
	xlxml.RelSheetMetadata: true,
	xlxml.RelRichValueRel:  true,
	xlxml.RelRichStructure: true,
	xlxml.RelRichValue:     true,
	xlxml.RelRichTypes:     true,
}

// Read decodes a workbook from an open package.
func Read(pkg *opc.Package, opts Options) (*Workbook, error) {
	ld := &loader{
		pkg:          pkg,
		wb:           NewWorkbook(),
		log:          opts.logger(),
		consumed:     map[string]bool{},
		images:       map[string]*PictureInfo{},
		cachesByPart: map[string]*PivotCache{},
		cachesByID:   map[int]*PivotCache{},
	}
	ld.wb.cellMedia = map[int]*PictureInfo{}
	if err := ld.read(); err != nil {
		return nil, err
	}
	ld.retain()
	ld.wb.cellMedia = nil
	ld.wb.BackupContentTypes = pkg.ContentTypeMap()
	return ld.wb, nil
}

func (ld *loader) read() error {
	ld.own("/")
	pkgRels, err := ld.pkg.Relationships("/")
	if err != nil {
		return err
	}
	book := ""
	for _, rel := range pkgRels.All() {
		part := opc.ResolveTarget("/", rel.Target)
		switch rel.Type {
		case xlxml.RelOfficeDocument:
			if book == "" {
				book = part
			}
		case xlxml.RelCoreProps:
			err = ld.readProps(part, parseCoreProps)
		case xlxml.RelExtProps:
			err = ld.readProps(part, parseAppProps)
		case xlxml.RelCustomProps:
			err = ld.readProps(part, parseCustomProps)
		default:
			ld.wb.pkgRels = append(ld.wb.pkgRels, retainRel(rel, "/"))
		}
		if err != nil {
			return err
		}
	}
	if book == "" {
		return errors.Wrap(ErrPartMissing, "no workbook relationship")
	}
	return ld.readWorkbook(book)
}

func (ld *loader) readProps(part string, parse func(string, []byte, *Properties) error) error {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		ld.log.Warn("properties part missing", zap.String("part", part))
		return nil
	}
	ld.own(part)
	return parse(part, data, &ld.wb.Properties)
}

// sheetEntry is one <sheet> of the workbook part.
type sheetEntry struct {
	name  string
	state SheetState
	rid   string
}

type cacheEntry struct {
	id  int
	rid string
}

type nameEntry struct {
	dn    *DefinedName
	local int
}

func (ld *loader) readWorkbook(book string) error {
	data, err := ld.pkg.ReadPart(book)
	if err != nil {
		return err
	}
	ld.own(book)
	bookRels, err := ld.pkg.Relationships(book)
	if err != nil {
		return err
	}

	for _, rel := range bookRels.ByType(xlxml.RelStyles) {
		part := opc.ResolveTarget(book, rel.Target)
		sd, err := ld.pkg.ReadPart(part)
		if err != nil {
			return err
		}
		ld.own(part)
		if ld.styles, err = parseStyles(part, sd); err != nil {
			return err
		}
		if len(ld.styles.named) > 0 {
			ld.wb.NamedStyles = ld.styles.named
		}
	}
	for _, rel := range bookRels.ByType(xlxml.RelSharedStrings) {
		part := opc.ResolveTarget(book, rel.Target)
		sd, err := ld.pkg.ReadPart(part)
		if err != nil {
			return err
		}
		ld.own(part)
		if ld.sst, err = parseSharedStrings(part, sd); err != nil {
			return err
		}
	}
	for _, rel := range bookRels.ByType(xlxml.RelTheme) {
		part := opc.ResolveTarget(book, rel.Target)
		if ld.wb.Theme, err = ld.pkg.ReadPart(part); err != nil {
			return err
		}
		ld.own(part)
	}
	for _, rel := range bookRels.ByType(xlxml.RelVBAProject) {
		part := opc.ResolveTarget(book, rel.Target)
		if ld.wb.VBAProject, err = ld.pkg.ReadPart(part); err != nil {
			return err
		}
		ld.own(part)
	}
	for _, rel := range bookRels.ByType(xlxml.RelCalcChain) {
		// recalculated by the application; dropped
		ld.own(opc.ResolveTarget(book, rel.Target))
	}
	if err := ld.readRichData(bookRels); err != nil {
		return err
	}

	var sheets []sheetEntry
	var names []nameEntry
	var caches []cacheEntry

	wb := ld.wb
	r := xlxml.NewReader(book, data)
	if _, err := r.Root("workbook"); err != nil {
		return err
	}
	err = r.Children("workbook", func(ev xlxml.Event) error {
		switch ev.Name {
		case "fileVersion":
			wb.AppName = ev.Str("appName")
		case "workbookPr":
			wb.Date1904 = ev.Bool("date1904", false)
		case "workbookProtection":
			wb.Protection = &WorkbookProtection{
				PasswordHash:  ev.Str("workbookPassword"),
				LockStructure: ev.Bool("lockStructure", false),
				LockWindows:   ev.Bool("lockWindows", false),
			}
		case "bookViews":
			first := true
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "workbookView" && first {
					first = false
					wb.View = WorkbookView{
						ActiveTab:  ev.Int("activeTab", 0),
						FirstSheet: ev.Int("firstSheet", 0),
					}
				}
				return r.Skip()
			})
		case "sheets":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "sheet" {
					sheets = append(sheets, sheetEntry{
						name:  ev.Str("name"),
						state: SheetState(ev.Str("state")),
						rid:   ev.RID("id"),
					})
				}
				return r.Skip()
			})
		case "definedNames":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "definedName" {
					return r.Skip()
				}
				dn := &DefinedName{
					Name:    ev.Str("name"),
					Hidden:  ev.Bool("hidden", false),
					Comment: ev.Str("comment"),
				}
				names = append(names, nameEntry{dn: dn, local: ev.Int("localSheetId", -1)})
				s, err := r.ReadText()
				dn.RefersTo = strings.TrimPrefix(s, "=")
				return err
			})
		case "calcPr":
			wb.Calc = CalcProperties{
				CalcID:         ev.Int("calcId", 0),
				FullCalcOnLoad: ev.Bool("fullCalcOnLoad", false),
				CalcMode:       ev.Str("calcMode"),
			}
		case "pivotCaches":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "pivotCache" {
					caches = append(caches, cacheEntry{id: ev.Int("cacheId", 0), rid: ev.RID("id")})
				}
				return r.Skip()
			})
		}
		return r.Skip()
	})
	if err != nil {
		return err
	}

	for _, c := range caches {
		part, ok := bookRels.Resolve(c.rid)
		if !ok {
			ld.log.Warn("dangling pivot cache relationship")
			continue
		}
		pc, err := ld.readPivotCache(part)
		if err != nil {
			return err
		}
		ld.cachesByPart[part] = pc
		ld.cachesByID[c.id] = pc
		wb.PivotCaches = append(wb.PivotCaches, pc)
	}

	// tabs are reordered: worksheets first, then opaque sheets
	var parts []string
	var opaque []int
	tabs := make([]int, len(sheets))
	sheetRIDs := map[string]bool{}
	for i, e := range sheets {
		rel := bookRels.ByID(e.rid)
		if rel == nil {
			return errors.Wrapf(ErrPartMissing, "sheet %s: relationship %s", e.name, e.rid)
		}
		sheetRIDs[e.rid] = true
		part := opc.ResolveTarget(book, rel.Target)
		if rel.Type != xlxml.RelWorksheet {
			wb.OpaqueSheets = append(wb.OpaqueSheets, &OpaqueSheet{
				Name:    e.name,
				State:   e.state,
				RelType: rel.Type,
				part:    part,
			})
			opaque = append(opaque, i)
			ld.log.Debug("opaque sheet retained", zap.String("sheet", e.name))
			continue
		}
		sh, err := wb.AddSheet(e.name)
		if err != nil {
			return errors.Wrapf(ErrPartInvalid, "%s: %v", book, err)
		}
		sh.State = e.state
		tabs[i] = len(parts)
		parts = append(parts, part)
	}
	for j, i := range opaque {
		tabs[i] = len(parts) + j
	}
	if tab := wb.View.ActiveTab; tab >= 0 && tab < len(tabs) {
		wb.View.ActiveTab = tabs[tab]
	}
	if tab := wb.View.FirstSheet; tab >= 0 && tab < len(tabs) {
		wb.View.FirstSheet = tabs[tab]
	}
	if len(wb.Sheets) == 0 {
		return errors.Wrapf(ErrPartInvalid, "%s: no worksheets", book)
	}
	for i, sh := range wb.Sheets {
		if err := ld.readSheet(sh, parts[i]); err != nil {
			return err
		}
		ld.log.Debug("sheet read", zap.String("sheet", sh.Name))
	}

	for _, n := range names {
		if n.local >= 0 {
			if n.local >= len(tabs) || tabs[n.local] >= len(wb.Sheets) {
				ld.log.Warn("defined name with unknown scope dropped", zap.String("name", n.dn.Name))
				continue
			}
			n.dn.Scope = wb.Sheets[tabs[n.local]]
		}
		wb.DefinedNames = append(wb.DefinedNames, n.dn)
	}

	for _, rel := range bookRels.All() {
		if workbookRelTypes[rel.Type] || sheetRIDs[rel.ID] {
			continue
		}
		wb.bookRels = append(wb.bookRels, retainRel(rel, book))
		ld.log.Debug("workbook relationship retained", zap.String("type", rel.Type))
	}
	return nil
}

func retainRel(rel opc.Relationship, source string) retainedRel {
	if rel.Mode == opc.External {
		return retainedRel{Type: rel.Type, Target: rel.Target, External: true}
	}
	return retainedRel{Type: rel.Type, Target: opc.ResolveTarget(source, rel.Target)}
}

// retain keeps every part nothing decoded, except the relationship parts
// of decoded sources.
func (ld *loader) retain() {
	for _, name := range ld.pkg.Parts() {
		if ld.consumed[name] {
			continue
		}
		if src, ok := opc.RelsSource(name); ok && ld.consumed[src] {
			continue
		}
		data, _ := ld.pkg.ReadPart(name)
		ld.wb.retained = append(ld.wb.retained, retainedPart{Name: name, Data: data})
		ld.log.Debug("part retained", zap.String("part", name))
	}
}
