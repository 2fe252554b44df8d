package xl

import (
	"bytes"
	"slices"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// Writer turns a Workbook into a package. The interning tables and part
// counters live for one Write call.
type Writer struct {
	out  *opc.Package
	opts Options
	log  *zap.Logger

	styles  *styleSheet
	strings *sharedStrings

	lastDrawing    int
	lastChart      int
	lastComments   int
	lastTable      int
	lastPivotTable int
	lastOle        int
	lastPrinter    int

	mediaMap  map[string]*MediaInfo // maps media name to media info
	cellMedia []*MediaInfo          // in-cell pictures by rich value index
	caches    map[*PivotCache]cacheParts

	// now stamps the modification time of the core properties
	now func() time.Time
}

func NewWriter(opts Options) *Writer {
	return &Writer{
		opts: opts,
		log:  opts.logger(),
		now:  time.Now,
	}
}

func (w *Writer) reset(wb *Workbook) {
	*w = Writer{opts: w.opts, log: w.log, now: w.now}
	w.out = opc.New()
	w.styles = newStyleSheet(wb.NamedStyles)
	w.strings = newSharedStrings()
	w.mediaMap = map[string]*MediaInfo{}
}

// Write builds the package of wb. Sheets take the first workbook
// relationship ids, in tab order.
func (w *Writer) Write(wb *Workbook) (*opc.Package, error) {
	if len(wb.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	w.reset(wb)

	// retained parts go first so that generated parts replace them
	for _, p := range wb.retained {
		w.out.WritePart(p.Name, p.Data)
		w.log.Debug("retained part written", zap.String("part", p.Name))
	}

	const book = "/xl/workbook.xml"
	bookRels := opc.NewRelationships(book)

	w.planPivotCaches(wb.PivotCaches)

	sheetRIDs := make([]string, len(wb.Sheets))
	for i, sh := range wb.Sheets {
		part, err := w.writeSheet(sh, i+1)
		if err != nil {
			return nil, err
		}
		sheetRIDs[i] = bookRels.AddPart(xlxml.RelWorksheet, part)
	}
	var opaque []*OpaqueSheet
	for _, o := range wb.OpaqueSheets {
		if !w.out.Has(o.part) {
			w.log.Warn("opaque sheet without its part dropped", zap.String("sheet", o.Name))
			continue
		}
		opaque = append(opaque, o)
		sheetRIDs = append(sheetRIDs, bookRels.AddPart(o.RelType, o.part))
	}

	w.out.WritePart("/xl/styles.xml", w.styles.Bytes())
	bookRels.AddPart(xlxml.RelStyles, "/xl/styles.xml")

	if w.strings.Len() > 0 {
		w.out.WritePart("/xl/sharedStrings.xml", w.strings.Bytes())
		bookRels.AddPart(xlxml.RelSharedStrings, "/xl/sharedStrings.xml")
	}

	theme := wb.Theme
	if len(theme) == 0 {
		theme = []byte(defaultTheme)
	}
	w.out.WritePart("/xl/theme/theme1.xml", theme)
	bookRels.AddPart(xlxml.RelTheme, "/xl/theme/theme1.xml")

	cacheRIDs := make([]string, len(wb.PivotCaches))
	for i, pc := range wb.PivotCaches {
		w.writePivotCache(pc)
		cacheRIDs[i] = bookRels.AddPart(xlxml.RelPivotCache, w.caches[pc].definition)
	}

	if len(wb.VBAProject) > 0 {
		w.out.WritePart("/xl/vbaProject.bin", wb.VBAProject)
		w.out.SetContentType("/xl/vbaProject.bin", xlxml.TypeVBAProject)
		bookRels.AddPart(xlxml.RelVBAProject, "/xl/vbaProject.bin")
	}

	w.writeRichData(bookRels)

	for _, rel := range wb.bookRels {
		if rel.External {
			bookRels.AddExternal(rel.Type, rel.Target)
		} else {
			bookRels.AddPart(rel.Type, rel.Target)
		}
	}

	w.out.WritePart(book, w.workbookBytes(wb, opaque, sheetRIDs, cacheRIDs))
	if len(wb.VBAProject) > 0 {
		w.out.SetContentType(book, xlxml.TypeWorkbookMacro)
	}
	w.out.SetRelationships(bookRels)

	pkgRels := opc.NewRelationships("/")
	pkgRels.AddPart(xlxml.RelOfficeDocument, book)
	w.writeProperties(wb, pkgRels)
	for _, rel := range wb.pkgRels {
		if rel.External {
			pkgRels.AddExternal(rel.Type, rel.Target)
		} else {
			pkgRels.AddPart(rel.Type, rel.Target)
		}
	}
	w.out.SetRelationships(pkgRels)

	w.log.Debug("workbook written",
		zap.Int("sheets", len(wb.Sheets)),
		zap.Int("strings", w.strings.Len()),
		zap.Int("cellXfs", len(w.styles.cellXfs)))
	return w.out, nil
}

func (w *Writer) writeProperties(wb *Workbook, pkgRels *opc.Relationships) {
	const core, app, custom = "/docProps/core.xml", "/docProps/app.xml", "/docProps/custom.xml"

	w.out.WritePart(core, coreBytes(&wb.Properties, w.now()))
	pkgRels.AddPart(xlxml.RelCoreProps, core)

	w.out.WritePart(app, appBytes(&wb.Properties, wb.AppName))
	pkgRels.AddPart(xlxml.RelExtProps, app)

	if len(wb.Properties.Custom) > 0 {
		w.out.WritePart(custom, customBytes(wb.Properties.Custom))
		pkgRels.AddPart(xlxml.RelCustomProps, custom)
	}
}

// workbookBytes emits the workbook part. sheetRIDs holds the worksheets
// followed by the opaque sheets.
func (w *Writer) workbookBytes(wb *Workbook, opaque []*OpaqueSheet, sheetRIDs, cacheRIDs []string) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("workbook")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("xmlns:r", xlxml.NsRelationships)

	if wb.AppName != "" {
		x.OTag("+fileVersion").Attr("appName", wb.AppName).CTag()
	}

	x.OTag("+workbookPr")
	if wb.Date1904 {
		x.Attr("date1904", 1)
	}
	x.CTag()

	if p := wb.Protection; p != nil {
		x.OTag("+workbookProtection")
		if p.PasswordHash != "" {
			x.Attr("workbookPassword", p.PasswordHash)
		}
		if p.LockStructure {
			x.Attr("lockStructure", 1)
		}
		if p.LockWindows {
			x.Attr("lockWindows", 1)
		}
		x.CTag()
	}

	x.OTag("+bookViews")
	x.OTag("+workbookView")
	if wb.View.FirstSheet > 0 {
		x.Attr("firstSheet", wb.View.FirstSheet)
	}
	if wb.View.ActiveTab > 0 {
		x.Attr("activeTab", wb.View.ActiveTab)
	}
	x.CTag()
	x.CTag()

	x.OTag("+sheets")
	for i, sh := range wb.Sheets {
		x.OTag("+sheet")
		x.Attr("name", sh.Name)
		x.Attr("sheetId", i+1)
		if sh.State != SheetVisible {
			x.Attr("state", string(sh.State))
		}
		x.Attr("r:id", sheetRIDs[i])
		x.CTag()
	}
	for j, o := range opaque {
		i := len(wb.Sheets) + j
		x.OTag("+sheet")
		x.Attr("name", o.Name)
		x.Attr("sheetId", i+1)
		if o.State != SheetVisible {
			x.Attr("state", string(o.State))
		}
		x.Attr("r:id", sheetRIDs[i])
		x.CTag()
	}
	x.CTag()

	names := 0
	for _, dn := range wb.DefinedNames {
		if dn.Scope == nil || dn.Scope.Index() >= 0 {
			names++
		}
	}
	if names > 0 {
		x.OTag("+definedNames")
		for _, dn := range wb.DefinedNames {
			idx := -1
			if dn.Scope != nil {
				if idx = dn.Scope.Index(); idx < 0 {
					continue
				}
			}
			x.OTag("+definedName").Attr("name", dn.Name)
			if dn.Comment != "" {
				x.Attr("comment", dn.Comment)
			}
			if idx >= 0 {
				x.Attr("localSheetId", idx)
			}
			if dn.Hidden {
				x.Attr("hidden", 1)
			}
			x.String(dn.RefersTo)
			x.CTag()
		}
		x.CTag()
	}

	if c := wb.Calc; c != (CalcProperties{}) {
		x.OTag("+calcPr")
		if c.CalcID != 0 {
			x.Attr("calcId", c.CalcID)
		}
		if c.CalcMode != "" && c.CalcMode != "auto" {
			x.Attr("calcMode", c.CalcMode)
		}
		if c.FullCalcOnLoad {
			x.Attr("fullCalcOnLoad", 1)
		}
		x.CTag()
	}

	if len(wb.PivotCaches) > 0 {
		x.OTag("+pivotCaches")
		for i, pc := range wb.PivotCaches {
			x.OTag("+pivotCache").Attr("cacheId", w.caches[pc].id).Attr("r:id", cacheRIDs[i]).CTag()
		}
		x.CTag()
	}

	x.CTag() // workbook
	return bb.Bytes()
}

// nextPart advances *counter to the first number whose part name is not
// taken yet, by a retained part for instance, and returns that name.
func (w *Writer) nextPart(counter *int, prefix, suffix string) string {
	for {
		*counter++
		part := prefix + strconv.Itoa(*counter) + suffix
		if !w.out.Has(part) {
			return part
		}
	}
}

func enumerate[M ~map[K]V, K constraints.Ordered, V any](m M, callback func(k K, v V) error) error {
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		err := callback(k, m[k])
		if err != nil {
			return err
		}
	}
	return nil
}
