package xl

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/adnsv/go-xlsx/ref"
)

type Workbook struct {
	AppName string
	Sheets  []*Sheet

	// Date1904 selects the 1904 date system.
	Date1904     bool
	DefinedNames []*DefinedName
	Properties   Properties
	Protection   *WorkbookProtection
	View         WorkbookView
	Calc         CalcProperties
	// NamedStyles is the cell-style pool; entry 0 is "Normal".
	NamedStyles []*NamedStyle
	PivotCaches []*PivotCache
	// VBAProject is the macro binary of a macro-enabled workbook.
	VBAProject []byte
	// Theme is the raw theme part; a default theme is written when empty.
	Theme []byte
	// BackupContentTypes is the content-type list captured on load. Parts
	// without a rule of their own are written with these types.
	BackupContentTypes map[string]string
	// OpaqueSheets are the chart, dialog and macro sheets of a loaded
	// workbook. They are written back after the worksheets.
	OpaqueSheets []*OpaqueSheet

	sheetMap  map[string]*Sheet
	retained  []retainedPart
	pkgRels   []retainedRel
	bookRels  []retainedRel
	cellMedia map[int]*PictureInfo // rich value index to image, on load

	// set by OpenFile and SaveAs
	path string
	opts Options
}

// DefinedName is a named formula, global or local to one sheet.
type DefinedName struct {
	Name     string
	RefersTo string // formula text without "="
	Scope    *Sheet // nil for a workbook-wide name
	Hidden   bool
	Comment  string
}

// WorkbookProtection locks the structure or the windows of a workbook.
type WorkbookProtection struct {
	PasswordHash  string
	LockStructure bool
	LockWindows   bool
}

// SetPassword stores the legacy hash of password.
func (p *WorkbookProtection) SetPassword(password string) {
	p.PasswordHash = LegacyPasswordHash(password)
}

// WorkbookView holds the window state of the workbook.
type WorkbookView struct {
	ActiveTab  int
	FirstSheet int
}

// CalcProperties controls recalculation.
type CalcProperties struct {
	CalcID         int
	FullCalcOnLoad bool
	CalcMode       string // auto (default), manual or autoNoTable
}

// OpaqueSheet is a sheet that is not a worksheet. Its part and everything
// it refers to are kept verbatim.
type OpaqueSheet struct {
	Name  string
	State SheetState
	// RelType is the workbook relationship type, a chartsheet for instance.
	RelType string
	part    string
}

// retainedPart is a part kept verbatim because nothing models it.
type retainedPart struct {
	Name string
	Data []byte
}

// retainedRel is a relationship of an unmodelled type. Target is an
// absolute part name, or the URI of an external target.
type retainedRel struct {
	Type     string
	Target   string
	External bool
}

func NewWorkbook() *Workbook {
	return &Workbook{
		sheetMap:    map[string]*Sheet{},
		NamedStyles: []*NamedStyle{defaultNamedStyle()},
	}
}

func (wb *Workbook) AddSheet(name string) (*Sheet, error) {
	if _, exists := wb.sheetMap[strings.ToLower(name)]; exists || wb.opaqueSheet(name) != nil {
		return nil, fmt.Errorf("duplicate sheet name '%s'", name)
	}

	if err := validateSheetName(name); err != nil {
		return nil, err
	}

	sheet := newSheet(wb, name)

	wb.Sheets = append(wb.Sheets, sheet)
	wb.sheetMap[strings.ToLower(name)] = sheet

	return sheet, nil
}

func (wb *Workbook) opaqueSheet(name string) *OpaqueSheet {
	for _, o := range wb.OpaqueSheets {
		if strings.EqualFold(o.Name, name) {
			return o
		}
	}
	return nil
}

// Sheet looks up a sheet by name, ignoring case.
func (wb *Workbook) Sheet(name string) *Sheet {
	return wb.sheetMap[strings.ToLower(name)]
}

// RemoveSheet deletes a sheet with everything it owns. References to it
// from the remaining sheets and from global names become #REF!, and names
// local to it are dropped.
func (wb *Workbook) RemoveSheet(name string) error {
	sh := wb.Sheet(name)
	if sh == nil {
		return fmt.Errorf("no sheet named '%s'", name)
	}
	if len(wb.Sheets) == 1 {
		return errors.New("a workbook must keep at least one sheet")
	}
	idx := sh.Index()
	wb.Sheets = append(wb.Sheets[:idx], wb.Sheets[idx+1:]...)
	delete(wb.sheetMap, strings.ToLower(sh.Name))
	sh.workbook = nil

	names := wb.DefinedNames[:0]
	for _, dn := range wb.DefinedNames {
		if dn.Scope == sh {
			continue
		}
		dn.RefersTo = ref.InvalidateSheet(dn.RefersTo, sh.Name)
		names = append(names, dn)
	}
	wb.DefinedNames = names
	wb.rewriteFormulas(func(f string, _ *Sheet) string {
		return ref.InvalidateSheet(f, sh.Name)
	})

	if wb.View.ActiveTab >= len(wb.Sheets) {
		wb.View.ActiveTab = len(wb.Sheets) - 1
	}
	if wb.View.FirstSheet >= len(wb.Sheets) {
		wb.View.FirstSheet = 0
	}
	return nil
}

// RenameSheet renames a sheet and rewrites every formula, name and chart
// reference that points at it.
func (wb *Workbook) RenameSheet(oldName, newName string) error {
	sh := wb.Sheet(oldName)
	if sh == nil {
		return fmt.Errorf("no sheet named '%s'", oldName)
	}
	if other := wb.Sheet(newName); (other != nil && other != sh) || wb.opaqueSheet(newName) != nil {
		return fmt.Errorf("duplicate sheet name '%s'", newName)
	}
	if err := validateSheetName(newName); err != nil {
		return err
	}
	old := sh.Name
	delete(wb.sheetMap, strings.ToLower(old))
	sh.Name = newName
	wb.sheetMap[strings.ToLower(newName)] = sh

	for _, dn := range wb.DefinedNames {
		dn.RefersTo = ref.RenameSheet(dn.RefersTo, old, newName)
	}
	wb.rewriteFormulas(func(f string, _ *Sheet) string {
		return ref.RenameSheet(f, old, newName)
	})
	for _, pc := range wb.PivotCaches {
		if pc.SourceSheet == old {
			pc.SourceSheet = newName
		}
	}
	return nil
}

// MoveSheet changes the tab position of a sheet.
func (wb *Workbook) MoveSheet(name string, to int) error {
	sh := wb.Sheet(name)
	if sh == nil {
		return fmt.Errorf("no sheet named '%s'", name)
	}
	if to < 0 || to >= len(wb.Sheets) {
		return fmt.Errorf("sheet position %d out of range", to)
	}
	active := wb.ActiveSheet()
	from := sh.Index()
	wb.Sheets = append(wb.Sheets[:from], wb.Sheets[from+1:]...)
	wb.Sheets = append(wb.Sheets[:to], append([]*Sheet{sh}, wb.Sheets[to:]...)...)
	if active != nil {
		wb.View.ActiveTab = active.Index()
	}
	return nil
}

// ActiveSheet returns the sheet selected when the workbook opens.
func (wb *Workbook) ActiveSheet() *Sheet {
	if wb.View.ActiveTab >= 0 && wb.View.ActiveTab < len(wb.Sheets) {
		return wb.Sheets[wb.View.ActiveTab]
	}
	return nil
}

// SetActiveSheet selects the sheet shown when the workbook opens.
func (wb *Workbook) SetActiveSheet(name string) error {
	sh := wb.Sheet(name)
	if sh == nil {
		return fmt.Errorf("no sheet named '%s'", name)
	}
	wb.View.ActiveTab = sh.Index()
	for _, s := range wb.Sheets {
		s.View.TabSelected = s == sh
	}
	return nil
}

// AddDefinedName adds a name. scope is nil for a workbook-wide name.
func (wb *Workbook) AddDefinedName(name, refersTo string, scope *Sheet) (*DefinedName, error) {
	if name == "" || strings.ContainsAny(name, " !'\"") {
		return nil, fmt.Errorf("invalid defined name '%s'", name)
	}
	if wb.DefinedName(name, scope) != nil {
		return nil, fmt.Errorf("duplicate defined name '%s'", name)
	}
	dn := &DefinedName{Name: name, RefersTo: strings.TrimPrefix(refersTo, "="), Scope: scope}
	wb.DefinedNames = append(wb.DefinedNames, dn)
	return dn, nil
}

// DefinedName looks a name up within a scope, ignoring case.
func (wb *Workbook) DefinedName(name string, scope *Sheet) *DefinedName {
	for _, dn := range wb.DefinedNames {
		if dn.Scope == scope && strings.EqualFold(dn.Name, name) {
			return dn
		}
	}
	return nil
}

// Table finds a table by name across all sheets, ignoring case.
func (wb *Workbook) Table(name string) *Table {
	for _, sh := range wb.Sheets {
		for _, t := range sh.Tables {
			if strings.EqualFold(t.Name, name) {
				return t
			}
		}
	}
	return nil
}

// rewriteFormulas applies fn to every formula stored in the sheets: cell
// formulas, validation and conditional formulas, chart references and
// internal hyperlink locations.
func (wb *Workbook) rewriteFormulas(fn func(formula string, home *Sheet) string) {
	for _, sh := range wb.Sheets {
		for _, c := range sh.Cells() {
			if c.formula != nil {
				c.formula.Text = fn(c.formula.Text, sh)
			}
		}
		for _, dv := range sh.Validations {
			dv.Formula1 = fn(dv.Formula1, sh)
			dv.Formula2 = fn(dv.Formula2, sh)
		}
		for _, cf := range sh.Conditionals {
			for _, r := range cf.Rules {
				for i := range r.Formulas {
					r.Formulas[i] = fn(r.Formulas[i], sh)
				}
			}
		}
		for _, h := range sh.Hyperlinks {
			if h.Location != "" {
				h.Location = fn(h.Location, sh)
			}
		}
		for _, t := range sh.Tables {
			for _, col := range t.Columns {
				col.Formula = fn(col.Formula, sh)
			}
		}
		if sh.Drawing != nil {
			for _, ch := range sh.Drawing.Charts() {
				ch.rewriteRefs(func(f string) string { return fn(f, sh) })
			}
		}
	}
}

func validateSheetName(s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return errors.New("empty sheet name is not allowed")
	} else if n > 31 {
		return errors.New("the sheet name is too long")
	}
	if strings.HasPrefix(s, "'") || strings.HasSuffix(s, "'") {
		return errors.New("the first or last character of the sheet name can not be a single quote")
	}
	if strings.ContainsAny(s, ":\\/?*[]") {
		return errors.New("the sheet can not contain any of the characters :\\/?*[]")
	}
	return nil
}
