package xl

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xlxml"
)

// Table is a structured range with a header row, typed columns and an
// optional totals row.
type Table struct {
	Name        string
	DisplayName string
	Ref         ref.Range
	Columns     []*TableColumn
	NoHeaderRow bool
	TotalsRow   bool
	// NoAutoFilter hides the filter buttons of the header row.
	NoAutoFilter bool
	Style        *TableStyleInfo
}

// TableColumn describes one column of a table.
type TableColumn struct {
	Name              string
	TotalsRowFunction string // sum, average, count, min, max, custom ...
	TotalsRowLabel    string
	// Formula is the calculated-column formula.
	Formula string
}

// TableStyleInfo selects the table style and its banding.
type TableStyleInfo struct {
	Name              string
	ShowFirstColumn   bool
	ShowLastColumn    bool
	ShowRowStripes    bool
	ShowColumnStripes bool
}

// NewTable returns a table over rng with the default medium style.
func NewTable(name, rng string) (*Table, error) {
	r, err := ref.ParseRange(rng)
	if err != nil {
		return nil, errors.Wrap(ErrBadReference, err.Error())
	}
	return &Table{
		Name:  name,
		Ref:   r.Normalize(),
		Style: &TableStyleInfo{Name: "TableStyleMedium2", ShowRowStripes: true},
	}, nil
}

// filterRange is the table area without its totals row.
func (t *Table) filterRange() ref.Range {
	r := t.Ref.Normalize()
	if t.TotalsRow && r.End.Row > r.Start.Row {
		r.End.Row--
	}
	return r
}

func tableBytes(t *Table, id int) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	rng := t.Ref.Normalize()
	x.OTag("table")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("id", id)
	x.Attr("name", t.Name)
	x.Attr("displayName", t.DisplayName)
	x.Attr("ref", rng.Coordinate())
	if t.NoHeaderRow {
		x.Attr("headerRowCount", 0)
	}
	if t.TotalsRow {
		x.Attr("totalsRowCount", 1)
	} else {
		x.Attr("totalsRowShown", 0)
	}

	if !t.NoHeaderRow && !t.NoAutoFilter {
		x.OTag("+autoFilter").Attr("ref", t.filterRange().Coordinate()).CTag()
	}

	x.OTag("+tableColumns").Attr("count", len(t.Columns))
	for i, c := range t.Columns {
		x.OTag("+tableColumn").Attr("id", i+1).Attr("name", c.Name)
		if c.TotalsRowFunction != "" {
			x.Attr("totalsRowFunction", c.TotalsRowFunction)
		}
		if c.TotalsRowLabel != "" {
			x.Attr("totalsRowLabel", c.TotalsRowLabel)
		}
		if c.Formula != "" {
			x.OTag("calculatedColumnFormula").String(c.Formula).CTag()
		}
		x.CTag()
	}
	x.CTag()

	if s := t.Style; s != nil {
		x.OTag("+tableStyleInfo")
		if s.Name != "" {
			x.Attr("name", s.Name)
		}
		x.Attr("showFirstColumn", xlxml.Bool(s.ShowFirstColumn))
		x.Attr("showLastColumn", xlxml.Bool(s.ShowLastColumn))
		x.Attr("showRowStripes", xlxml.Bool(s.ShowRowStripes))
		x.Attr("showColumnStripes", xlxml.Bool(s.ShowColumnStripes))
		x.CTag()
	}

	x.CTag()
	return bb.Bytes()
}

// writeTable emits a table part and returns its name. Table ids are
// unique across the workbook.
func (w *Writer) writeTable(t *Table) (string, error) {
	if len(t.Columns) != t.Ref.Normalize().Cols() {
		return "", errors.Errorf("table %s: %d columns for a %d column range",
			t.Name, len(t.Columns), t.Ref.Normalize().Cols())
	}
	part := w.nextPart(&w.lastTable, "/xl/tables/table", ".xml")
	w.out.WritePart(part, tableBytes(t, w.lastTable))
	return part, nil
}

func (ld *loader) readTable(part string) (*Table, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	return parseTable(part, data)
}

func parseTable(name string, data []byte) (*Table, error) {
	r := xlxml.NewReader(name, data)
	root, err := r.Root("table")
	if err != nil {
		return nil, err
	}
	rng, err := ref.ParseRange(root.Str("ref"))
	if err != nil {
		return nil, r.Errorf("%w: table ref %q", ErrBadReference, root.Str("ref"))
	}
	t := &Table{
		Name:         root.Str("name"),
		DisplayName:  root.Str("displayName"),
		Ref:          rng.Normalize(),
		NoHeaderRow:  root.Int("headerRowCount", 1) == 0,
		TotalsRow:    root.Int("totalsRowCount", 0) > 0,
		NoAutoFilter: true,
	}
	if t.DisplayName == "" {
		t.DisplayName = t.Name
	}
	err = r.Children("table", func(ev xlxml.Event) error {
		switch ev.Name {
		case "autoFilter":
			t.NoAutoFilter = false
		case "tableColumns":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "tableColumn" {
					return r.Skip()
				}
				c := &TableColumn{
					Name:              ev.Str("name"),
					TotalsRowFunction: ev.Str("totalsRowFunction"),
					TotalsRowLabel:    ev.Str("totalsRowLabel"),
				}
				t.Columns = append(t.Columns, c)
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name != "calculatedColumnFormula" {
						return r.Skip()
					}
					s, err := r.ReadText()
					c.Formula = strings.TrimPrefix(s, "=")
					return err
				})
			})
		case "tableStyleInfo":
			t.Style = &TableStyleInfo{
				Name:              ev.Str("name"),
				ShowFirstColumn:   ev.Bool("showFirstColumn", false),
				ShowLastColumn:    ev.Bool("showLastColumn", false),
				ShowRowStripes:    ev.Bool("showRowStripes", false),
				ShowColumnStripes: ev.Bool("showColumnStripes", false),
			}
		}
		return r.Skip()
	})
	return t, err
}
