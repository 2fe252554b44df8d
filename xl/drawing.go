package xl

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/adnsv/srw/xml"
	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xlxml"
)

// EMUPerPixel converts 96 dpi pixels to English Metric Units.
const EMUPerPixel = 9525

// AnchorKind selects how a drawing object is bound to the grid.
type AnchorKind int

const (
	TwoCellAnchor AnchorKind = iota
	OneCellAnchor
	AbsoluteAnchor
)

// Marker is a grid position: a 1-based cell plus offsets in EMU.
type Marker struct {
	Col    int
	ColOff int64
	Row    int
	RowOff int64
}

// Anchor binds one drawing object to the sheet.
type Anchor struct {
	Kind AnchorKind
	From Marker // two-cell and one-cell anchors
	To   Marker // two-cell anchors
	// X and Y position an absolute anchor; Cx and Cy size one-cell and
	// absolute anchors. All in EMU.
	X, Y   int64
	Cx, Cy int64
	// EditAs is twoCell (default), oneCell or absolute.
	EditAs string
	Object DrawingObject
}

// Transform is a DrawingML xfrm.
type Transform struct {
	OffX, OffY     int64
	Cx, Cy         int64
	ChOffX, ChOffY int64 // groups only
	ChCx, ChCy     int64 // groups only
	Rot            int   // 60000ths of a degree
	FlipH, FlipV   bool
}

// ObjectProps are the properties common to every drawing object.
type ObjectProps struct {
	ID    int // unique within the drawing; reassigned on write
	Name  string
	Descr string
	Xfrm  *Transform
}

// DrawingObject is one of *Picture, *Shape, *Connector, *Group or
// *ChartFrame.
type DrawingObject interface {
	Props() *ObjectProps
}

// Picture shows an image.
type Picture struct {
	ObjectProps
	Image *PictureInfo
}

// Shape is a preset geometry with optional text.
type Shape struct {
	ObjectProps
	Geometry  string // preset geometry, rect when empty
	TextBox   bool
	Text      string // paragraphs separated by "\n"
	FillColor *Color
	LineColor *Color
}

// Connector is a line shape, optionally attached to other shapes.
type Connector struct {
	ObjectProps
	Geometry  string // straightConnector1 when empty
	LineColor *Color
	StartID   int // ObjectProps.ID of the shape it starts at, 0 for none
	EndID     int
}

// Group holds child objects positioned in the group's child space.
type Group struct {
	ObjectProps
	Objects []DrawingObject
}

// ChartFrame places a chart.
type ChartFrame struct {
	ObjectProps
	Chart *Chart
}

func (o *Picture) Props() *ObjectProps    { return &o.ObjectProps }
func (o *Shape) Props() *ObjectProps      { return &o.ObjectProps }
func (o *Connector) Props() *ObjectProps  { return &o.ObjectProps }
func (o *Group) Props() *ObjectProps      { return &o.ObjectProps }
func (o *ChartFrame) Props() *ObjectProps { return &o.ObjectProps }

// Drawing is the drawing tree of a sheet.
type Drawing struct {
	Anchors []*Anchor
}

// Charts lists the charts of the drawing, including grouped ones.
func (d *Drawing) Charts() []*Chart {
	var out []*Chart
	var walk func(objs []DrawingObject)
	walk = func(objs []DrawingObject) {
		for _, o := range objs {
			switch o := o.(type) {
			case *ChartFrame:
				if o.Chart != nil {
					out = append(out, o.Chart)
				}
			case *Group:
				walk(o.Objects)
			}
		}
	}
	for _, a := range d.Anchors {
		walk([]DrawingObject{a.Object})
	}
	return out
}

// RangeAnchor spans the cells of rng: the object starts at the top-left
// corner of the first cell and ends at the bottom-right of the last.
func RangeAnchor(rng string) (*Anchor, error) {
	r, err := ref.ParseRange(rng)
	if err != nil {
		return nil, errors.Wrap(ErrBadReference, err.Error())
	}
	r = r.Normalize()
	return &Anchor{
		Kind: TwoCellAnchor,
		From: Marker{Col: r.Start.Col, Row: r.Start.Row},
		To:   Marker{Col: r.End.Col + 1, Row: r.End.Row + 1},
	}, nil
}

// AddPicture draws an image over a range.
func (s *Sheet) AddPicture(p *PictureInfo, rng string) (*Anchor, error) {
	if _, err := mediaName(p); err != nil {
		return nil, err
	}
	a, err := RangeAnchor(rng)
	if err != nil {
		return nil, err
	}
	a.EditAs = "oneCell"
	a.Object = &Picture{ObjectProps: ObjectProps{Name: "Picture"}, Image: p}
	s.drawing().Anchors = append(s.drawing().Anchors, a)
	return a, nil
}

// AddPictureAt draws an image of the given pixel size with its top-left
// corner in a cell.
func (s *Sheet) AddPictureAt(p *PictureInfo, col, row, width, height int) (*Anchor, error) {
	if _, err := mediaName(p); err != nil {
		return nil, err
	}
	a := &Anchor{
		Kind:   OneCellAnchor,
		From:   Marker{Col: col, Row: row},
		Cx:     int64(width) * EMUPerPixel,
		Cy:     int64(height) * EMUPerPixel,
		Object: &Picture{ObjectProps: ObjectProps{Name: "Picture"}, Image: p},
	}
	s.drawing().Anchors = append(s.drawing().Anchors, a)
	return a, nil
}

// AddShape draws a shape over a range.
func (s *Sheet) AddShape(sh *Shape, rng string) (*Anchor, error) {
	a, err := RangeAnchor(rng)
	if err != nil {
		return nil, err
	}
	a.Object = sh
	s.drawing().Anchors = append(s.drawing().Anchors, a)
	return a, nil
}

// AddChart places a chart over a range.
func (s *Sheet) AddChart(ch *Chart, rng string) (*Anchor, error) {
	if len(ch.Series) == 0 {
		return nil, errors.New("chart has no series")
	}
	a, err := RangeAnchor(rng)
	if err != nil {
		return nil, err
	}
	a.Object = &ChartFrame{ObjectProps: ObjectProps{Name: "Chart"}, Chart: ch}
	s.drawing().Anchors = append(s.drawing().Anchors, a)
	return a, nil
}

var schemeColorNames = []string{"lt1", "dk1", "lt2", "dk2", "accent1", "accent2",
	"accent3", "accent4", "accent5", "accent6", "hlink", "folHlink"}

// writeDrawingColor emits a DrawingML color choice.
func writeDrawingColor(x *xml.Writer, c *Color) {
	if c.Theme != nil && *c.Theme >= 0 && *c.Theme < len(schemeColorNames) {
		x.OTag("a:schemeClr").Attr("val", schemeColorNames[*c.Theme]).CTag()
		return
	}
	rgb := c.RGB
	if len(rgb) == 8 {
		rgb = rgb[2:]
	}
	if rgb == "" {
		rgb = "000000"
	}
	x.OTag("a:srgbClr").Attr("val", rgb).CTag()
}

func parseDrawingColor(ev xlxml.Event) *Color {
	switch ev.Name {
	case "srgbClr":
		return RGBColor(ev.Str("val"))
	case "schemeClr":
		v := ev.Str("val")
		for i, n := range schemeColorNames {
			if n == v {
				return ThemeColor(i, 0)
			}
		}
		switch v {
		case "bg1":
			return ThemeColor(0, 0)
		case "tx1":
			return ThemeColor(1, 0)
		case "bg2":
			return ThemeColor(2, 0)
		case "tx2":
			return ThemeColor(3, 0)
		}
	}
	return nil
}

// drawingWriter emits one drawing part.
type drawingWriter struct {
	w    *Writer
	rels *opc.Relationships
	x    *xml.Writer
	ids  map[int]int
	next int
}

// writeDrawing emits a drawing part with its images and charts and
// returns the part name.
func (w *Writer) writeDrawing(d *Drawing) (string, error) {
	part := w.nextPart(&w.lastDrawing, "/xl/drawings/drawing", ".xml")
	dw := &drawingWriter{w: w, rels: opc.NewRelationships(part), ids: map[int]int{}, next: 1}

	for _, a := range d.Anchors {
		dw.assignIDs(a.Object)
	}

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	dw.x = x
	x.XmlStandaloneDecl()

	x.OTag("xdr:wsDr")
	x.Attr("xmlns:xdr", xlxml.NsSheetDrawing)
	x.Attr("xmlns:a", xlxml.NsDrawing)
	x.Attr("xmlns:r", xlxml.NsRelationships)
	x.Attr("xmlns:c", xlxml.NsChart)

	for _, a := range d.Anchors {
		if a.Object == nil {
			continue
		}
		switch a.Kind {
		case OneCellAnchor:
			x.OTag("+xdr:oneCellAnchor")
			dw.marker(a.From, false)
			x.OTag("xdr:ext").Attr("cx", a.Cx).Attr("cy", a.Cy).CTag()
		case AbsoluteAnchor:
			x.OTag("+xdr:absoluteAnchor")
			x.OTag("xdr:pos").Attr("x", a.X).Attr("y", a.Y).CTag()
			x.OTag("xdr:ext").Attr("cx", a.Cx).Attr("cy", a.Cy).CTag()
		default:
			x.OTag("+xdr:twoCellAnchor")
			if a.EditAs != "" && a.EditAs != "twoCell" {
				x.Attr("editAs", a.EditAs)
			}
			dw.marker(a.From, false)
			dw.marker(a.To, true)
		}
		if err := dw.object(a.Object); err != nil {
			return "", err
		}
		x.OTag("xdr:clientData").CTag()
		x.CTag()
	}

	x.CTag()
	w.out.WritePart(part, bb.Bytes())
	w.out.SetRelationships(dw.rels)
	w.log.Debug("drawing written")
	return part, nil
}

func (dw *drawingWriter) assignIDs(o DrawingObject) {
	if o == nil {
		return
	}
	p := o.Props()
	dw.next++
	if p.ID != 0 {
		dw.ids[p.ID] = dw.next
	}
	p.ID = dw.next
	if g, ok := o.(*Group); ok {
		for _, c := range g.Objects {
			dw.assignIDs(c)
		}
	}
}

func (dw *drawingWriter) remap(id int) int {
	if n, ok := dw.ids[id]; ok {
		return n
	}
	return id
}

func (dw *drawingWriter) marker(m Marker, to bool) {
	x := dw.x
	if to {
		x.OTag("xdr:to")
	} else {
		x.OTag("xdr:from")
	}
	x.OTag("xdr:col").Write(max(m.Col-1, 0)).CTag()
	x.OTag("xdr:colOff").Write(m.ColOff).CTag()
	x.OTag("xdr:row").Write(max(m.Row-1, 0)).CTag()
	x.OTag("xdr:rowOff").Write(m.RowOff).CTag()
	x.CTag()
}

func (dw *drawingWriter) cNvPr(p *ObjectProps, fallback string) {
	name := p.Name
	if name == "" {
		name = fallback
	}
	dw.x.OTag("xdr:cNvPr").Attr("id", p.ID).Attr("name", name+" "+strconv.Itoa(p.ID-1))
	if p.Descr != "" {
		dw.x.Attr("descr", p.Descr)
	}
	dw.x.CTag()
}

func (dw *drawingWriter) xfrm(t *Transform, group bool) {
	if t == nil {
		return
	}
	x := dw.x
	x.OTag("a:xfrm")
	if t.Rot != 0 {
		x.Attr("rot", t.Rot)
	}
	if t.FlipH {
		x.Attr("flipH", 1)
	}
	if t.FlipV {
		x.Attr("flipV", 1)
	}
	x.OTag("a:off").Attr("x", t.OffX).Attr("y", t.OffY).CTag()
	x.OTag("a:ext").Attr("cx", t.Cx).Attr("cy", t.Cy).CTag()
	if group {
		x.OTag("a:chOff").Attr("x", t.ChOffX).Attr("y", t.ChOffY).CTag()
		x.OTag("a:chExt").Attr("cx", t.ChCx).Attr("cy", t.ChCy).CTag()
	}
	x.CTag()
}

func (dw *drawingWriter) geometry(prst, def string) {
	if prst == "" {
		prst = def
	}
	dw.x.OTag("a:prstGeom").Attr("prst", prst)
	dw.x.OTag("a:avLst").CTag()
	dw.x.CTag()
}

func (dw *drawingWriter) line(c *Color) {
	if c == nil {
		return
	}
	dw.x.OTag("a:ln")
	dw.x.OTag("a:solidFill")
	writeDrawingColor(dw.x, c)
	dw.x.CTag()
	dw.x.CTag()
}

func (dw *drawingWriter) object(o DrawingObject) error {
	x := dw.x
	switch o := o.(type) {
	case *Picture:
		mi, err := dw.w.addMedia(o.Image)
		if err != nil {
			return err
		}
		rid := dw.rels.AddPart(xlxml.RelImage, "/xl/media/"+mi.Name)
		x.OTag("+xdr:pic")
		x.OTag("xdr:nvPicPr")
		dw.cNvPr(&o.ObjectProps, "Picture")
		x.OTag("xdr:cNvPicPr")
		x.OTag("a:picLocks").Attr("noChangeAspect", 1).CTag()
		x.CTag()
		x.CTag()
		x.OTag("xdr:blipFill")
		x.OTag("a:blip").Attr("r:embed", rid).CTag()
		x.OTag("a:stretch")
		x.OTag("a:fillRect").CTag()
		x.CTag()
		x.CTag()
		x.OTag("xdr:spPr")
		dw.xfrm(o.Xfrm, false)
		dw.geometry("rect", "rect")
		x.CTag()
		x.CTag()
	case *Shape:
		x.OTag("+xdr:sp").Attr("macro", "").Attr("textlink", "")
		x.OTag("xdr:nvSpPr")
		dw.cNvPr(&o.ObjectProps, "Shape")
		x.OTag("xdr:cNvSpPr")
		if o.TextBox {
			x.Attr("txBox", 1)
		}
		x.CTag()
		x.CTag()
		x.OTag("xdr:spPr")
		dw.xfrm(o.Xfrm, false)
		dw.geometry(o.Geometry, "rect")
		if o.FillColor != nil {
			x.OTag("a:solidFill")
			writeDrawingColor(x, o.FillColor)
			x.CTag()
		}
		dw.line(o.LineColor)
		x.CTag()
		if o.Text != "" {
			x.OTag("xdr:txBody")
			x.OTag("a:bodyPr").Attr("vertOverflow", "clip").Attr("rtlCol", 0).Attr("anchor", "t").CTag()
			x.OTag("a:lstStyle").CTag()
			for _, para := range strings.Split(o.Text, "\n") {
				x.OTag("+a:p")
				if para != "" {
					x.OTag("a:r")
					x.OTag("a:t").String(para).CTag()
					x.CTag()
				}
				x.CTag()
			}
			x.CTag()
		}
		x.CTag()
	case *Connector:
		x.OTag("+xdr:cxnSp").Attr("macro", "")
		x.OTag("xdr:nvCxnSpPr")
		dw.cNvPr(&o.ObjectProps, "Connector")
		x.OTag("xdr:cNvCxnSpPr")
		if o.StartID != 0 {
			x.OTag("a:stCxn").Attr("id", dw.remap(o.StartID)).Attr("idx", 0).CTag()
		}
		if o.EndID != 0 {
			x.OTag("a:endCxn").Attr("id", dw.remap(o.EndID)).Attr("idx", 0).CTag()
		}
		x.CTag()
		x.CTag()
		x.OTag("xdr:spPr")
		dw.xfrm(o.Xfrm, false)
		dw.geometry(o.Geometry, "straightConnector1")
		dw.line(o.LineColor)
		x.CTag()
		x.CTag()
	case *Group:
		x.OTag("+xdr:grpSp")
		x.OTag("xdr:nvGrpSpPr")
		dw.cNvPr(&o.ObjectProps, "Group")
		x.OTag("xdr:cNvGrpSpPr").CTag()
		x.CTag()
		x.OTag("xdr:grpSpPr")
		dw.xfrm(o.Xfrm, true)
		x.CTag()
		for _, c := range o.Objects {
			if err := dw.object(c); err != nil {
				return err
			}
		}
		x.CTag()
	case *ChartFrame:
		if o.Chart == nil {
			return errors.New("chart frame without a chart")
		}
		part, err := dw.w.writeChart(o.Chart)
		if err != nil {
			return err
		}
		rid := dw.rels.AddPart(xlxml.RelChart, part)
		x.OTag("+xdr:graphicFrame").Attr("macro", "")
		x.OTag("xdr:nvGraphicFramePr")
		dw.cNvPr(&o.ObjectProps, "Chart")
		x.OTag("xdr:cNvGraphicFramePr").CTag()
		x.CTag()
		t := o.Xfrm
		if t == nil {
			t = &Transform{}
		}
		x.OTag("xdr:xfrm")
		x.OTag("a:off").Attr("x", t.OffX).Attr("y", t.OffY).CTag()
		x.OTag("a:ext").Attr("cx", t.Cx).Attr("cy", t.Cy).CTag()
		x.CTag()
		x.OTag("a:graphic")
		x.OTag("a:graphicData").Attr("uri", xlxml.NsChart)
		x.OTag("c:chart").Attr("r:id", rid).CTag()
		x.CTag()
		x.CTag()
		x.CTag()
	default:
		return errors.Errorf("%v: drawing object %T", ErrUnsupportedFeature, o)
	}
	return nil
}

// drawingReader decodes one drawing part.
type drawingReader struct {
	ld   *loader
	part string
	rels *opc.Relationships
	r    *xlxml.Reader
}

func (ld *loader) readDrawing(part string) (*Drawing, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	rels, err := ld.pkg.Relationships(part)
	if err != nil {
		return nil, err
	}
	dr := &drawingReader{ld: ld, part: part, rels: rels, r: xlxml.NewReader(part, data)}
	if _, err := dr.r.Root("wsDr"); err != nil {
		return nil, err
	}
	d := &Drawing{}
	var anchors func(name string) error
	anchors = func(name string) error {
		return dr.r.Children(name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				a, err := dr.anchor(ev)
				if err != nil {
					return err
				}
				if a.Object != nil {
					d.Anchors = append(d.Anchors, a)
				}
				return nil
			case "AlternateContent":
				return dr.alternate(ev, anchors)
			}
			return dr.r.Skip()
		})
	}
	if err := anchors("wsDr"); err != nil {
		return nil, err
	}
	return d, nil
}

// alternate descends into the first Choice of a markup-compatibility
// block and skips the fallbacks.
func (dr *drawingReader) alternate(start xlxml.Event, inner func(name string) error) error {
	taken := false
	return dr.r.Children(start.Name, func(ev xlxml.Event) error {
		if taken || (ev.Name != "Choice" && ev.Name != "Fallback") {
			return dr.r.Skip()
		}
		taken = true
		return inner(ev.Name)
	})
}

func (dr *drawingReader) anchor(start xlxml.Event) (*Anchor, error) {
	r := dr.r
	a := &Anchor{EditAs: start.Str("editAs")}
	switch start.Name {
	case "oneCellAnchor":
		a.Kind = OneCellAnchor
	case "absoluteAnchor":
		a.Kind = AbsoluteAnchor
	}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "from":
			m, err := dr.marker(ev)
			a.From = m
			return err
		case "to":
			m, err := dr.marker(ev)
			a.To = m
			return err
		case "pos":
			a.X = ev.Int64("x", 0)
			a.Y = ev.Int64("y", 0)
		case "ext":
			a.Cx = ev.Int64("cx", 0)
			a.Cy = ev.Int64("cy", 0)
		case "AlternateContent":
			return dr.alternate(ev, func(name string) error {
				return r.Children(name, func(ev xlxml.Event) error {
					o, err := dr.object(ev)
					if o != nil && a.Object == nil {
						a.Object = o
					}
					return err
				})
			})
		case "pic", "sp", "cxnSp", "grpSp", "graphicFrame":
			o, err := dr.object(ev)
			if o != nil {
				a.Object = o
			}
			return err
		}
		return r.Skip()
	})
	return a, err
}

func (dr *drawingReader) marker(start xlxml.Event) (Marker, error) {
	var m Marker
	err := dr.r.Children(start.Name, func(ev xlxml.Event) error {
		s, err := dr.r.ReadText()
		if err != nil {
			return err
		}
		n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		switch ev.Name {
		case "col":
			m.Col = int(n) + 1
		case "colOff":
			m.ColOff = n
		case "row":
			m.Row = int(n) + 1
		case "rowOff":
			m.RowOff = n
		}
		return nil
	})
	return m, err
}

// object decodes a drawing object. Unsupported elements yield nil.
func (dr *drawingReader) object(start xlxml.Event) (DrawingObject, error) {
	r := dr.r
	switch start.Name {
	case "pic":
		pic := &Picture{}
		err := r.Children(start.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "nvPicPr":
				return dr.nvProps(ev, &pic.ObjectProps, nil)
			case "blipFill":
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name == "blip" {
						img, err := dr.image(ev.RID("embed"))
						if err != nil {
							return err
						}
						pic.Image = img
					}
					return r.Skip()
				})
			case "spPr":
				return dr.shapeProps(ev, &pic.ObjectProps, nil, nil, nil)
			}
			return r.Skip()
		})
		if err != nil || pic.Image == nil {
			return nil, err
		}
		return pic, nil
	case "sp":
		sh := &Shape{}
		err := r.Children(start.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "nvSpPr":
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					switch ev.Name {
					case "cNvPr":
						dr.cNvPr(ev, &sh.ObjectProps)
					case "cNvSpPr":
						sh.TextBox = ev.Bool("txBox", false)
					}
					return r.Skip()
				})
			case "spPr":
				return dr.shapeProps(ev, &sh.ObjectProps, &sh.Geometry, &sh.FillColor, &sh.LineColor)
			case "txBody":
				text, err := dr.textBody(ev)
				sh.Text = text
				return err
			}
			return r.Skip()
		})
		return sh, err
	case "cxnSp":
		cx := &Connector{}
		err := r.Children(start.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "nvCxnSpPr":
				return dr.nvProps(ev, &cx.ObjectProps, func(ev xlxml.Event) error {
					return r.Children(ev.Name, func(ev xlxml.Event) error {
						switch ev.Name {
						case "stCxn":
							cx.StartID = ev.Int("id", 0)
						case "endCxn":
							cx.EndID = ev.Int("id", 0)
						}
						return r.Skip()
					})
				})
			case "spPr":
				return dr.shapeProps(ev, &cx.ObjectProps, &cx.Geometry, nil, &cx.LineColor)
			}
			return r.Skip()
		})
		return cx, err
	case "grpSp":
		g := &Group{}
		err := r.Children(start.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "nvGrpSpPr":
				return dr.nvProps(ev, &g.ObjectProps, nil)
			case "grpSpPr":
				return dr.shapeProps(ev, &g.ObjectProps, nil, nil, nil)
			case "pic", "sp", "cxnSp", "grpSp", "graphicFrame":
				o, err := dr.object(ev)
				if o != nil {
					g.Objects = append(g.Objects, o)
				}
				return err
			}
			return r.Skip()
		})
		return g, err
	case "graphicFrame":
		cf := &ChartFrame{}
		err := r.Children(start.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "nvGraphicFramePr":
				return dr.nvProps(ev, &cf.ObjectProps, nil)
			case "xfrm":
				t, err := dr.xfrm(ev)
				cf.Xfrm = t
				return err
			case "graphic":
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name != "graphicData" {
						return r.Skip()
					}
					return r.Children(ev.Name, func(ev xlxml.Event) error {
						if ev.Name == "chart" {
							ch, err := dr.chart(ev.RID("id"))
							if err != nil {
								return err
							}
							cf.Chart = ch
						}
						return r.Skip()
					})
				})
			}
			return r.Skip()
		})
		if err != nil || cf.Chart == nil {
			return nil, err
		}
		return cf, nil
	}
	return nil, r.Skip()
}

func (dr *drawingReader) cNvPr(ev xlxml.Event, p *ObjectProps) {
	p.ID = ev.Int("id", 0)
	p.Name = ev.Str("name")
	if i := strings.LastIndexByte(p.Name, ' '); i > 0 {
		if _, err := strconv.Atoi(p.Name[i+1:]); err == nil {
			p.Name = p.Name[:i]
		}
	}
	p.Descr = ev.Str("descr")
}

// nvProps reads a non-visual properties block. extra, when set, handles
// the element that follows cNvPr.
func (dr *drawingReader) nvProps(start xlxml.Event, p *ObjectProps, extra func(ev xlxml.Event) error) error {
	return dr.r.Children(start.Name, func(ev xlxml.Event) error {
		if ev.Name == "cNvPr" {
			dr.cNvPr(ev, p)
			return dr.r.Skip()
		}
		if extra != nil {
			return extra(ev)
		}
		return dr.r.Skip()
	})
}

func (dr *drawingReader) xfrm(start xlxml.Event) (*Transform, error) {
	t := &Transform{
		Rot:   start.Int("rot", 0),
		FlipH: start.Bool("flipH", false),
		FlipV: start.Bool("flipV", false),
	}
	err := dr.r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "off":
			t.OffX, t.OffY = ev.Int64("x", 0), ev.Int64("y", 0)
		case "ext":
			t.Cx, t.Cy = ev.Int64("cx", 0), ev.Int64("cy", 0)
		case "chOff":
			t.ChOffX, t.ChOffY = ev.Int64("x", 0), ev.Int64("y", 0)
		case "chExt":
			t.ChCx, t.ChCy = ev.Int64("cx", 0), ev.Int64("cy", 0)
		}
		return dr.r.Skip()
	})
	return t, err
}

// solidColor reads the color of a solidFill element.
func (dr *drawingReader) solidColor(start xlxml.Event) (*Color, error) {
	var c *Color
	err := dr.r.Children(start.Name, func(ev xlxml.Event) error {
		if c == nil {
			c = parseDrawingColor(ev)
		}
		return dr.r.Skip()
	})
	return c, err
}

func (dr *drawingReader) shapeProps(start xlxml.Event, p *ObjectProps, geom *string, fill, line **Color) error {
	r := dr.r
	return r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "xfrm":
			t, err := dr.xfrm(ev)
			p.Xfrm = t
			return err
		case "prstGeom":
			if geom != nil {
				*geom = ev.Str("prst")
			}
		case "solidFill":
			if fill != nil {
				c, err := dr.solidColor(ev)
				*fill = c
				return err
			}
		case "ln":
			if line != nil {
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name == "solidFill" {
						c, err := dr.solidColor(ev)
						*line = c
						return err
					}
					return r.Skip()
				})
			}
		}
		return r.Skip()
	})
}

func (dr *drawingReader) textBody(start xlxml.Event) (string, error) {
	r := dr.r
	var paras []string
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		if ev.Name != "p" {
			return r.Skip()
		}
		var sb strings.Builder
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name != "r" {
				return r.Skip()
			}
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "t" {
					return r.Skip()
				}
				s, err := r.ReadText()
				sb.WriteString(s)
				return err
			})
		})
		paras = append(paras, sb.String())
		return err
	})
	return strings.Join(paras, "\n"), err
}

func (dr *drawingReader) image(rid string) (*PictureInfo, error) {
	part, ok := dr.rels.Resolve(rid)
	if !ok {
		dr.ld.log.Warn("dangling image relationship")
		return nil, nil
	}
	return dr.ld.readImage(part)
}

func (dr *drawingReader) chart(rid string) (*Chart, error) {
	part, ok := dr.rels.Resolve(rid)
	if !ok {
		dr.ld.log.Warn("dangling chart relationship")
		return nil, nil
	}
	return dr.ld.readChart(part)
}
