package xl

import (
	"bytes"
	"strings"

	"github.com/adnsv/srw/xml"
	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/xlxml"
)

// ChartType selects the plot of a chart.
type ChartType string

const (
	ChartLine     ChartType = "line"
	ChartBar      ChartType = "bar"
	ChartPie      ChartType = "pie"
	ChartScatter  ChartType = "scatter"
	ChartArea     ChartType = "area"
	ChartBubble   ChartType = "bubble"
	ChartRadar    ChartType = "radar"
	ChartDoughnut ChartType = "doughnut"
)

// Chart is a single-plot chart whose series reference worksheet ranges.
type Chart struct {
	Type  ChartType
	Title string
	// BarDirection is col (vertical bars, default) or bar.
	BarDirection string
	// Grouping is clustered, stacked, percentStacked or standard.
	Grouping   string
	VaryColors bool
	Series     []*ChartSeries
	// Legend is nil for a chart without legend.
	Legend *ChartLegend
	XAxis  *ChartAxis
	YAxis  *ChartAxis
	// HoleSize is the doughnut hole in percent.
	HoleSize     int
	ScatterStyle string
	RadarStyle   string
}

// ChartSeries is one data series. References are formulas without "=",
// for example "Sheet1!$B$2:$B$10".
type ChartSeries struct {
	Name        string // literal name, used when NameRef is empty
	NameRef     string
	Categories  string // x values for scatter and bubble charts
	Values      string
	BubbleSizes string
	Color       *Color
	Smooth      bool
}

// ChartLegend places the legend.
type ChartLegend struct {
	Position string // r, l, t, b or tr
	Overlay  bool
}

// ChartAxis holds the options of one axis.
type ChartAxis struct {
	Title          string
	Min, Max       *float64
	Delete         bool
	MajorGridlines bool
	NumFmt         string
}

// NewChart returns a chart with a right-hand legend.
func NewChart(typ ChartType, title string) *Chart {
	return &Chart{Type: typ, Title: title, Legend: &ChartLegend{Position: "r"}}
}

// AddSeries appends a series reading values (and categories) from the
// workbook.
func (ch *Chart) AddSeries(nameRef, categories, values string) *ChartSeries {
	s := &ChartSeries{
		NameRef:    strings.TrimPrefix(nameRef, "="),
		Categories: strings.TrimPrefix(categories, "="),
		Values:     strings.TrimPrefix(values, "="),
	}
	ch.Series = append(ch.Series, s)
	return s
}

func (ch *Chart) rewriteRefs(fn func(string) string) {
	for _, s := range ch.Series {
		for _, p := range []*string{&s.NameRef, &s.Categories, &s.Values, &s.BubbleSizes} {
			if *p != "" {
				*p = fn(*p)
			}
		}
	}
}

func (ch *Chart) hasAxes() bool {
	return ch.Type != ChartPie && ch.Type != ChartDoughnut
}

// xyChart reports charts that plot two value axes.
func (ch *Chart) xyChart() bool {
	return ch.Type == ChartScatter || ch.Type == ChartBubble
}

func (ch *Chart) grouping() string {
	if ch.Grouping != "" {
		return ch.Grouping
	}
	if ch.Type == ChartBar {
		return "clustered"
	}
	return "standard"
}

const (
	chartAxisX = 500000001
	chartAxisY = 500000002
)

type chartWriter struct {
	x *xml.Writer
}

// rich emits a c:tx/c:rich text body.
func (cw chartWriter) rich(text string) {
	x := cw.x
	x.OTag("c:tx")
	x.OTag("c:rich")
	x.OTag("a:bodyPr").CTag()
	x.OTag("a:lstStyle").CTag()
	x.OTag("a:p")
	x.OTag("a:r")
	x.OTag("a:t").String(text).CTag()
	x.CTag()
	x.CTag()
	x.CTag()
	x.CTag()
}

func (cw chartWriter) title(text string) {
	cw.x.OTag("c:title")
	cw.rich(text)
	cw.x.OTag("c:overlay").Attr("val", 0).CTag()
	cw.x.CTag()
}

// dataRef emits a numRef or strRef wrapper around a formula.
func (cw chartWriter) dataRef(num bool, f string) {
	x := cw.x
	if num {
		x.OTag("c:numRef")
	} else {
		x.OTag("c:strRef")
	}
	x.OTag("c:f").String(f).CTag()
	x.CTag()
}

// Bytes emits the chart part.
func (ch *Chart) Bytes() ([]byte, error) {
	switch ch.Type {
	case ChartLine, ChartBar, ChartPie, ChartScatter, ChartArea, ChartBubble, ChartRadar, ChartDoughnut:
	default:
		return nil, errors.Errorf("%v: chart type %q", ErrUnsupportedFeature, ch.Type)
	}

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	cw := chartWriter{x}
	x.XmlStandaloneDecl()

	x.OTag("c:chartSpace")
	x.Attr("xmlns:c", xlxml.NsChart)
	x.Attr("xmlns:a", xlxml.NsDrawing)
	x.Attr("xmlns:r", xlxml.NsRelationships)

	cw.x.OTag("c:roundedCorners").Attr("val", 0).CTag()
	x.OTag("+c:chart")
	if ch.Title != "" {
		cw.title(ch.Title)
		cw.x.OTag("c:autoTitleDeleted").Attr("val", 0).CTag()
	} else {
		cw.x.OTag("c:autoTitleDeleted").Attr("val", 1).CTag()
	}

	x.OTag("+c:plotArea")
	x.OTag("c:layout").CTag()
	ch.writePlot(cw)
	if ch.hasAxes() {
		ch.writeAxes(cw)
	}
	x.CTag() // plotArea

	if ch.Legend != nil {
		x.OTag("+c:legend")
		pos := ch.Legend.Position
		if pos == "" {
			pos = "r"
		}
		cw.x.OTag("c:legendPos").Attr("val", pos).CTag()
		cw.x.OTag("c:overlay").Attr("val", xlxml.Bool(ch.Legend.Overlay)).CTag()
		x.CTag()
	}
	cw.x.OTag("c:plotVisOnly").Attr("val", 1).CTag()
	x.CTag() // chart

	x.CTag() // chartSpace
	return bb.Bytes(), nil
}

func (ch *Chart) writePlot(cw chartWriter) {
	x := cw.x
	switch ch.Type {
	case ChartLine:
		x.OTag("+c:lineChart")
		cw.x.OTag("c:grouping").Attr("val", ch.grouping()).CTag()
	case ChartBar:
		x.OTag("+c:barChart")
		dir := ch.BarDirection
		if dir == "" {
			dir = "col"
		}
		cw.x.OTag("c:barDir").Attr("val", dir).CTag()
		cw.x.OTag("c:grouping").Attr("val", ch.grouping()).CTag()
	case ChartArea:
		x.OTag("+c:areaChart")
		cw.x.OTag("c:grouping").Attr("val", ch.grouping()).CTag()
	case ChartPie:
		x.OTag("+c:pieChart")
	case ChartDoughnut:
		x.OTag("+c:doughnutChart")
	case ChartScatter:
		x.OTag("+c:scatterChart")
		style := ch.ScatterStyle
		if style == "" {
			style = "lineMarker"
		}
		cw.x.OTag("c:scatterStyle").Attr("val", style).CTag()
	case ChartBubble:
		x.OTag("+c:bubbleChart")
	case ChartRadar:
		x.OTag("+c:radarChart")
		style := ch.RadarStyle
		if style == "" {
			style = "marker"
		}
		cw.x.OTag("c:radarStyle").Attr("val", style).CTag()
	}
	cw.x.OTag("c:varyColors").Attr("val", xlxml.Bool(ch.VaryColors)).CTag()

	for i, s := range ch.Series {
		ch.writeSeries(cw, i, s)
	}

	switch ch.Type {
	case ChartBar:
		cw.x.OTag("c:gapWidth").Attr("val", 150).CTag()
		if g := ch.grouping(); g == "stacked" || g == "percentStacked" {
			cw.x.OTag("c:overlap").Attr("val", 100).CTag()
		}
	case ChartLine:
		cw.x.OTag("c:marker").Attr("val", 1).CTag()
	case ChartPie:
		cw.x.OTag("c:firstSliceAng").Attr("val", 0).CTag()
	case ChartDoughnut:
		cw.x.OTag("c:firstSliceAng").Attr("val", 0).CTag()
		hole := ch.HoleSize
		if hole < 10 || hole > 90 {
			hole = 50
		}
		cw.x.OTag("c:holeSize").Attr("val", hole).CTag()
	case ChartBubble:
		cw.x.OTag("c:bubble3D").Attr("val", 0).CTag()
	}
	if ch.hasAxes() {
		cw.x.OTag("c:axId").Attr("val", chartAxisX).CTag()
		cw.x.OTag("c:axId").Attr("val", chartAxisY).CTag()
	}
	x.CTag()
}

func (ch *Chart) writeSeries(cw chartWriter, i int, s *ChartSeries) {
	x := cw.x
	x.OTag("+c:ser")
	cw.x.OTag("c:idx").Attr("val", i).CTag()
	cw.x.OTag("c:order").Attr("val", i).CTag()
	switch {
	case s.NameRef != "":
		x.OTag("c:tx")
		cw.dataRef(false, s.NameRef)
		x.CTag()
	case s.Name != "":
		x.OTag("c:tx")
		x.OTag("c:v").String(s.Name).CTag()
		x.CTag()
	}
	if s.Color != nil {
		x.OTag("c:spPr")
		if ch.Type == ChartLine || ch.Type == ChartScatter || ch.Type == ChartRadar {
			x.OTag("a:ln")
			x.OTag("a:solidFill")
			writeDrawingColor(x, s.Color)
			x.CTag()
			x.CTag()
		} else {
			x.OTag("a:solidFill")
			writeDrawingColor(x, s.Color)
			x.CTag()
		}
		x.CTag()
	}
	switch ch.Type {
	case ChartBar, ChartBubble:
		x.OTag("c:invertIfNegative").Attr("val", 0).CTag()
	case ChartLine, ChartScatter, ChartRadar:
		x.OTag("c:marker")
		cw.x.OTag("c:symbol").Attr("val", "none").CTag()
		x.CTag()
	}
	if ch.xyChart() {
		if s.Categories != "" {
			x.OTag("c:xVal")
			cw.dataRef(true, s.Categories)
			x.CTag()
		}
		x.OTag("c:yVal")
		cw.dataRef(true, s.Values)
		x.CTag()
	} else {
		if s.Categories != "" {
			x.OTag("c:cat")
			cw.dataRef(false, s.Categories)
			x.CTag()
		}
		x.OTag("c:val")
		cw.dataRef(true, s.Values)
		x.CTag()
	}
	switch ch.Type {
	case ChartBubble:
		if s.BubbleSizes != "" {
			x.OTag("c:bubbleSize")
			cw.dataRef(true, s.BubbleSizes)
			x.CTag()
		}
		cw.x.OTag("c:bubble3D").Attr("val", 0).CTag()
	case ChartLine, ChartScatter:
		cw.x.OTag("c:smooth").Attr("val", xlxml.Bool(s.Smooth)).CTag()
	}
	x.CTag()
}

func (ch *Chart) writeAxes(cw chartWriter) {
	xa, ya := ch.XAxis, ch.YAxis
	if xa == nil {
		xa = &ChartAxis{}
	}
	if ya == nil {
		ya = &ChartAxis{MajorGridlines: true}
	}
	xPos, yPos := "b", "l"
	if ch.Type == ChartBar && ch.BarDirection == "bar" {
		xPos, yPos = "l", "b"
	}
	if ch.xyChart() {
		ch.writeAxis(cw, false, chartAxisX, chartAxisY, xPos, xa)
	} else {
		ch.writeAxis(cw, true, chartAxisX, chartAxisY, xPos, xa)
	}
	ch.writeAxis(cw, false, chartAxisY, chartAxisX, yPos, ya)
}

func (ch *Chart) writeAxis(cw chartWriter, category bool, id, cross int, pos string, a *ChartAxis) {
	x := cw.x
	if category {
		x.OTag("+c:catAx")
	} else {
		x.OTag("+c:valAx")
	}
	cw.x.OTag("c:axId").Attr("val", id).CTag()
	x.OTag("c:scaling")
	cw.x.OTag("c:orientation").Attr("val", "minMax").CTag()
	if a.Max != nil {
		cw.x.OTag("c:max").Attr("val", xlxml.Float(*a.Max)).CTag()
	}
	if a.Min != nil {
		cw.x.OTag("c:min").Attr("val", xlxml.Float(*a.Min)).CTag()
	}
	x.CTag()
	cw.x.OTag("c:delete").Attr("val", xlxml.Bool(a.Delete)).CTag()
	cw.x.OTag("c:axPos").Attr("val", pos).CTag()
	if a.MajorGridlines {
		x.OTag("c:majorGridlines").CTag()
	}
	if a.Title != "" {
		cw.title(a.Title)
	}
	if a.NumFmt != "" {
		x.OTag("c:numFmt").Attr("formatCode", a.NumFmt).Attr("sourceLinked", 0).CTag()
	}
	cw.x.OTag("c:majorTickMark").Attr("val", "out").CTag()
	cw.x.OTag("c:minorTickMark").Attr("val", "none").CTag()
	cw.x.OTag("c:tickLblPos").Attr("val", "nextTo").CTag()
	cw.x.OTag("c:crossAx").Attr("val", cross).CTag()
	cw.x.OTag("c:crosses").Attr("val", "autoZero").CTag()
	if category {
		cw.x.OTag("c:auto").Attr("val", 1).CTag()
		cw.x.OTag("c:lblAlgn").Attr("val", "ctr").CTag()
		cw.x.OTag("c:lblOffset").Attr("val", 100).CTag()
		cw.x.OTag("c:noMultiLvlLbl").Attr("val", 0).CTag()
	} else {
		between := "between"
		if ch.xyChart() {
			between = "midCat"
		}
		cw.x.OTag("c:crossBetween").Attr("val", between).CTag()
	}
	x.CTag()
}

// writeChart emits a chart part and returns its name.
func (w *Writer) writeChart(ch *Chart) (string, error) {
	data, err := ch.Bytes()
	if err != nil {
		return "", err
	}
	part := w.nextPart(&w.lastChart, "/xl/charts/chart", ".xml")
	w.out.WritePart(part, data)
	return part, nil
}

var chartPlots = map[string]ChartType{
	"lineChart":     ChartLine,
	"line3DChart":   ChartLine,
	"barChart":      ChartBar,
	"bar3DChart":    ChartBar,
	"pieChart":      ChartPie,
	"pie3DChart":    ChartPie,
	"scatterChart":  ChartScatter,
	"areaChart":     ChartArea,
	"area3DChart":   ChartArea,
	"bubbleChart":   ChartBubble,
	"radarChart":    ChartRadar,
	"doughnutChart": ChartDoughnut,
}

func (ld *loader) readChart(part string) (*Chart, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	ch, err := parseChart(part, data)
	if err != nil {
		return nil, err
	}
	if ch.Type == "" {
		ld.log.Warn("chart without a supported plot")
	}
	return ch, nil
}

// parseChart decodes a chart part. Only the first plot of a combination
// chart is kept.
func parseChart(name string, data []byte) (*Chart, error) {
	r := xlxml.NewReader(name, data)
	if _, err := r.Root("chartSpace"); err != nil {
		return nil, err
	}
	ch := &Chart{}
	var axes []*ChartAxis
	err := r.Children("chartSpace", func(ev xlxml.Event) error {
		if ev.Name != "chart" {
			return r.Skip()
		}
		return r.Children(ev.Name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "title":
				t, err := parseChartTitle(r, ev)
				ch.Title = t
				return err
			case "legend":
				ch.Legend = &ChartLegend{Position: "r"}
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					switch ev.Name {
					case "legendPos":
						ch.Legend.Position = ev.Str("val")
					case "overlay":
						ch.Legend.Overlay = ev.Bool("val", true)
					}
					return r.Skip()
				})
			case "plotArea":
				return r.Children(ev.Name, func(ev xlxml.Event) error {
					if typ, ok := chartPlots[ev.Name]; ok {
						if ch.Type != "" {
							return r.Skip()
						}
						ch.Type = typ
						return parsePlot(r, ev, ch)
					}
					switch ev.Name {
					case "catAx", "valAx", "dateAx":
						a, err := parseChartAxis(r, ev)
						axes = append(axes, a)
						return err
					}
					return r.Skip()
				})
			}
			return r.Skip()
		})
	})
	if err != nil {
		return nil, err
	}
	if len(axes) > 0 {
		ch.XAxis = axes[0]
	}
	if len(axes) > 1 {
		ch.YAxis = axes[1]
	}
	return ch, nil
}

func parseChartTitle(r *xlxml.Reader, start xlxml.Event) (string, error) {
	var sb strings.Builder
	var walk func(name string) error
	walk = func(name string) error {
		return r.Children(name, func(ev xlxml.Event) error {
			if ev.Name == "t" {
				s, err := r.ReadText()
				sb.WriteString(s)
				return err
			}
			switch ev.Name {
			case "tx", "rich", "p", "r":
				return walk(ev.Name)
			}
			return r.Skip()
		})
	}
	err := walk(start.Name)
	return sb.String(), err
}

func parsePlot(r *xlxml.Reader, start xlxml.Event, ch *Chart) error {
	return r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "barDir":
			ch.BarDirection = ev.Str("val")
		case "grouping":
			ch.Grouping = ev.Str("val")
		case "varyColors":
			ch.VaryColors = ev.Bool("val", true)
		case "holeSize":
			ch.HoleSize = ev.Int("val", 50)
		case "scatterStyle":
			ch.ScatterStyle = ev.Str("val")
		case "radarStyle":
			ch.RadarStyle = ev.Str("val")
		case "ser":
			s, err := parseSeries(r, ev)
			if s != nil {
				ch.Series = append(ch.Series, s)
			}
			return err
		}
		return r.Skip()
	})
}

func parseSeries(r *xlxml.Reader, start xlxml.Event) (*ChartSeries, error) {
	s := &ChartSeries{}
	// formula reads the c:f below a data source element
	formula := func(name string) (string, error) {
		var f, lit string
		var walk func(name string) error
		walk = func(name string) error {
			return r.Children(name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "f":
					t, err := r.ReadText()
					f = t
					return err
				case "v":
					t, err := r.ReadText()
					if lit == "" {
						lit = t
					}
					return err
				case "numRef", "strRef", "multiLvlStrRef", "strCache", "numCache", "pt":
					return walk(ev.Name)
				}
				return r.Skip()
			})
		}
		err := walk(name)
		if f == "" && name == "tx" {
			s.Name = lit
		}
		return f, err
	}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		var err error
		switch ev.Name {
		case "tx":
			s.NameRef, err = formula(ev.Name)
		case "cat", "xVal":
			s.Categories, err = formula(ev.Name)
		case "val", "yVal":
			s.Values, err = formula(ev.Name)
		case "bubbleSize":
			s.BubbleSizes, err = formula(ev.Name)
		case "smooth":
			s.Smooth = ev.Bool("val", true)
			return r.Skip()
		case "spPr":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "solidFill":
					return chartColor(r, ev, &s.Color)
				case "ln":
					return r.Children(ev.Name, func(ev xlxml.Event) error {
						if ev.Name == "solidFill" {
							return chartColor(r, ev, &s.Color)
						}
						return r.Skip()
					})
				}
				return r.Skip()
			})
		default:
			return r.Skip()
		}
		return err
	})
	return s, err
}

func chartColor(r *xlxml.Reader, start xlxml.Event, c **Color) error {
	return r.Children(start.Name, func(ev xlxml.Event) error {
		if *c == nil {
			*c = parseDrawingColor(ev)
		}
		return r.Skip()
	})
}

func parseChartAxis(r *xlxml.Reader, start xlxml.Event) (*ChartAxis, error) {
	a := &ChartAxis{}
	err := r.Children(start.Name, func(ev xlxml.Event) error {
		switch ev.Name {
		case "scaling":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				switch ev.Name {
				case "max":
					v := ev.Float("val", 0)
					a.Max = &v
				case "min":
					v := ev.Float("val", 0)
					a.Min = &v
				}
				return r.Skip()
			})
		case "delete":
			a.Delete = ev.Bool("val", true)
		case "majorGridlines":
			a.MajorGridlines = true
		case "numFmt":
			if !ev.Bool("sourceLinked", false) {
				a.NumFmt = ev.Str("formatCode")
			}
		case "title":
			t, err := parseChartTitle(r, ev)
			a.Title = t
			return err
		}
		return r.Skip()
	})
	return a, err
}
