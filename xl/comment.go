package xl

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/ref"
	"github.com/adnsv/go-xlsx/xlxml"
)

// Comment is a note attached to a cell.
type Comment struct {
	Col, Row int // 1-based cell
	Author   string
	Text     *RichText
	// Visible keeps the note box open.
	Visible bool
	// Box is the on-screen rectangle of the note; a default box next to
	// the cell is used when nil.
	Box *CommentBox
}

// CommentBox is the legacy-drawing anchor of a note: 0-based columns and
// rows with pixel offsets, as stored in x:Anchor.
type CommentBox struct {
	LeftCol, LeftOff     int
	TopRow, TopOff       int
	RightCol, RightOff   int
	BottomRow, BottomOff int
}

// defaultCommentBox places the box to the right of the cell, three
// columns wide and four rows tall.
func defaultCommentBox(col, row int) *CommentBox {
	c, r := col-1, row-1
	top := max(r-1, 0)
	return &CommentBox{
		LeftCol: c + 1, LeftOff: 15,
		TopRow: top, TopOff: 10,
		RightCol: c + 3, RightOff: 15,
		BottomRow: top + 4, BottomOff: 4,
	}
}

func (b *CommentBox) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d, %d, %d",
		b.LeftCol, b.LeftOff, b.TopRow, b.TopOff, b.RightCol, b.RightOff, b.BottomRow, b.BottomOff)
}

func parseCommentBox(s string) *CommentBox {
	f := strings.Split(s, ",")
	if len(f) != 8 {
		return nil
	}
	var v [8]int
	for i, p := range f {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		v[i] = n
	}
	return &CommentBox{v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7]}
}

func (c *Comment) box() *CommentBox {
	if c.Box == nil {
		return defaultCommentBox(c.Col, c.Row)
	}
	return c.Box
}

// commentsBytes emits the comments part. Authors are listed in order of
// first use.
func commentsBytes(comments []*Comment) []byte {
	var authors []string
	authorIDs := map[string]int{}
	for _, c := range comments {
		if _, ok := authorIDs[c.Author]; !ok {
			authorIDs[c.Author] = len(authors)
			authors = append(authors, c.Author)
		}
	}

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("comments")
	x.Attr("xmlns", xlxml.NsMain)

	x.OTag("+authors")
	for _, a := range authors {
		x.OTag("+author").String(a).CTag()
	}
	x.CTag()

	x.OTag("+commentList")
	for _, c := range comments {
		x.OTag("+comment").Attr("ref", ref.CoordinateFromIndex(c.Col, c.Row)).Attr("authorId", authorIDs[c.Author])
		x.OTag("text")
		switch {
		case c.Text == nil:
			writeText(x, "")
		case c.Text.IsPlain():
			writeText(x, c.Text.Text())
		default:
			writeRuns(x, c.Text)
		}
		x.CTag()
		x.CTag()
	}
	x.CTag()

	x.CTag()
	return bb.Bytes()
}

// vmlBytes emits the legacy drawing that positions the note boxes. idmap
// is the shape-id block of the sheet.
func vmlBytes(comments []*Comment, idmap int) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)

	x.OTag("xml")
	x.Attr("xmlns:v", xlxml.NsVML)
	x.Attr("xmlns:o", xlxml.NsOffice)
	x.Attr("xmlns:x", xlxml.NsExcel)

	x.OTag("+o:shapelayout").Attr("v:ext", "edit")
	x.OTag("o:idmap").Attr("v:ext", "edit").Attr("data", idmap).CTag()
	x.CTag()

	x.OTag("+v:shapetype").Attr("id", "_x0000_t202").Attr("coordsize", "21600,21600").
		Attr("o:spt", 202).Attr("path", "m,l,21600r21600,l21600,xe")
	x.OTag("v:stroke").Attr("joinstyle", "miter").CTag()
	x.OTag("v:path").Attr("gradientshapeok", "t").Attr("o:connecttype", "rect").CTag()
	x.CTag()

	for i, c := range comments {
		style := "position:absolute;margin-left:59.25pt;margin-top:1.5pt;width:108pt;height:59.25pt;z-index:" +
			strconv.Itoa(i+1)
		if !c.Visible {
			style += ";visibility:hidden"
		}
		x.OTag("+v:shape").Attr("id", fmt.Sprintf("_x0000_s%d", idmap*1024+i+1)).
			Attr("type", "#_x0000_t202").Attr("style", style).
			Attr("fillcolor", "#ffffe1").Attr("o:insetmode", "auto")
		x.OTag("v:fill").Attr("color2", "#ffffe1").CTag()
		x.OTag("v:shadow").Attr("on", "t").Attr("color", "black").Attr("obscured", "t").CTag()
		x.OTag("v:path").Attr("o:connecttype", "none").CTag()
		x.OTag("v:textbox").Attr("style", "mso-direction-alt:auto")
		x.OTag("div").Attr("style", "text-align:left").CTag()
		x.CTag()
		x.OTag("x:ClientData").Attr("ObjectType", "Note")
		x.OTag("x:MoveWithCells").CTag()
		x.OTag("x:SizeWithCells").CTag()
		x.OTag("x:Anchor").String(c.box().String()).CTag()
		x.OTag("x:AutoFill").String("False").CTag()
		x.OTag("x:Row").Write(c.Row - 1).CTag()
		x.OTag("x:Column").Write(c.Col - 1).CTag()
		if c.Visible {
			x.OTag("x:Visible").CTag()
		}
		x.CTag()
		x.CTag()
	}

	x.CTag()
	return bb.Bytes()
}

// writeComments emits the comments and legacy drawing parts of a sheet and
// returns the rId of the legacy drawing.
func (w *Writer) writeComments(sh *Sheet, sheetIndex int, rels *opc.Relationships) string {
	var part, vml string
	for {
		w.lastComments++
		n := strconv.Itoa(w.lastComments)
		part, vml = "/xl/comments"+n+".xml", "/xl/drawings/vmlDrawing"+n+".vml"
		if !w.out.Has(part) && !w.out.Has(vml) {
			break
		}
	}

	w.out.WritePart(part, commentsBytes(sh.Comments))
	w.out.WritePart(vml, vmlBytes(sh.Comments, sheetIndex+1))
	rels.AddPart(xlxml.RelComments, part)
	return rels.AddPart(xlxml.RelVMLDrawing, vml)
}

// readComments decodes a comments part.
func (ld *loader) readComments(part string) ([]*Comment, error) {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	r := xlxml.NewReader(part, data)
	if _, err := r.Root("comments"); err != nil {
		return nil, err
	}
	var authors []string
	var out []*Comment
	err = r.Children("comments", func(ev xlxml.Event) error {
		switch ev.Name {
		case "authors":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "author" {
					return r.Skip()
				}
				s, err := r.ReadText()
				authors = append(authors, s)
				return err
			})
		case "commentList":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name != "comment" {
					return r.Skip()
				}
				a, err := ref.ParseAddress(ev.Str("ref"))
				if err != nil {
					return r.Errorf("%w: comment ref %q", ErrBadReference, ev.Str("ref"))
				}
				c := &Comment{Col: a.Col, Row: a.Row}
				if id := ev.Int("authorId", -1); id >= 0 && id < len(authors) {
					c.Author = authors[id]
				}
				err = r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name != "text" {
						return r.Skip()
					}
					v, err := parseStringItem(r, ev)
					c.Text = RichTextOf(v)
					return err
				})
				out = append(out, c)
				return err
			})
		}
		return r.Skip()
	})
	return out, err
}

// applyVML copies note boxes and visibility from a legacy drawing onto
// the comments. VML that does not parse as XML is ignored.
func (ld *loader) applyVML(part string, comments []*Comment) {
	ld.own(part)
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		ld.log.Warn("legacy drawing missing")
		return
	}
	byCell := map[[2]int]*Comment{}
	for _, c := range comments {
		byCell[[2]int{c.Col, c.Row}] = c
	}
	r := xlxml.NewReader(part, data)
	if _, err := r.Root(""); err != nil {
		ld.log.Warn("legacy drawing unreadable")
		return
	}
	err = r.Children("xml", func(ev xlxml.Event) error {
		if ev.Name != "shape" {
			return r.Skip()
		}
		var note bool
		var box *CommentBox
		col, row, visible := -1, -1, false
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name != "ClientData" {
				return r.Skip()
			}
			note = ev.Str("ObjectType") == "Note"
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				name := ev.Name
				s, err := r.ReadText()
				if err != nil {
					return err
				}
				switch name {
				case "Anchor":
					box = parseCommentBox(s)
				case "Row":
					row, _ = strconv.Atoi(strings.TrimSpace(s))
				case "Column":
					col, _ = strconv.Atoi(strings.TrimSpace(s))
				case "Visible":
					visible = true
				}
				return nil
			})
		})
		if err != nil {
			return err
		}
		if !note {
			ld.log.Debug("legacy drawing shape dropped")
			return nil
		}
		if c := byCell[[2]int{col + 1, row + 1}]; c != nil {
			c.Box = box
			c.Visible = visible
		}
		return nil
	})
	if err != nil {
		ld.log.Warn("legacy drawing unreadable")
	}
}
