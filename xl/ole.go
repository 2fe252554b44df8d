package xl

import (
	"github.com/adnsv/srw/xml"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// OleObject is an embedded object kept as an opaque binary.
type OleObject struct {
	ProgID  string
	ShapeID int
	// Ext is the extension of the embedded part: bin for a compound file,
	// or xlsx, docx and similar for an embedded package.
	Ext  string
	Data []byte
}

func (o *OleObject) isPackage() bool {
	return o.Ext != "" && o.Ext != "bin"
}

// writeOleObjects emits the embedded parts of a sheet and its oleObjects
// element.
func (w *Writer) writeOleObjects(x *xml.Writer, objs []*OleObject, rels *opc.Relationships) {
	x.OTag("+oleObjects")
	for _, o := range objs {
		var rid string
		if o.isPackage() {
			part := w.nextPart(&w.lastOle, "/xl/embeddings/Package", "."+o.Ext)
			w.out.WritePart(part, o.Data)
			rid = rels.AddPart(xlxml.RelPackage, part)
		} else {
			part := w.nextPart(&w.lastOle, "/xl/embeddings/oleObject", ".bin")
			w.out.WritePart(part, o.Data)
			w.out.SetContentType(part, xlxml.TypeOleObject)
			rid = rels.AddPart(xlxml.RelOleObject, part)
		}
		x.OTag("oleObject").Attr("progId", o.ProgID).Attr("shapeId", o.ShapeID).Attr("r:id", rid).CTag()
	}
	x.CTag()
}

// writePrinterSettings stores the printer-settings binary of a sheet and
// returns its rId.
func (w *Writer) writePrinterSettings(data []byte, rels *opc.Relationships) string {
	part := w.nextPart(&w.lastPrinter, "/xl/printerSettings/printerSettings", ".bin")
	w.out.WritePart(part, data)
	return rels.AddPart(xlxml.RelPrinterSetting, part)
}

// readOleObjects decodes an oleObjects element. Markup-compatibility
// blocks contribute their first choice.
func (sr *sheetReader) readOleObjects(start xlxml.Event) error {
	r := sr.r
	var walk func(name string) error
	walk = func(name string) error {
		taken := false
		return r.Children(name, func(ev xlxml.Event) error {
			switch ev.Name {
			case "AlternateContent":
				return walk(ev.Name)
			case "Choice", "Fallback":
				if taken {
					return r.Skip()
				}
				taken = true
				return walk(ev.Name)
			case "oleObject":
				o := &OleObject{ProgID: ev.Str("progId"), ShapeID: ev.Int("shapeId", 0)}
				part, ok := sr.rels.Resolve(ev.RID("id"))
				if !ok {
					sr.ld.log.Warn("dangling embedded object relationship")
					return r.Skip()
				}
				data, err := sr.ld.pkg.ReadPart(part)
				if err != nil {
					return err
				}
				sr.ld.own(part)
				o.Ext = opc.Ext(part)
				o.Data = data
				sr.sh.OleObjects = append(sr.sh.OleObjects, o)
			}
			return r.Skip()
		})
	}
	return walk(start.Name)
}
