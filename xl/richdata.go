package xl

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/adnsv/srw/xml"

	"github.com/adnsv/go-xlsx/opc"
	"github.com/adnsv/go-xlsx/xlxml"
)

// addMedia stores the blob of p as a media part once per distinct content.
func (w *Writer) addMedia(p *PictureInfo) (*MediaInfo, error) {
	n, err := mediaName(p)
	if err != nil {
		return nil, err
	}
	info, ok := w.mediaMap[n]
	if !ok {
		info = &MediaInfo{Name: n, Blob: p.Blob, IId: -1}
		w.mediaMap[n] = info
		w.out.WritePart("/xl/media/"+n, p.Blob)
	}
	return info, nil
}

// cellPicture registers an in-cell picture and returns its 1-based value
// metadata index.
func (w *Writer) cellPicture(p *PictureInfo) (int, error) {
	info, err := w.addMedia(p)
	if err != nil {
		return 0, err
	}
	if info.IId < 0 {
		info.IId = len(w.cellMedia)
		w.cellMedia = append(w.cellMedia, info)
	}
	return info.IId + 1, nil
}

// writeRichData emits the rich-value parts behind in-cell pictures.
func (w *Writer) writeRichData(bookRels *opc.Relationships) {
	if len(w.cellMedia) == 0 {
		return
	}
	w.writeRichValueRel(bookRels)
	w.writeRichValueStructure(bookRels)
	w.writeRichValueData(bookRels)
	w.writeMetadata(bookRels)
}

func (w *Writer) richPart(bookRels *opc.Relationships, part, relType, contentType string, data []byte) {
	w.out.WritePart(part, data)
	w.out.SetContentType(part, contentType)
	bookRels.AddPart(relType, part)
}

func (w *Writer) writeMetadata(bookRels *opc.Relationships) {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("metadata")
	x.Attr("xmlns", xlxml.NsMain)
	x.Attr("xmlns:xlrd", xlxml.NsRichData)

	x.OTag("+metadataTypes").Attr("count", 1)
	x.OTag("+metadataType")
	x.Attr("name", "XLRICHVALUE")
	x.Attr("minSupportedVersion", "120000")
	for _, s := range []xml.NameString{"copy", "pasteAll", "pasteValues",
		"merge", "splitFirst", "rowColShift", "clearFormats",
		"clearComments", "assign", "coerce"} {
		x.Attr(s, 1)
	}
	x.CTag() // metadataType
	x.CTag() // metadataTypes

	x.OTag("futureMetadata").Attr("name", "XLRICHVALUE").Attr("count", len(w.cellMedia))
	for _, m := range w.cellMedia {
		x.OTag("+bk")
		x.OTag("extLst")
		x.OTag("ext").Attr("uri", "{3e2802c4-a4d2-4d8b-9148-e3be6c30e623}")
		x.OTag("xlrd:rvb").Attr("i", m.IId).CTag()
		x.CTag() // ext
		x.CTag() // extLst
		x.CTag() // bk
	}
	x.CTag() // futureMetadata

	x.OTag("valueMetadata").Attr("count", len(w.cellMedia))
	for _, m := range w.cellMedia {
		x.OTag("+bk")
		x.OTag("rc").Attr("t", 1).Attr("v", m.IId).CTag()
		x.CTag() // bk
	}
	x.CTag() // valueMetadata

	x.CTag() // metadata

	w.richPart(bookRels, "/xl/metadata.xml", xlxml.RelSheetMetadata, xlxml.TypeSheetMetadata, bb.Bytes())
}

func (w *Writer) writeRichValueRel(bookRels *opc.Relationships) {
	part := "/xl/richData/richValueRel.xml"
	rels := opc.NewRelationships(part)

	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("richValueRels")
	x.Attr("xmlns", xlxml.NsRichValueRel)
	x.Attr("xmlns:r", xlxml.NsRelationships)

	for _, m := range w.cellMedia {
		m.RId = rels.AddPart(xlxml.RelImage, "/xl/media/"+m.Name)
		x.OTag("+rel")
		x.Attr("r:id", m.RId)
		x.CTag()
	}

	x.CTag()

	w.richPart(bookRels, part, xlxml.RelRichValueRel, xlxml.TypeRichValueRel, bb.Bytes())
	w.out.SetRelationships(rels)
}

func (w *Writer) writeRichValueStructure(bookRels *opc.Relationships) {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("rvStructures")
	x.Attr("xmlns", xlxml.NsRichData)
	x.Attr("count", 1)

	// define _localImage{Id, CalcOrigin}
	x.OTag("+s").Attr("t", "_localImage")
	x.OTag("+k").Attr("n", "_rvRel:LocalImageIdentifier").Attr("t", "i").CTag()
	x.OTag("+k").Attr("n", "CalcOrigin").Attr("t", "i").CTag()
	x.CTag()

	x.CTag()

	w.richPart(bookRels, "/xl/richData/rdrichvaluestructure.xml",
		xlxml.RelRichStructure, xlxml.TypeRichStructure, bb.Bytes())
}

func (w *Writer) writeRichValueData(bookRels *opc.Relationships) {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("rvData")
	x.Attr("xmlns", xlxml.NsRichData)
	x.Attr("count", len(w.cellMedia))

	for _, m := range w.cellMedia {
		x.OTag("+rv").Attr("s", 0)
		x.OTag("v").Write(m.IId).CTag() // image resource numeric id
		x.OTag("v").Write(5).CTag()
		x.CTag()
	}

	x.CTag()

	w.richPart(bookRels, "/xl/richData/rdrichvalue.xml",
		xlxml.RelRichValue, xlxml.TypeRichValue, bb.Bytes())
}

// readImage loads an image part. Parts shared by several drawings yield
// the same PictureInfo.
func (ld *loader) readImage(part string) (*PictureInfo, error) {
	if p, ok := ld.images[part]; ok {
		return p, nil
	}
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return nil, err
	}
	ld.own(part)
	p := &PictureInfo{Extension: "." + opc.Ext(part), Blob: data}
	ld.images[part] = p
	return p, nil
}

// readRichData resolves the rich values of the workbook into in-cell
// pictures keyed by 1-based value metadata index. Unresolvable entries
// are skipped with a warning.
func (ld *loader) readRichData(bookRels *opc.Relationships) error {
	parts := map[string]string{}
	for _, typ := range []string{xlxml.RelSheetMetadata, xlxml.RelRichValueRel,
		xlxml.RelRichStructure, xlxml.RelRichValue, xlxml.RelRichTypes} {
		for _, rel := range bookRels.ByType(typ) {
			part := opc.ResolveTarget(bookRels.Source, rel.Target)
			parts[typ] = part
			ld.own(part)
		}
	}
	if parts[xlxml.RelSheetMetadata] == "" || parts[xlxml.RelRichValue] == "" {
		return nil
	}

	// value metadata index -> rich value index
	var valueMeta []int
	var futureRV []int
	if err := ld.scanPart(parts[xlxml.RelSheetMetadata], "metadata", func(r *xlxml.Reader, ev xlxml.Event) error {
		switch ev.Name {
		case "futureMetadata":
			if ev.Str("name") != "XLRICHVALUE" {
				return r.Skip()
			}
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				i := -1
				var walk func(name string) error
				walk = func(name string) error {
					return r.Children(name, func(ev xlxml.Event) error {
						if ev.Name == "rvb" {
							i = ev.Int("i", -1)
							return r.Skip()
						}
						return walk(ev.Name)
					})
				}
				err := walk(ev.Name)
				futureRV = append(futureRV, i)
				return err
			})
		case "valueMetadata":
			return r.Children(ev.Name, func(ev xlxml.Event) error {
				v := -1
				err := r.Children(ev.Name, func(ev xlxml.Event) error {
					if ev.Name == "rc" && v < 0 {
						v = ev.Int("v", -1)
					}
					return r.Skip()
				})
				valueMeta = append(valueMeta, v)
				return err
			})
		}
		return r.Skip()
	}); err != nil {
		return err
	}

	// structure index -> position of the image identifier
	var idKey []int
	if part := parts[xlxml.RelRichStructure]; part != "" {
		if err := ld.scanPart(part, "rvStructures", func(r *xlxml.Reader, ev xlxml.Event) error {
			if ev.Name != "s" {
				return r.Skip()
			}
			pos, n := -1, 0
			err := r.Children(ev.Name, func(ev xlxml.Event) error {
				if ev.Name == "k" {
					if ev.Str("n") == "_rvRel:LocalImageIdentifier" {
						pos = n
					}
					n++
				}
				return r.Skip()
			})
			idKey = append(idKey, pos)
			return err
		}); err != nil {
			return err
		}
	}

	// rich value index -> relationship index
	var relIndex []int
	if err := ld.scanPart(parts[xlxml.RelRichValue], "rvData", func(r *xlxml.Reader, ev xlxml.Event) error {
		if ev.Name != "rv" {
			return r.Skip()
		}
		want := 0
		if s := ev.Int("s", 0); s >= 0 && s < len(idKey) {
			want = idKey[s]
		}
		idx, n := -1, 0
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			if ev.Name != "v" {
				return r.Skip()
			}
			s, err := r.ReadText()
			if n == want {
				if v, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil {
					idx = v
				}
			}
			n++
			return err
		})
		relIndex = append(relIndex, idx)
		return err
	}); err != nil {
		return err
	}

	var images []string
	if part := parts[xlxml.RelRichValueRel]; part != "" {
		rels, err := ld.pkg.Relationships(part)
		if err != nil {
			return err
		}
		if err := ld.scanPart(part, "richValueRels", func(r *xlxml.Reader, ev xlxml.Event) error {
			if ev.Name == "rel" {
				target, _ := rels.Resolve(ev.RID("id"))
				images = append(images, target)
			}
			return r.Skip()
		}); err != nil {
			return err
		}
	}

	for vm, rc := range valueMeta {
		if rc < 0 || rc >= len(futureRV) {
			continue
		}
		rv := futureRV[rc]
		if rv < 0 || rv >= len(relIndex) {
			continue
		}
		ri := relIndex[rv]
		if ri < 0 || ri >= len(images) || images[ri] == "" {
			ld.log.Warn("rich value without an image")
			continue
		}
		p, err := ld.readImage(images[ri])
		if err != nil {
			return err
		}
		ld.wb.cellMedia[vm+1] = p
	}
	return nil
}

// scanPart reads a part and hands each child of its root to fn.
func (ld *loader) scanPart(part, root string, fn func(r *xlxml.Reader, ev xlxml.Event) error) error {
	data, err := ld.pkg.ReadPart(part)
	if err != nil {
		return err
	}
	ld.own(part)
	r := xlxml.NewReader(part, data)
	if _, err := r.Root(root); err != nil {
		return err
	}
	return r.Children(root, func(ev xlxml.Event) error {
		return fn(r, ev)
	})
}
