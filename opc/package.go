// Package opc implements the Open Packaging Conventions layer of a
// spreadsheet package: named parts, the content-type manifest and the
// per-part relationship graphs.
package opc

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

const ContentTypesPart = "/[Content_Types].xml"

// Package is an in-memory set of parts. Part names are absolute
// ("/xl/workbook.xml").
type Package struct {
	parts map[string][]byte
	order []string

	Types *ContentTypes
}

// New returns an empty package.
func New() *Package {
	return &Package{
		parts: map[string][]byte{},
		Types: NewContentTypes(),
	}
}

// Open reads every entry of a ZIP container. XML is not parsed; the
// content-type manifest is decoded when present.
func Open(r io.ReaderAt, size int64) (*Package, error) {
	z, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(ErrIO, err.Error())
	}
	p := New()
	for _, f := range z.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(ErrIO, "%s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(ErrIO, "%s: %v", f.Name, err)
		}
		p.WritePart(f.Name, data)
	}
	if data, ok := p.parts[ContentTypesPart]; ok {
		ct, err := ParseContentTypes(ContentTypesPart, data)
		if err != nil {
			return nil, err
		}
		p.Types = ct
		p.Remove(ContentTypesPart)
	}
	return p, nil
}

// OpenBytes is Open over an in-memory container.
func OpenBytes(data []byte) (*Package, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// Has reports whether the part exists.
func (p *Package) Has(name string) bool {
	_, ok := p.parts[Abs(name)]
	return ok
}

// ReadPart returns the bytes of a part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	data, ok := p.parts[Abs(name)]
	if !ok {
		return nil, errors.Wrap(ErrPartMissing, Abs(name))
	}
	return data, nil
}

// WritePart inserts or replaces a part.
func (p *Package) WritePart(name string, data []byte) {
	name = Abs(name)
	if _, ok := p.parts[name]; !ok {
		p.order = append(p.order, name)
	}
	p.parts[name] = data
}

// Remove deletes a part if present.
func (p *Package) Remove(name string) {
	name = Abs(name)
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.order {
		if n == name {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// Parts lists part names in insertion order.
func (p *Package) Parts() []string {
	return append([]string(nil), p.order...)
}

// SortedParts lists part names alphabetically.
func (p *Package) SortedParts() []string {
	names := p.Parts()
	sort.Strings(names)
	return names
}

// Size returns the byte length of a part, or -1.
func (p *Package) Size(name string) int {
	data, ok := p.parts[Abs(name)]
	if !ok {
		return -1
	}
	return len(data)
}

// Relationships decodes the relationship part of source. A missing
// relationship part yields an empty list.
func (p *Package) Relationships(source string) (*Relationships, error) {
	name := RelsPath(source)
	data, ok := p.parts[name]
	if !ok {
		return NewRelationships(source), nil
	}
	return ParseRelationships(source, name, data)
}

// SetRelationships stores the relationship part of rs.Source. Empty lists
// remove the part.
func (p *Package) SetRelationships(rs *Relationships) {
	name := RelsPath(rs.Source)
	if rs.Len() == 0 {
		p.Remove(name)
		return
	}
	p.WritePart(name, rs.Bytes())
}

// SetContentType pins the content type of a part, overriding the dispatch
// table.
func (p *Package) SetContentType(name, typ string) {
	p.Types.Overrides[Abs(name)] = typ
}

// Finalize resolves a content type for every part and writes the manifest
// followed by all parts to out.
func (p *Package) Finalize(out Storage, backup map[string]string) error {
	for _, name := range p.order {
		p.Types.Assign(name, backup)
	}
	if err := out.WriteBlob(ContentTypesPart, p.Types.Bytes()); err != nil {
		return err
	}
	for _, name := range p.order {
		if err := out.WriteBlob(name, p.parts[name]); err != nil {
			return err
		}
	}
	return nil
}

// ContentTypeMap resolves the recorded content type of every part. It is
// the backup list a writer uses to round-trip parts it does not model.
func (p *Package) ContentTypeMap() map[string]string {
	m := make(map[string]string, len(p.order))
	for _, name := range p.order {
		if t := p.Types.Lookup(name); t != "" {
			m[name] = t
		}
	}
	return m
}
