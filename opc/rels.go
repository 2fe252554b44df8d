package opc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/adnsv/go-xlsx/xlxml"
)

// TargetMode distinguishes package-internal targets from external URIs.
type TargetMode int

const (
	Internal TargetMode = iota
	External
)

// Relationship is one directed edge from a source part.
type Relationship struct {
	ID     string
	Type   string
	Target string
	Mode   TargetMode
}

// Relationships is the ordered relationship list of one source part.
// Identifiers assigned by Add are dense and 1-based.
type Relationships struct {
	Source string
	list   []Relationship
}

// NewRelationships starts an empty list for the source part.
func NewRelationships(source string) *Relationships {
	return &Relationships{Source: source}
}

// Add appends an internal relationship and returns its rId.
func (rs *Relationships) Add(typ, target string) string {
	return rs.add(typ, target, Internal)
}

// AddExternal appends a relationship to an external URI.
func (rs *Relationships) AddExternal(typ, target string) string {
	return rs.add(typ, target, External)
}

// AddPart relates the source to an absolute part name, storing the
// target relative to the source directory.
func (rs *Relationships) AddPart(typ, part string) string {
	return rs.add(typ, RelativeTarget(rs.Source, part), Internal)
}

func (rs *Relationships) add(typ, target string, mode TargetMode) string {
	id := "rId" + strconv.Itoa(len(rs.list)+1)
	for rs.ByID(id) != nil {
		id += "_"
	}
	rs.list = append(rs.list, Relationship{ID: id, Type: typ, Target: target, Mode: mode})
	return id
}

// Len is the number of relationships.
func (rs *Relationships) Len() int { return len(rs.list) }

// All returns the relationships in insertion order.
func (rs *Relationships) All() []Relationship { return rs.list }

// ByID looks up a relationship.
func (rs *Relationships) ByID(id string) *Relationship {
	for i := range rs.list {
		if rs.list[i].ID == id {
			return &rs.list[i]
		}
	}
	return nil
}

// ByType returns every relationship of the given type.
func (rs *Relationships) ByType(typ string) []Relationship {
	var out []Relationship
	for _, r := range rs.list {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

// Resolve returns the absolute part name targeted by id.
func (rs *Relationships) Resolve(id string) (string, bool) {
	r := rs.ByID(id)
	if r == nil || r.Mode == External {
		return "", false
	}
	return ResolveTarget(rs.Source, r.Target), true
}

// ParseRelationships decodes a *.rels part. source is the part the
// relationships belong to.
func ParseRelationships(source, name string, data []byte) (*Relationships, error) {
	rs := NewRelationships(source)
	r := xlxml.NewReader(name, data)
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case xlxml.StartTag:
			if ev.Name == "Relationship" {
				rel := Relationship{
					ID:     ev.Str("Id"),
					Type:   ev.Str("Type"),
					Target: ev.Str("Target"),
				}
				if strings.EqualFold(ev.Str("TargetMode"), "External") {
					rel.Mode = External
				}
				rs.list = append(rs.list, rel)
			}
		case xlxml.Eof:
			return rs, nil
		}
	}
}

// Bytes encodes the list as a *.rels part.
func (rs *Relationships) Bytes() []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("Relationships")
	x.Attr("xmlns", xlxml.NsPackageRels)
	for _, r := range rs.list {
		x.OTag("+Relationship").Attr("Id", r.ID).Attr("Type", r.Type).Attr("Target", r.Target)
		if r.Mode == External {
			x.Attr("TargetMode", "External")
		}
		x.CTag()
	}
	x.CTag()
	return bb.Bytes()
}

func (r Relationship) String() string {
	return fmt.Sprintf("%s -> %s", r.ID, r.Target)
}
