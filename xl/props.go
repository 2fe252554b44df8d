package xl

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/adnsv/go-xlsx/xlxml"
)

// Properties are the document properties stored under docProps/.
type Properties struct {
	// core
	Creator        string
	LastModifiedBy string
	Title          string
	Subject        string
	Keywords       string
	Description    string
	Category       string
	Created        time.Time
	Modified       time.Time

	// extended
	Application string
	AppVersion  string
	Company     string
	Manager     string

	Custom []CustomProperty
}

// CustomProperty is a user-defined property. Value is a string, bool,
// int, float64 or time.Time.
type CustomProperty struct {
	Name  string
	Value any
}

// SetCustom adds or replaces a custom property.
func (p *Properties) SetCustom(name string, value any) error {
	switch value.(type) {
	case string, bool, int, float64, time.Time:
	default:
		return errors.Wrapf(ErrUnsupportedFeature, "custom property of type %T", value)
	}
	for i := range p.Custom {
		if p.Custom[i].Name == name {
			p.Custom[i].Value = value
			return nil
		}
	}
	p.Custom = append(p.Custom, CustomProperty{Name: name, Value: value})
	return nil
}

// CustomValue returns a custom property value or nil.
func (p *Properties) CustomValue(name string) any {
	for _, c := range p.Custom {
		if c.Name == name {
			return c.Value
		}
	}
	return nil
}

const w3cdtf = "2006-01-02T15:04:05Z"

func coreBytes(p *Properties, now time.Time) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("cp:coreProperties")
	x.Attr("xmlns:cp", xlxml.NsCoreProps)
	x.Attr("xmlns:dc", xlxml.NsDC)
	x.Attr("xmlns:dcterms", xlxml.NsDCTerms)
	x.Attr("xmlns:dcmitype", xlxml.NsDCMIType)
	x.Attr("xmlns:xsi", xlxml.NsXSI)

	if p.Title != "" {
		x.OTag("+dc:title").String(p.Title).CTag()
	}
	if p.Subject != "" {
		x.OTag("+dc:subject").String(p.Subject).CTag()
	}
	if p.Creator != "" {
		x.OTag("+dc:creator").String(p.Creator).CTag()
	}
	if p.Keywords != "" {
		x.OTag("+cp:keywords").String(p.Keywords).CTag()
	}
	if p.Description != "" {
		x.OTag("+dc:description").String(p.Description).CTag()
	}
	if p.LastModifiedBy != "" {
		x.OTag("+cp:lastModifiedBy").String(p.LastModifiedBy).CTag()
	}

	created, modified := p.Created, p.Modified
	if created.IsZero() {
		created = now
	}
	if modified.IsZero() {
		modified = now
	}
	x.OTag("+dcterms:created")
	x.Attr("xsi:type", "dcterms:W3CDTF")
	x.Write(created.UTC().Format(w3cdtf))
	x.CTag()
	x.OTag("+dcterms:modified")
	x.Attr("xsi:type", "dcterms:W3CDTF")
	x.Write(modified.UTC().Format(w3cdtf))
	x.CTag()

	if p.Category != "" {
		x.OTag("+cp:category").String(p.Category).CTag()
	}

	x.CTag()
	return bb.Bytes()
}

func appBytes(p *Properties, appname string) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("Properties")
	x.Attr("xmlns", xlxml.NsExtProps)
	x.Attr("xmlns:vt", xlxml.NsVTypes)

	if p.Application != "" {
		appname = p.Application
	}
	if appname != "" {
		x.OTag("+Application").String(appname).CTag()
	}
	if p.Manager != "" {
		x.OTag("+Manager").String(p.Manager).CTag()
	}
	if p.Company != "" {
		x.OTag("+Company").String(p.Company).CTag()
	}
	if p.AppVersion != "" {
		x.OTag("+AppVersion").String(p.AppVersion).CTag()
	}

	x.CTag()
	return bb.Bytes()
}

// customBytes emits docProps/custom.xml. Property ids start at 2.
func customBytes(props []CustomProperty) []byte {
	bb := bytes.Buffer{}
	x := xlxml.NewWriter(&bb)
	x.XmlStandaloneDecl()

	x.OTag("Properties")
	x.Attr("xmlns", xlxml.NsCustomProps)
	x.Attr("xmlns:vt", xlxml.NsVTypes)

	for i, p := range props {
		x.OTag("+property").Attr("fmtid", "{D5CDD505-2E9C-101B-9397-08002B2CF9AE}").
			Attr("pid", i+2).Attr("name", p.Name)
		switch v := p.Value.(type) {
		case bool:
			x.OTag("vt:bool").Write(strconv.FormatBool(v)).CTag()
		case int:
			x.OTag("vt:i4").Write(v).CTag()
		case float64:
			x.OTag("vt:r8").Write(xlxml.Float(v)).CTag()
		case time.Time:
			x.OTag("vt:filetime").Write(v.UTC().Format(w3cdtf)).CTag()
		default:
			x.OTag("vt:lpwstr").String(toString(v)).CTag()
		}
		x.CTag()
	}

	x.CTag()
	return bb.Bytes()
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func parseW3CDTF(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, w3cdtf, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseCoreProps fills the core fields of p.
func parseCoreProps(name string, data []byte, p *Properties) error {
	r := xlxml.NewReader(name, data)
	root, err := r.Root("coreProperties")
	if err != nil {
		return err
	}
	return r.Children(root.Name, func(ev xlxml.Event) error {
		field := ev.Name
		s, err := r.ReadText()
		if err != nil {
			return err
		}
		switch field {
		case "creator":
			p.Creator = s
		case "lastModifiedBy":
			p.LastModifiedBy = s
		case "title":
			p.Title = s
		case "subject":
			p.Subject = s
		case "keywords":
			p.Keywords = s
		case "description":
			p.Description = s
		case "category":
			p.Category = s
		case "created":
			p.Created = parseW3CDTF(s)
		case "modified":
			p.Modified = parseW3CDTF(s)
		}
		return nil
	})
}

// parseAppProps fills the extended fields of p.
func parseAppProps(name string, data []byte, p *Properties) error {
	r := xlxml.NewReader(name, data)
	root, err := r.Root("Properties")
	if err != nil {
		return err
	}
	return r.Children(root.Name, func(ev xlxml.Event) error {
		field := ev.Name
		s, err := r.ReadText()
		if err != nil {
			return err
		}
		switch field {
		case "Application":
			p.Application = s
		case "AppVersion":
			p.AppVersion = s
		case "Company":
			p.Company = s
		case "Manager":
			p.Manager = s
		}
		return nil
	})
}

// parseCustomProps reads docProps/custom.xml. Values of unknown variant
// types are kept as text.
func parseCustomProps(name string, data []byte, p *Properties) error {
	r := xlxml.NewReader(name, data)
	root, err := r.Root("Properties")
	if err != nil {
		return err
	}
	return r.Children(root.Name, func(ev xlxml.Event) error {
		if ev.Name != "property" {
			return r.Skip()
		}
		cp := CustomProperty{Name: ev.Str("name")}
		err := r.Children(ev.Name, func(ev xlxml.Event) error {
			typ := ev.Name
			s, err := r.ReadText()
			if err != nil {
				return err
			}
			switch typ {
			case "bool":
				cp.Value = xlxml.ParseBool(s, false)
			case "i1", "i2", "i4", "i8", "int", "ui1", "ui2", "ui4", "ui8", "uint":
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil {
					cp.Value = s
				} else {
					cp.Value = n
				}
			case "r4", "r8", "decimal":
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					cp.Value = s
				} else {
					cp.Value = f
				}
			case "filetime", "date":
				cp.Value = parseW3CDTF(s)
			default:
				cp.Value = s
			}
			return nil
		})
		if cp.Name != "" {
			p.Custom = append(p.Custom, cp)
		}
		return err
	})
}
