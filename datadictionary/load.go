package datadictionary

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/qyangdu/gofix/fix/tag"
)

// xmlField mirrors <field name=".." number=".." type=".."> with its nested
// <value enum=".." description=".."> children.
type xmlField struct {
	Name   string     `xml:"name,attr"`
	Number string     `xml:"number,attr"`
	Type   string     `xml:"type,attr"`
	Values []xmlValue `xml:"value"`
}

type xmlValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr"`
}

// xmlMember is decoded manually via xml.Decoder rather than struct tags
// because <header>, <trailer>, <message>, <component> and <group> all
// contain an order-significant, heterogeneous sequence of <field>,
// <group> and <component> children, and <group> nests recursively. A
// token-level walk mirrors the reference DataDictionary.cpp's DOM walk
// directly instead of fighting encoding/xml's struct-tag model.
type xmlMember struct {
	Kind     string // "field", "group", "component"
	Name     string
	Required bool
	Children []xmlMember // only for "group"
}

type xmlDoc struct {
	Type   string
	Major  string
	Minor  string
	Fields []xmlField
	Header []xmlMember
	Trailer []xmlMember
	Components map[string][]xmlMember
	Messages []xmlMessage
}

type xmlMessage struct {
	MsgType  string
	Name     string
	Members  []xmlMember
}

// Load parses an XML data dictionary document of the shape described in
// the wire spec's Data Dictionary section and returns an immutable
// Dictionary.
func Load(r io.Reader) (*Dictionary, error) {
	doc, err := decodeXMLDoc(r)
	if err != nil {
		return nil, err
	}
	return build(doc)
}

func decodeXMLDoc(r io.Reader) (*xmlDoc, error) {
	dec := xml.NewDecoder(r)
	doc := &xmlDoc{Components: make(map[string][]xmlMember)}

	var sawFix bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data dictionary: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "fix" {
			continue
		}
		sawFix = true
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "type":
				doc.Type = a.Value
			case "major":
				doc.Major = a.Value
			case "minor":
				doc.Minor = a.Value
			}
		}
		if err := decodeFixChildren(dec, doc); err != nil {
			return nil, err
		}
	}
	if !sawFix {
		return nil, fmt.Errorf("data dictionary: no <fix> root element found")
	}
	if doc.Type == "" {
		doc.Type = "FIX"
	}
	if doc.Major == "" {
		return nil, fmt.Errorf("data dictionary: major attribute not found on <fix>")
	}
	if doc.Minor == "" {
		return nil, fmt.Errorf("data dictionary: minor attribute not found on <fix>")
	}
	return doc, nil
}

func decodeFixChildren(dec *xml.Decoder, doc *xmlDoc) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "fields":
				fields, err := decodeFields(dec)
				if err != nil {
					return err
				}
				doc.Fields = fields
			case "header":
				members, err := decodeMembers(dec, "header")
				if err != nil {
					return err
				}
				doc.Header = members
			case "trailer":
				members, err := decodeMembers(dec, "trailer")
				if err != nil {
					return err
				}
				doc.Trailer = members
			case "components":
				if err := decodeComponents(dec, doc); err != nil {
					return err
				}
			case "messages":
				msgs, err := decodeMessages(dec)
				if err != nil {
					return err
				}
				doc.Messages = msgs
			default:
				if err := skipElement(dec); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "fix" {
				return nil
			}
		}
	}
}

func decodeFields(dec *xml.Decoder) ([]xmlField, error) {
	var out []xmlField
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "field" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			f := xmlField{}
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "name":
					f.Name = a.Value
				case "number":
					f.Number = a.Value
				case "type":
					f.Type = a.Value
				}
			}
			values, err := decodeFieldValues(dec)
			if err != nil {
				return nil, err
			}
			f.Values = values
			out = append(out, f)
		case xml.EndElement:
			if t.Name.Local == "fields" {
				return out, nil
			}
		}
	}
}

func decodeFieldValues(dec *xml.Decoder) ([]xmlValue, error) {
	var out []xmlValue
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "value" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			v := xmlValue{}
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "enum":
					v.Enum = a.Value
				case "description":
					v.Description = a.Value
				}
			}
			out = append(out, v)
			if err := skipElement(dec); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local == "field" {
				return out, nil
			}
		}
	}
}

// decodeMembers reads an ordered sequence of <field>/<group>/<component>
// children until the closing tag named closeName.
func decodeMembers(dec *xml.Decoder, closeName string) ([]xmlMember, error) {
	var out []xmlMember
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			m, err := decodeMember(dec, t)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		case xml.EndElement:
			if t.Name.Local == closeName {
				return out, nil
			}
		}
	}
}

func decodeMember(dec *xml.Decoder, start xml.StartElement) (xmlMember, error) {
	m := xmlMember{Kind: start.Name.Local}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "name":
			m.Name = a.Value
		case "required":
			m.Required = a.Value == "Y" || a.Value == "y"
		}
	}
	switch start.Name.Local {
	case "group":
		children, err := decodeMembers(dec, "group")
		if err != nil {
			return m, err
		}
		m.Children = children
	case "field", "component":
		if err := skipElement(dec); err != nil {
			return m, err
		}
	default:
		if err := skipElement(dec); err != nil {
			return m, err
		}
	}
	return m, nil
}

func decodeComponents(dec *xml.Decoder, doc *xmlDoc) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "component" {
				if err := skipElement(dec); err != nil {
					return err
				}
				continue
			}
			var name string
			for _, a := range t.Attr {
				if a.Name.Local == "name" {
					name = a.Value
				}
			}
			members, err := decodeMembers(dec, "component")
			if err != nil {
				return err
			}
			doc.Components[name] = members
		case xml.EndElement:
			if t.Name.Local == "components" {
				return nil
			}
		}
	}
}

func decodeMessages(dec *xml.Decoder) ([]xmlMessage, error) {
	var out []xmlMessage
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("data dictionary: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "message" {
				if err := skipElement(dec); err != nil {
					return nil, err
				}
				continue
			}
			msg := xmlMessage{}
			for _, a := range t.Attr {
				switch a.Name.Local {
				case "msgtype":
					msg.MsgType = a.Value
				case "name":
					msg.Name = a.Value
				}
			}
			members, err := decodeMembers(dec, "message")
			if err != nil {
				return nil, err
			}
			msg.Members = members
			out = append(out, msg)
		case xml.EndElement:
			if t.Name.Local == "messages" {
				return out, nil
			}
		}
	}
}

func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("data dictionary: %w", err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// build turns a parsed xmlDoc into an immutable Dictionary, resolving
// component references outside <group> declarations by textual inlining
// and converting <group> declarations into nested GroupDef instances.
func build(doc *xmlDoc) (*Dictionary, error) {
	d := newDictionary()
	d.IsFIXT = doc.Type == "FIXT"
	d.Version = doc.Type + "." + doc.Major + "." + doc.Minor

	for _, xf := range doc.Fields {
		num, err := strconv.Atoi(xf.Number)
		if err != nil {
			return nil, fmt.Errorf("data dictionary: field %s has invalid number %q", xf.Name, xf.Number)
		}
		t := tag.Tag(num)
		fd := &FieldDef{Tag: t, Name: xf.Name, Type: ParseXMLType(xf.Type)}
		if len(xf.Values) > 0 {
			fd.HasEnum = true
			fd.Enums = make(map[string]string, len(xf.Values))
			for _, v := range xf.Values {
				fd.Enums[v.Enum] = v.Description
			}
		}
		d.fields[t] = fd
		d.fieldsByName[xf.Name] = t
	}

	resolve := func(name string) (tag.Tag, error) {
		t, ok := d.fieldsByName[name]
		if !ok {
			return 0, fmt.Errorf("data dictionary: field %q not defined in <fields>", name)
		}
		return t, nil
	}

	loadSet := func(members []xmlMember, parentMsgType string) (map[tag.Tag]bool, map[tag.Tag]bool, map[tag.Tag]*GroupDef, error) {
		fields := make(map[tag.Tag]bool)
		required := make(map[tag.Tag]bool)
		groups := make(map[tag.Tag]*GroupDef)
		var walk func([]xmlMember, bool) error
		walk = func(members []xmlMember, inheritedRequired bool) error {
			for _, m := range members {
				switch m.Kind {
				case "field":
					t, err := resolve(m.Name)
					if err != nil {
						return err
					}
					fields[t] = true
					if m.Required && inheritedRequired {
						required[t] = true
					}
				case "group":
					t, err := resolve(m.Name)
					if err != nil {
						return err
					}
					fields[t] = true
					if m.Required {
						required[t] = true
					}
					g, err := buildGroup(t, m, resolve)
					if err != nil {
						return err
					}
					groups[t] = g
					for gt := range flattenGroupTags(g) {
						fields[gt] = true
					}
				case "component":
					children, ok := doc.Components[m.Name]
					if !ok {
						return fmt.Errorf("data dictionary: component %q not found", m.Name)
					}
					if err := walk(children, m.Required); err != nil {
						return err
					}
				}
			}
			return nil
		}
		if err := walk(members, true); err != nil {
			return nil, nil, nil, err
		}
		return fields, required, groups, nil
	}

	needsHeaderTrailer := d.IsFIXT || doc.Major < "5"
	if needsHeaderTrailer {
		hf, hr, hg, err := loadSet(doc.Header, HeaderMsgType)
		if err != nil {
			return nil, err
		}
		d.headerFields, d.headerRequired, d.headerGroups = hf, hr, hg

		tf, tr, tg, err := loadSet(doc.Trailer, TrailerMsgType)
		if err != nil {
			return nil, err
		}
		d.trailerFields, d.trailerRequired, d.trailerGroups = tf, tr, tg
	}

	for _, xm := range doc.Messages {
		fields, required, groups, err := loadSet(xm.Members, xm.MsgType)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", xm.MsgType, err)
		}
		d.messages[xm.MsgType] = &MessageDef{
			MsgType:  xm.MsgType,
			Name:     xm.Name,
			Fields:   fields,
			Required: required,
			Groups:   groups,
		}
	}

	return d, nil
}

// buildGroup converts one <group> xmlMember (whose own Name resolves to
// the NumInGroup count tag) into a GroupDef. The group's delimiter is its
// first member tag, per the wire spec. Only <field> and <group> children
// are read: a <component> reference inside a group is not inlined, so its
// fields are not part of the GroupDef.
func buildGroup(countTag tag.Tag, m xmlMember, resolve func(string) (tag.Tag, error)) (*GroupDef, error) {
	g := &GroupDef{
		CountTag: countTag,
		Required: make(map[tag.Tag]bool),
		Nested:   make(map[tag.Tag]*GroupDef),
	}
	for _, child := range m.Children {
		switch child.Kind {
		case "field":
			t, err := resolve(child.Name)
			if err != nil {
				return nil, err
			}
			if len(g.Order) == 0 {
				g.Delimiter = t
			}
			g.Order = append(g.Order, t)
			if child.Required {
				g.Required[t] = true
			}
		case "group":
			t, err := resolve(child.Name)
			if err != nil {
				return nil, err
			}
			if len(g.Order) == 0 {
				g.Delimiter = t
			}
			g.Order = append(g.Order, t)
			if child.Required {
				g.Required[t] = true
			}
			nested, err := buildGroup(t, child, resolve)
			if err != nil {
				return nil, err
			}
			g.Nested[t] = nested
		}
	}
	return g, nil
}

// flattenGroupTags returns the set of every tag reachable inside g
// (including nested groups), used so a group's member tags are also
// recognized as "in this message" for the IsMsgField/UnknownFields checks.
func flattenGroupTags(g *GroupDef) map[tag.Tag]bool {
	out := make(map[tag.Tag]bool)
	for _, t := range g.Order {
		out[t] = true
	}
	for _, nested := range g.Nested {
		for t := range flattenGroupTags(nested) {
			out[t] = true
		}
	}
	return out
}
