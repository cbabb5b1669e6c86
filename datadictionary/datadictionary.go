// Package datadictionary loads the XML schema that drives field
// validation, message structure, and repeating-group parsing, and answers
// the O(1)-expected queries the Validator and Message constructor need.
package datadictionary

import (
	"fmt"
	"strings"

	"github.com/qyangdu/gofix/fix/tag"
)

// HeaderMsgType and TrailerMsgType are the sentinel parent-msgtype keys
// used for groups declared directly inside <header> or <trailer> rather
// than inside a <message>.
const (
	HeaderMsgType  = "_header_"
	TrailerMsgType = "_trailer_"
)

// FieldDef describes one <field> declaration: its wire type and, when
// present, its set of allowed enum values.
type FieldDef struct {
	Tag     tag.Tag
	Name    string
	Type    FieldType
	Enums   map[string]string // enum value -> description
	HasEnum bool
}

// AllowedValue reports whether value is a legal enum token for this field.
// Multi-value fields split on space and require every token to be allowed.
func (f *FieldDef) AllowedValue(value string) bool {
	if !f.HasEnum {
		return true
	}
	if f.Type == TypeMultipleValueString {
		for _, tok := range strings.Fields(value) {
			if _, ok := f.Enums[tok]; !ok {
				return false
			}
		}
		return true
	}
	_, ok := f.Enums[value]
	return ok
}

// GroupDef describes one repeating group: its delimiter (the leading tag
// of every occurrence), the full ordered set of member tags (used as the
// comparator for occurrence FieldMaps), which of those are required, and
// any nested groups keyed by their own count tag.
type GroupDef struct {
	CountTag  tag.Tag
	Delimiter tag.Tag
	Order     []tag.Tag
	Required  map[tag.Tag]bool
	Nested    map[tag.Tag]*GroupDef
}

// MessageDef describes one <message>: its allowed and required field sets
// and the repeating groups declared (directly or via component) within it.
type MessageDef struct {
	MsgType  string
	Name     string
	Fields   map[tag.Tag]bool
	Required map[tag.Tag]bool
	Groups   map[tag.Tag]*GroupDef
}

// Checks is the bitset of validation classes a Dictionary enables. All
// default to true.
type Checks struct {
	FieldsOutOfOrder  bool
	FieldsHaveValues  bool
	UserDefinedFields bool
	RequiredFields    bool
	UnknownFields     bool
	UnknownMsgType    bool
}

// DefaultChecks returns a Checks value with every class enabled.
func DefaultChecks() Checks {
	return Checks{true, true, true, true, true, true}
}

// Dictionary is an immutable-after-load FIX schema: known fields and their
// types/enums, the message catalog with per-type allowed/required field
// sets, header/trailer field membership, and the repeating-group shapes
// (addressed by parent msgtype + count tag, forming a DAG of leaf
// references rather than an ownership tree of deep copies).
type Dictionary struct {
	Version string // e.g. "FIX.4.2" or "FIXT.1.1"
	IsFIXT  bool

	fields     map[tag.Tag]*FieldDef
	fieldsByName map[string]tag.Tag
	messages   map[string]*MessageDef

	headerFields  map[tag.Tag]bool
	headerRequired map[tag.Tag]bool
	headerGroups  map[tag.Tag]*GroupDef

	trailerFields  map[tag.Tag]bool
	trailerRequired map[tag.Tag]bool
	trailerGroups  map[tag.Tag]*GroupDef

	Checks Checks
}

func newDictionary() *Dictionary {
	return &Dictionary{
		fields:          make(map[tag.Tag]*FieldDef),
		fieldsByName:    make(map[string]tag.Tag),
		messages:        make(map[string]*MessageDef),
		headerFields:    make(map[tag.Tag]bool),
		headerRequired:  make(map[tag.Tag]bool),
		headerGroups:    make(map[tag.Tag]*GroupDef),
		trailerFields:   make(map[tag.Tag]bool),
		trailerRequired: make(map[tag.Tag]bool),
		trailerGroups:   make(map[tag.Tag]*GroupDef),
		Checks:          DefaultChecks(),
	}
}

// IsField reports whether tag t is declared anywhere in the dictionary.
func (d *Dictionary) IsField(t tag.Tag) bool {
	_, ok := d.fields[t]
	return ok
}

// FieldType returns t's declared wire type.
func (d *Dictionary) FieldType(t tag.Tag) (FieldType, bool) {
	f, ok := d.fields[t]
	if !ok {
		return TypeString, false
	}
	return f.Type, true
}

// FieldDefinition returns the full FieldDef for tag t.
func (d *Dictionary) FieldDefinition(t tag.Tag) (*FieldDef, bool) {
	f, ok := d.fields[t]
	return f, ok
}

// FieldByName resolves a <field name="..."> to its tag number.
func (d *Dictionary) FieldByName(name string) (tag.Tag, bool) {
	t, ok := d.fieldsByName[name]
	return t, ok
}

// IsMsgType reports whether msgType is declared in the message catalog.
func (d *Dictionary) IsMsgType(msgType string) bool {
	_, ok := d.messages[msgType]
	return ok
}

// Message returns the MessageDef for msgType.
func (d *Dictionary) Message(msgType string) (*MessageDef, bool) {
	m, ok := d.messages[msgType]
	return m, ok
}

// IsMsgField reports whether tag t is legal in a message of type msgType.
func (d *Dictionary) IsMsgField(msgType string, t tag.Tag) bool {
	m, ok := d.messages[msgType]
	if !ok {
		return false
	}
	return m.Fields[t]
}

// IsRequired reports whether tag t is required in a message of type
// msgType.
func (d *Dictionary) IsRequired(msgType string, t tag.Tag) bool {
	m, ok := d.messages[msgType]
	if !ok {
		return false
	}
	return m.Required[t]
}

// IsHeaderField reports whether tag t is a dictionary-declared header
// field (in addition to the hardcoded standard header in package tag).
func (d *Dictionary) IsHeaderField(t tag.Tag) bool { return d.headerFields[t] }

// IsHeaderRequired reports whether header field t is required.
func (d *Dictionary) IsHeaderRequired(t tag.Tag) bool { return d.headerRequired[t] }

// IsTrailerField reports whether tag t is a dictionary-declared trailer
// field (in addition to the hardcoded standard trailer in package tag).
func (d *Dictionary) IsTrailerField(t tag.Tag) bool { return d.trailerFields[t] }

// IsTrailerRequired reports whether trailer field t is required.
func (d *Dictionary) IsTrailerRequired(t tag.Tag) bool { return d.trailerRequired[t] }

// HeaderRequiredTags returns the dictionary's required-flag map for
// header fields, keyed by tag.
func (d *Dictionary) HeaderRequiredTags() map[tag.Tag]bool { return d.headerRequired }

// TrailerRequiredTags returns the dictionary's required-flag map for
// trailer fields, keyed by tag.
func (d *Dictionary) TrailerRequiredTags() map[tag.Tag]bool { return d.trailerRequired }

// IsDataField reports whether tag t has wire type DATA.
func (d *Dictionary) IsDataField(t tag.Tag) bool {
	f, ok := d.fields[t]
	return ok && f.Type == TypeData
}

// IsMultiValueField reports whether tag t has wire type
// MultipleValueString.
func (d *Dictionary) IsMultiValueField(t tag.Tag) bool {
	f, ok := d.fields[t]
	return ok && f.Type == TypeMultipleValueString
}

// FieldHasEnum reports whether tag t declares an enumerated value set.
func (d *Dictionary) FieldHasEnum(t tag.Tag) bool {
	f, ok := d.fields[t]
	return ok && f.HasEnum
}

// EnumAllowed reports whether value is a legal value for tag t.
func (d *Dictionary) EnumAllowed(t tag.Tag, value string) bool {
	f, ok := d.fields[t]
	if !ok {
		return true
	}
	return f.AllowedValue(value)
}

// GroupKey addresses one repeating-group declaration by its parent
// msgtype (or HeaderMsgType/TrailerMsgType) and count tag.
type GroupKey struct {
	ParentMsgType string
	CountTag      tag.Tag
}

// GroupInfo returns the GroupDef (whose Delimiter holds the delimiter tag)
// for the repeating group named by key, if one is declared.
func (d *Dictionary) GroupInfo(key GroupKey) (*GroupDef, bool) {
	switch key.ParentMsgType {
	case HeaderMsgType:
		g, ok := d.headerGroups[key.CountTag]
		return g, ok
	case TrailerMsgType:
		g, ok := d.trailerGroups[key.CountTag]
		return g, ok
	default:
		m, ok := d.messages[key.ParentMsgType]
		if !ok {
			return nil, false
		}
		g, ok := m.Groups[key.CountTag]
		return g, ok
	}
}

// IsUserDefined reports whether tag t falls in the user-defined field
// range (>= tag.UserDefinedFieldMin).
func IsUserDefined(t tag.Tag) bool { return t >= tag.UserDefinedFieldMin }

func (d *Dictionary) String() string {
	return fmt.Sprintf("Dictionary(%s, %d fields, %d message types)", d.Version, len(d.fields), len(d.messages))
}
