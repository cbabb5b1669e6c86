package datadictionary

import "github.com/qyangdu/gofix/fix"

// FieldType enumerates the wire-format family a dictionary <field type=...>
// attribute maps to. Several XML type names (PRICE, QTY, AMT, ...) share a
// single Double-family parser/generator pair.
type FieldType int

// Field type families.
const (
	TypeString FieldType = iota
	TypeChar
	TypeInt
	TypeUInt
	TypeDouble
	TypeBoolean
	TypeData
	TypeUTCTimestamp
	TypeUTCDateOnly
	TypeUTCTimeOnly
	TypeMultipleValueString
)

// xmlTypeToFieldType maps the type names used by QuickFIX-family XML
// dictionaries to this engine's reduced set of wire families.
var xmlTypeToFieldType = map[string]FieldType{
	"STRING":           TypeString,
	"CHAR":             TypeChar,
	"INT":              TypeInt,
	"LENGTH":           TypeUInt,
	"NUMINGROUP":       TypeUInt,
	"SEQNUM":           TypeUInt,
	"TAGNUM":           TypeUInt,
	"DAYOFMONTH":       TypeUInt,
	"PRICE":            TypeDouble,
	"PRICEOFFSET":      TypeDouble,
	"AMT":              TypeDouble,
	"QTY":              TypeDouble,
	"FLOAT":            TypeDouble,
	"PERCENTAGE":       TypeDouble,
	"BOOLEAN":          TypeBoolean,
	"DATA":             TypeData,
	"UTCTIMESTAMP":     TypeUTCTimestamp,
	"UTCDATEONLY":      TypeUTCDateOnly,
	"UTCDATE":          TypeUTCDateOnly,
	"UTCTIMEONLY":      TypeUTCTimeOnly,
	"LOCALMKTDATE":     TypeUTCDateOnly,
	"MULTIPLEVALUESTRING": TypeMultipleValueString,
	"MULTIPLESTRINGVALUE": TypeMultipleValueString,
	"MULTIPLECHARVALUE":   TypeMultipleValueString,
	"CURRENCY":         TypeString,
	"EXCHANGE":         TypeString,
	"MONTHYEAR":        TypeString,
	"COUNTRY":          TypeString,
}

// ParseXMLType resolves an XML type attribute to a FieldType, defaulting to
// TypeString for any name this dictionary model doesn't special-case (which
// is always wire-compatible since String accepts any byte sequence without
// embedded SOH).
func ParseXMLType(xmlType string) FieldType {
	if t, ok := xmlTypeToFieldType[xmlType]; ok {
		return t
	}
	return TypeString
}

// Validate reports whether raw is well-formed for this field type,
// delegating to the fix package's converters.
func (t FieldType) Validate(raw []byte) error {
	switch t {
	case TypeInt:
		_, err := fix.ParseInt(raw)
		return err
	case TypeUInt:
		_, err := fix.ParseUInt(raw)
		return err
	case TypeDouble:
		_, err := fix.ParseDouble(raw)
		return err
	case TypeChar:
		_, err := fix.ParseChar(raw)
		return err
	case TypeBoolean:
		_, err := fix.ParseBool(raw)
		return err
	case TypeUTCTimestamp:
		_, err := fix.ParseUTCTimestamp(raw)
		return err
	case TypeUTCDateOnly:
		_, err := fix.ParseUTCDateOnly(raw)
		return err
	case TypeUTCTimeOnly:
		_, err := fix.ParseUTCTimeOnly(raw)
		return err
	default:
		return nil
	}
}
