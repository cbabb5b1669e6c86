package fix

import (
	"time"

	"github.com/qyangdu/gofix/fix/tag"
)

// Field is a renderable (tag, value) pair. Concrete Field implementations
// are produced by the NewXxxField constructors below and consumed by a
// FieldMap's Set/Add methods; the FieldMap owns turning them into the
// cached-metrics representation described by the wire codec.
type Field interface {
	FieldTag() tag.Tag
	FieldBytes() []byte
}

// FieldValue is a typed field converter: GetField locates the raw bytes for
// a tag and calls FromBytes to parse them into the concrete Go type the
// caller asked for; SetField calls ToBytes to render a value back to wire
// bytes when building an outgoing field from a Go value rather than from a
// preconstructed Field.
type FieldValue interface {
	FromBytes(raw []byte) error
	ToBytes() []byte
}

type baseField struct {
	t tag.Tag
	b []byte
}

func (f baseField) FieldTag() tag.Tag  { return f.t }
func (f baseField) FieldBytes() []byte { return f.b }

// StringField is a Field holding raw string bytes.
type StringField struct{ baseField }

// NewStringField constructs a Field from a string value.
func NewStringField(t tag.Tag, v string) *StringField {
	return &StringField{baseField{t, []byte(v)}}
}

// IntField is a Field holding an int rendered in FIX Int wire form.
type IntField struct{ baseField }

// NewIntField constructs a Field from an int value.
func NewIntField(t tag.Tag, v int) *IntField {
	return &IntField{baseField{t, GenerateInt(v)}}
}

// UIntField is a Field holding a non-negative count or length.
type UIntField struct{ baseField }

// NewUIntField constructs a Field from a uint32 value.
func NewUIntField(t tag.Tag, v uint32) *UIntField {
	return &UIntField{baseField{t, GenerateUInt(v)}}
}

// BoolField is a Field holding 'Y'/'N'.
type BoolField struct{ baseField }

// NewBoolField constructs a Field from a bool value.
func NewBoolField(t tag.Tag, v bool) *BoolField {
	return &BoolField{baseField{t, GenerateBool(v)}}
}

// CharField is a Field holding a single printable byte.
type CharField struct{ baseField }

// NewCharField constructs a Field from a byte value.
func NewCharField(t tag.Tag, v byte) *CharField {
	return &CharField{baseField{t, GenerateChar(v)}}
}

// DoubleField is a Field holding a fixed-precision decimal.
type DoubleField struct{ baseField }

// NewDoubleField constructs a Field from a float64, padded to the given
// number of fractional digits.
func NewDoubleField(t tag.Tag, v float64, padding int) *DoubleField {
	return &DoubleField{baseField{t, GenerateDouble(v, padding)}}
}

// UTCTimestampField is a Field holding a UTC date+time.
type UTCTimestampField struct{ baseField }

// NewUTCTimestampField constructs a Field from a time.Time, rendered with
// or without millisecond precision.
func NewUTCTimestampField(t tag.Tag, v time.Time, millis bool) *UTCTimestampField {
	return &UTCTimestampField{baseField{t, GenerateUTCTimestamp(v, millis)}}
}

// UTCDateOnlyField is a Field holding a UTC date.
type UTCDateOnlyField struct{ baseField }

// NewUTCDateOnlyField constructs a Field from a time.Time.
func NewUTCDateOnlyField(t tag.Tag, v time.Time) *UTCDateOnlyField {
	return &UTCDateOnlyField{baseField{t, GenerateUTCDateOnly(v)}}
}

// DataField is a Field whose bytes may contain raw SOH bytes; it is always
// preceded in a FieldMap by a length field naming its byte count.
type DataField struct{ baseField }

// NewDataField constructs a Field from raw, possibly-SOH-containing bytes.
func NewDataField(t tag.Tag, v []byte) *DataField {
	cp := make([]byte, len(v))
	copy(cp, v)
	return &DataField{baseField{t, cp}}
}

// NewRawField constructs a Field directly from bytes already in their wire
// form, used to round-trip a parsed value verbatim (e.g. preserving
// leading zeros or case) without reinterpreting it through a typed value.
func NewRawField(t tag.Tag, raw []byte) Field {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return &StringField{baseField{t, cp}}
}

// StringValue reads a field as a string; it never fails.
type StringValue struct{ Value string }

// FromBytes implements FieldValue.
func (v *StringValue) FromBytes(raw []byte) error {
	v.Value = string(raw)
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *StringValue) ToBytes() []byte { return []byte(v.Value) }

// IntValue reads a field as a FIX Int.
type IntValue struct{ Value int }

// FromBytes implements FieldValue.
func (v *IntValue) FromBytes(raw []byte) error {
	n, err := ParseInt(raw)
	if err != nil {
		return err
	}
	v.Value = n
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *IntValue) ToBytes() []byte { return GenerateInt(v.Value) }

// UIntValue reads a field as a non-negative count or length.
type UIntValue struct{ Value uint32 }

// FromBytes implements FieldValue.
func (v *UIntValue) FromBytes(raw []byte) error {
	n, err := ParseUInt(raw)
	if err != nil {
		return err
	}
	v.Value = n
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *UIntValue) ToBytes() []byte { return GenerateUInt(v.Value) }

// BoolValue reads a field as 'Y'/'N'.
type BoolValue struct{ Value bool }

// FromBytes implements FieldValue.
func (v *BoolValue) FromBytes(raw []byte) error {
	b, err := ParseBool(raw)
	if err != nil {
		return err
	}
	v.Value = b
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *BoolValue) ToBytes() []byte { return GenerateBool(v.Value) }

// CharValue reads a field as a single printable byte.
type CharValue struct{ Value byte }

// FromBytes implements FieldValue.
func (v *CharValue) FromBytes(raw []byte) error {
	c, err := ParseChar(raw)
	if err != nil {
		return err
	}
	v.Value = c
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *CharValue) ToBytes() []byte { return GenerateChar(v.Value) }

// DoubleValue reads a field as a fixed-precision decimal.
type DoubleValue struct{ Value float64 }

// FromBytes implements FieldValue.
func (v *DoubleValue) FromBytes(raw []byte) error {
	f, err := ParseDouble(raw)
	if err != nil {
		return err
	}
	v.Value = f
	return nil
}

// ToBytes renders the value back to wire bytes with 2 fractional digits.
func (v *DoubleValue) ToBytes() []byte { return GenerateDouble(v.Value, 2) }

// UTCTimestampValue reads a field as a UTC date+time.
type UTCTimestampValue struct {
	Value  time.Time
	Millis bool
}

// FromBytes implements FieldValue.
func (v *UTCTimestampValue) FromBytes(raw []byte) error {
	t, err := ParseUTCTimestamp(raw)
	if err != nil {
		return err
	}
	v.Value = t
	v.Millis = len(raw) == utcTimestampMillisLen
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *UTCTimestampValue) ToBytes() []byte { return GenerateUTCTimestamp(v.Value, v.Millis) }

// DataValue reads a data field's raw bytes, which may contain SOH.
type DataValue struct{ Value []byte }

// FromBytes implements FieldValue.
func (v *DataValue) FromBytes(raw []byte) error {
	v.Value = append(v.Value[:0], raw...)
	return nil
}

// ToBytes renders the value back to wire bytes.
func (v *DataValue) ToBytes() []byte { return v.Value }
