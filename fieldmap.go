package quickfix

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

const soh = 0x01

// ErrFieldNotFound is returned by GetField when the requested tag is not
// present in the FieldMap.
var ErrFieldNotFound = errors.New("field not found")

// ordering selects one of the three comparators a FieldMap can be built
// with. A FieldMap's ordering is fixed at construction and never changes.
type ordering int

const (
	orderBody ordering = iota
	orderHeader
	orderTrailer
	orderGroup
)

// wireField is a single (tag, raw value bytes) pair together with its
// lazily computed, mutation-invalidated wire metrics: length of
// "tag=value<SOH>" and the arithmetic byte sum of that same span.
type wireField struct {
	tag   tag.Tag
	value []byte

	computed bool
	rendered []byte
	length   int
	sum      int
}

func newWireField(t tag.Tag, value []byte) *wireField {
	return &wireField{tag: t, value: value}
}

func (f *wireField) ensure() {
	if f.computed {
		return
	}
	tagStr := strconv.Itoa(int(f.tag))
	buf := make([]byte, 0, len(tagStr)+1+len(f.value)+1)
	buf = append(buf, tagStr...)
	buf = append(buf, '=')
	buf = append(buf, f.value...)
	buf = append(buf, soh)
	sum := 0
	for _, b := range buf {
		sum += int(b)
	}
	f.rendered = buf
	f.length = len(buf)
	f.sum = sum
	f.computed = true
}

// Length returns the wire length of "tag=value<SOH>".
func (f *wireField) Length() int {
	f.ensure()
	return f.length
}

// Total returns the arithmetic byte sum of "tag=value<SOH>".
func (f *wireField) Total() int {
	f.ensure()
	return f.sum
}

func (f *wireField) writeTo(buf *bytes.Buffer) {
	f.ensure()
	buf.Write(f.rendered)
}

// FieldMap is an ordered multimap from tag to field value, plus a parallel
// mapping from tag to an ordered list of nested FieldMaps (repeating
// groups). Its key order is fixed at construction by one of three
// comparators: header, trailer, or body/group.
type FieldMap struct {
	kind       ordering
	groupOrder []tag.Tag // only set when kind == orderGroup

	tags   []tag.Tag // current tag set, kept sorted per comparator
	values map[tag.Tag][]*wireField
	groups map[tag.Tag][]*FieldMap
}

func newFieldMap(kind ordering) *FieldMap {
	return &FieldMap{
		kind:   kind,
		values: make(map[tag.Tag][]*wireField),
		groups: make(map[tag.Tag][]*FieldMap),
	}
}

// NewBodyFieldMap constructs a FieldMap using the body comparator
// (ascending tag order).
func NewBodyFieldMap() *FieldMap { return newFieldMap(orderBody) }

// NewHeaderFieldMap constructs a FieldMap using the header comparator.
func NewHeaderFieldMap() *FieldMap { return newFieldMap(orderHeader) }

// NewTrailerFieldMap constructs a FieldMap using the trailer comparator.
func NewTrailerFieldMap() *FieldMap { return newFieldMap(orderTrailer) }

// NewGroupFieldMap constructs a FieldMap representing one repeating-group
// occurrence, ordered per the dictionary-supplied tag list.
func NewGroupFieldMap(order []tag.Tag) *FieldMap {
	fm := newFieldMap(orderGroup)
	fm.groupOrder = order
	return fm
}

// less reports whether tag a sorts before tag b under this FieldMap's
// comparator.
func (fm *FieldMap) less(a, b tag.Tag) bool {
	switch fm.kind {
	case orderHeader:
		ra, rb := headerRank(a), headerRank(b)
		if ra != rb {
			return ra < rb
		}
		return a < b
	case orderTrailer:
		ra, rb := trailerRank(a), trailerRank(b)
		if ra != rb {
			return ra < rb
		}
		return a < b
	case orderGroup:
		ra, rb := fm.groupRank(a), fm.groupRank(b)
		if ra != rb {
			return ra < rb
		}
		return a < b
	default:
		return a < b
	}
}

func headerRank(t tag.Tag) int {
	switch t {
	case tag.BeginString:
		return 0
	case tag.BodyLength:
		return 1
	case tag.MsgType:
		return 2
	default:
		return 3
	}
}

func trailerRank(t tag.Tag) int {
	if t == tag.CheckSum {
		return 1
	}
	return 0
}

func (fm *FieldMap) groupRank(t tag.Tag) int {
	for i, gt := range fm.groupOrder {
		if gt == t {
			return i
		}
	}
	return len(fm.groupOrder)
}

// insert places tag t into the sorted tags slice if it is not already
// present.
func (fm *FieldMap) insert(t tag.Tag) {
	for _, existing := range fm.tags {
		if existing == t {
			return
		}
	}
	i := 0
	for i < len(fm.tags) && fm.less(fm.tags[i], t) {
		i++
	}
	fm.tags = append(fm.tags, 0)
	copy(fm.tags[i+1:], fm.tags[i:])
	fm.tags[i] = t
}

// Set replaces any existing value for f's tag with f.
func (fm *FieldMap) Set(f fix.Field) {
	t := f.FieldTag()
	fm.values[t] = []*wireField{newWireField(t, f.FieldBytes())}
	fm.insert(t)
}

// SetField renders v and sets it at tag t, as Set would for a
// preconstructed Field.
func (fm *FieldMap) SetField(t tag.Tag, v fix.FieldValue) {
	fm.values[t] = []*wireField{newWireField(t, v.ToBytes())}
	fm.insert(t)
}

// Add appends f's value for its tag, permitting a tag to carry more than
// one value. Only Set-created single values are well-formed outgoing
// messages; Add exists so malformed/duplicate-tag input can still be
// represented in storage for validators to flag.
func (fm *FieldMap) Add(f fix.Field) {
	t := f.FieldTag()
	fm.values[t] = append(fm.values[t], newWireField(t, f.FieldBytes()))
	fm.insert(t)
}

// Has reports whether tag t has at least one value.
func (fm *FieldMap) Has(t tag.Tag) bool {
	return len(fm.values[t]) > 0
}

// Count returns the number of values stored for tag t (>1 only for
// malformed/duplicate input captured via Add).
func (fm *FieldMap) Count(t tag.Tag) int {
	return len(fm.values[t])
}

// GetRaw returns the first raw value bytes stored for tag t.
func (fm *FieldMap) GetRaw(t tag.Tag) ([]byte, bool) {
	vs := fm.values[t]
	if len(vs) == 0 {
		return nil, false
	}
	return vs[0].value, true
}

// GetField parses the value stored for tag t into v.
func (fm *FieldMap) GetField(t tag.Tag, v fix.FieldValue) error {
	raw, ok := fm.GetRaw(t)
	if !ok {
		return fmt.Errorf("tag %d: %w", t, ErrFieldNotFound)
	}
	return v.FromBytes(raw)
}

// GetOrError is an alias for GetField kept for parity with the spec's
// get_or_error naming; present for callers that want the explicit name.
func (fm *FieldMap) GetOrError(t tag.Tag, v fix.FieldValue) error { return fm.GetField(t, v) }

// Remove deletes all values stored for tag t.
func (fm *FieldMap) Remove(t tag.Tag) {
	delete(fm.values, t)
	for i, existing := range fm.tags {
		if existing == t {
			fm.tags = append(fm.tags[:i], fm.tags[i+1:]...)
			break
		}
	}
}

// AddGroup appends inner as the next occurrence of the repeating group
// whose count field is countTag, and maintains that count field's value.
func (fm *FieldMap) AddGroup(countTag tag.Tag, inner *FieldMap) *FieldMap {
	fm.groups[countTag] = append(fm.groups[countTag], inner)
	fm.SetField(countTag, &fix.UIntValue{Value: uint32(len(fm.groups[countTag]))})
	return inner
}

// Group returns the num'th (1-based) occurrence of the repeating group
// named by countTag.
func (fm *FieldMap) Group(num int, countTag tag.Tag) (*FieldMap, bool) {
	occurrences := fm.groups[countTag]
	if num < 1 || num > len(occurrences) {
		return nil, false
	}
	return occurrences[num-1], true
}

// GroupCount returns the number of occurrences recorded for countTag's
// repeating group.
func (fm *FieldMap) GroupCount(countTag tag.Tag) uint32 {
	return uint32(len(fm.groups[countTag]))
}

// Tags returns the tags present at this level, in comparator order.
func (fm *FieldMap) Tags() []tag.Tag {
	out := make([]tag.Tag, len(fm.tags))
	copy(out, fm.tags)
	return out
}

// Length sums the wire length of every field at this level and below,
// excluding the listed tags. An excluded tag is skipped together with any
// repeating-group occurrences stored under it; the exclusions apply only
// at this level, not inside nested groups.
func (fm *FieldMap) Length(excluding ...tag.Tag) int {
	skip := tagSet(excluding)
	total := 0
	for _, t := range fm.tags {
		if skip[t] {
			continue
		}
		for _, f := range fm.values[t] {
			total += f.Length()
		}
		for _, g := range fm.groups[t] {
			total += g.Length()
		}
	}
	return total
}

// Total sums the arithmetic byte sum of every field at this level and
// below, excluding the listed tags.
func (fm *FieldMap) Total(excluding ...tag.Tag) int {
	skip := tagSet(excluding)
	total := 0
	for _, t := range fm.tags {
		if skip[t] {
			continue
		}
		for _, f := range fm.values[t] {
			total += f.Total()
		}
		for _, g := range fm.groups[t] {
			total += g.Total()
		}
	}
	return total
}

func tagSet(tags []tag.Tag) map[tag.Tag]bool {
	m := make(map[tag.Tag]bool, len(tags))
	for _, t := range tags {
		m[t] = true
	}
	return m
}

// Write emits every field at this level and below in comparator order,
// excluding the listed tags. Immediately after a group-count tag, every
// occurrence of that group is emitted in order, each recursively by the
// same rule.
func (fm *FieldMap) Write(buf *bytes.Buffer, excluding ...tag.Tag) {
	skip := tagSet(excluding)
	for _, t := range fm.tags {
		if skip[t] {
			continue
		}
		for _, f := range fm.values[t] {
			f.writeTo(buf)
		}
		for _, g := range fm.groups[t] {
			g.Write(buf)
		}
	}
}
