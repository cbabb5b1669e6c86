package quickfix

import (
	"bytes"
	"fmt"
	"time"

	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// adminMsgTypes is the set of single-character MsgType values the wire
// spec classifies as administrative (session-layer) rather than
// application messages.
var adminMsgTypes = map[string]bool{
	"0": true, // Heartbeat
	"1": true, // TestRequest
	"2": true, // ResendRequest
	"3": true, // Reject
	"4": true, // SequenceReset
	"5": true, // Logout
	"A": true, // Logon
}

// IsAdminMsgType reports whether msgType names an administrative message.
func IsAdminMsgType(msgType string) bool { return adminMsgTypes[msgType] }

// Message is a FIX Message abstraction: exactly three FieldMaps (header,
// body, trailer) with fixed comparator assignments, plus the raw wire
// bytes and receive-time metadata captured when the message arrived.
type Message struct {
	Header  *FieldMap
	Body    *FieldMap
	Trailer *FieldMap

	// ReceiveTime is the time this message was read from the socket
	// connection. Zero for messages built for sending.
	ReceiveTime time.Time

	// Bytes holds the raw wire bytes: as received, on the receive path,
	// or as rendered by Build, on the send path.
	Bytes []byte

	// InvalidStructure is set when ParseMessage observed a header field
	// after the header was already closed, or a body field after the
	// trailer began. It does not abort parsing; the Validator reports it
	// as a RejectTagOutOfOrder violation.
	InvalidStructure bool

	// declaredGroupCounts records, for each group-count tag seen during
	// ParseMessage, the value the wire actually announced before
	// occurrence parsing overwrote it with the observed count. The
	// Validator uses this to flag NumInGroup mismatches.
	declaredGroupCounts map[tag.Tag]int
}

// NewMessage constructs an empty outgoing Message with BeginString and
// MsgType already set in the header.
func NewMessage(beginString, msgType string) *Message {
	m := &Message{
		Header:  NewHeaderFieldMap(),
		Body:    NewBodyFieldMap(),
		Trailer: NewTrailerFieldMap(),
	}
	m.Header.Set(fix.NewStringField(tag.BeginString, beginString))
	m.Header.Set(fix.NewStringField(tag.MsgType, msgType))
	return m
}

// MsgType returns the header's MsgType value, or "" if unset.
func (m *Message) MsgType() string {
	raw, ok := m.Header.GetRaw(tag.MsgType)
	if !ok {
		return ""
	}
	return string(raw)
}

// BeginString returns the header's BeginString value, or "" if unset.
func (m *Message) BeginString() string {
	raw, ok := m.Header.GetRaw(tag.BeginString)
	if !ok {
		return ""
	}
	return string(raw)
}

// IsAdmin reports whether this message's MsgType is administrative.
func (m *Message) IsAdmin() bool { return IsAdminMsgType(m.MsgType()) }

// DeclaredGroupCount returns the NumInGroup value the wire announced for
// countTag before occurrence parsing recomputed it, and whether a group
// with that count tag was seen at all.
func (m *Message) DeclaredGroupCount(countTag tag.Tag) (int, bool) {
	n, ok := m.declaredGroupCounts[countTag]
	return n, ok
}

// ParseMessage constructs a Message from raw wire bytes bracketed by Frame
// Parser (everything from "8=" through the trailing SOH after the
// checksum). sessionDict governs header/trailer/transport field
// membership; appDict resolves body fields and repeating groups for the
// message's MsgType and may be the same Dictionary as sessionDict for a
// non-FIXT session, or the embedded application dictionary for a FIXT
// session. Either may be nil to parse without dictionary-driven
// classification (header/trailer then fall back to the hardcoded
// tag.IsHeader/IsTrailer sets, and no body field is treated as a group).
func ParseMessage(raw []byte, sessionDict, appDict *datadictionary.Dictionary) (*Message, error) {
	header := NewHeaderFieldMap()
	body := NewBodyFieldMap()
	trailer := NewTrailerFieldMap()

	scanner := newFieldScanner(raw, sessionDict, appDict)
	msg := &Message{Header: header, Body: body, Trailer: trailer, Bytes: raw, declaredGroupCounts: map[tag.Tag]int{}}

	var msgType string
	headerDone := false
	trailerStarted := false

	for !scanner.atEnd() {
		t, ok := scanner.peekTag()
		if !ok {
			break
		}

		isHeader := tag.IsHeader(t) || (sessionDict != nil && sessionDict.IsHeaderField(t))
		isTrailer := !isHeader && (tag.IsTrailer(t) || (sessionDict != nil && sessionDict.IsTrailerField(t)))

		switch {
		case isHeader:
			if headerDone {
				msg.InvalidStructure = true
			}
			f, err := scanner.next()
			if err != nil {
				return nil, err
			}
			addOrSet(header, f)
			if f.tag == tag.MsgType {
				msgType = string(f.value)
			}
		case isTrailer:
			trailerStarted = true
			f, err := scanner.next()
			if err != nil {
				return nil, err
			}
			addOrSet(trailer, f)
		default:
			headerDone = true
			if trailerStarted {
				msg.InvalidStructure = true
			}
			if err := parseBodyField(scanner, body, appDict, msgType, msg.declaredGroupCounts); err != nil {
				return nil, err
			}
		}
	}

	return msg, nil
}

func addOrSet(fm *FieldMap, f rawField) {
	if fm.Has(f.tag) {
		fm.Add(fix.NewRawField(f.tag, f.value))
	} else {
		fm.Set(fix.NewRawField(f.tag, f.value))
	}
}

// parseBodyField consumes one body-level field, resolving it into a
// repeating group when the application dictionary declares this tag as a
// group-count tag for msgType.
func parseBodyField(scanner *fieldScanner, body *FieldMap, appDict *datadictionary.Dictionary, msgType string, declared map[tag.Tag]int) error {
	if appDict != nil {
		peek, ok := scanner.peekTag()
		if ok {
			if group, ok := appDict.GroupInfo(datadictionary.GroupKey{ParentMsgType: msgType, CountTag: peek}); ok {
				return parseGroupField(scanner, body, group, declared)
			}
		}
	}
	f, err := scanner.next()
	if err != nil {
		return err
	}
	addOrSet(body, f)
	return nil
}

// parseGroupField consumes a group-count field and then its declared
// number of occurrences, each bounded by the group's member tag set.
func parseGroupField(scanner *fieldScanner, parent *FieldMap, group *datadictionary.GroupDef, declared map[tag.Tag]int) error {
	f, err := scanner.next()
	if err != nil {
		return err
	}
	addOrSet(parent, f)

	count, err := fix.ParseUInt(f.value)
	if err != nil {
		// Malformed count: leave it to the Validator's type check on the
		// count field itself to report the format problem.
		return nil
	}
	declared[f.tag] = int(count)

	for i := 0; i < int(count); i++ {
		peek, ok := scanner.peekTag()
		if !ok || !memberOf(group, peek) {
			break
		}
		occ := NewGroupFieldMap(group.Order)
		if err := parseGroupOccurrence(scanner, occ, group, declared); err != nil {
			return err
		}
		parent.AddGroup(f.tag, occ)
	}
	return nil
}

// parseGroupOccurrence consumes fields belonging to a single group
// occurrence until the next occurrence's delimiter tag reappears or a
// tag outside the group's member set is seen.
func parseGroupOccurrence(scanner *fieldScanner, occ *FieldMap, group *datadictionary.GroupDef, declared map[tag.Tag]int) error {
	first := true
	for !scanner.atEnd() {
		peek, ok := scanner.peekTag()
		if !ok || !memberOf(group, peek) {
			return nil
		}
		if !first && peek == group.Delimiter {
			return nil
		}
		if nested, ok := group.Nested[peek]; ok {
			if err := parseGroupField(scanner, occ, nested, declared); err != nil {
				return err
			}
		} else {
			f, err := scanner.next()
			if err != nil {
				return err
			}
			addOrSet(occ, f)
		}
		first = false
	}
	return nil
}

func memberOf(group *datadictionary.GroupDef, t tag.Tag) bool {
	for _, gt := range group.Order {
		if gt == t {
			return true
		}
	}
	return false
}

// ToWire renders the message to its canonical wire form: BeginString, a
// freshly computed BodyLength, the remaining header fields, the body,
// the trailer minus CheckSum, then CheckSum itself.
func (m *Message) ToWire(buf *bytes.Buffer) error {
	beginRaw, ok := m.Header.GetRaw(tag.BeginString)
	if !ok {
		return fmt.Errorf("message: header missing BeginString")
	}

	bodyLen := m.Header.Length(tag.BeginString, tag.BodyLength) + m.Body.Length() + m.Trailer.Length(tag.CheckSum)

	writeRawField(buf, tag.BeginString, beginRaw)
	writeRawField(buf, tag.BodyLength, fix.GenerateInt(bodyLen))
	m.Header.Write(buf, tag.BeginString, tag.BodyLength)
	m.Body.Write(buf)
	m.Trailer.Write(buf, tag.CheckSum)

	sum := 0
	for _, b := range buf.Bytes() {
		sum += int(b)
	}
	writeRawField(buf, tag.CheckSum, fix.GenerateCheckSum(sum))
	return nil
}

// Build renders the message, caches the result on m.Bytes, and returns it.
func (m *Message) Build() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.ToWire(&buf); err != nil {
		return nil, err
	}
	m.Bytes = buf.Bytes()
	return m.Bytes, nil
}

func writeRawField(buf *bytes.Buffer, t tag.Tag, value []byte) {
	fmt.Fprintf(buf, "%d=", int(t))
	buf.Write(value)
	buf.WriteByte(soh)
}

func (m *Message) String() string { return string(m.Bytes) }

// ReverseRoute produces a MessageBuilder with routing header fields set to
// the reverse of this message's: Sender/Target CompID and SubID swap,
// OnBehalfOf/DeliverTo swap, and, for BeginString >= FIX.4.1, their
// Location-tag variants swap too.
func (m *Message) ReverseRoute() *MessageBuilder {
	b := NewMessageBuilder()

	copyField := func(src, dest tag.Tag) {
		raw, ok := m.Header.GetRaw(src)
		if ok && len(raw) != 0 {
			b.Header().Set(fix.NewRawField(dest, raw))
		}
	}

	copyField(tag.SenderCompID, tag.TargetCompID)
	copyField(tag.SenderSubID, tag.TargetSubID)
	copyField(tag.SenderLocationID, tag.TargetLocationID)

	copyField(tag.TargetCompID, tag.SenderCompID)
	copyField(tag.TargetSubID, tag.SenderSubID)
	copyField(tag.TargetLocationID, tag.SenderLocationID)

	copyField(tag.OnBehalfOfCompID, tag.DeliverToCompID)
	copyField(tag.OnBehalfOfSubID, tag.DeliverToSubID)
	copyField(tag.DeliverToCompID, tag.OnBehalfOfCompID)
	copyField(tag.DeliverToSubID, tag.OnBehalfOfSubID)

	if m.BeginString() != fix.BeginString_FIX40 {
		copyField(tag.OnBehalfOfLocationID, tag.DeliverToLocationID)
		copyField(tag.DeliverToLocationID, tag.OnBehalfOfLocationID)
	}

	return b
}

// MessageBuilder accumulates header/body/trailer fields for an outgoing
// Message before it is finalized with Build.
type MessageBuilder struct {
	header  *FieldMap
	body    *FieldMap
	trailer *FieldMap
}

// NewMessageBuilder constructs an empty MessageBuilder.
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{NewHeaderFieldMap(), NewBodyFieldMap(), NewTrailerFieldMap()}
}

// Header returns the builder's header FieldMap.
func (b *MessageBuilder) Header() *FieldMap { return b.header }

// Body returns the builder's body FieldMap.
func (b *MessageBuilder) Body() *FieldMap { return b.body }

// Trailer returns the builder's trailer FieldMap.
func (b *MessageBuilder) Trailer() *FieldMap { return b.trailer }

// Build finalizes the builder into a Message.
func (b *MessageBuilder) Build() *Message {
	return &Message{Header: b.header, Body: b.body, Trailer: b.trailer}
}
