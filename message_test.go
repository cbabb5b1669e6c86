package quickfix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

func TestParseMessageRoundTrip(t *testing.T) {
	m := NewMessage("FIX.4.2", "D")
	m.Header.Set(fix.NewStringField(tag.SenderCompID, "A"))
	m.Header.Set(fix.NewStringField(tag.TargetCompID, "B"))
	m.Header.Set(fix.NewIntField(tag.MsgSeqNum, 5))
	m.Body.Set(fix.NewStringField(tag.Symbol, "IBM"))
	raw, err := m.Build()
	require.NoError(t, err)

	parsed, err := ParseMessage(raw, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "D", parsed.MsgType())
	require.Equal(t, "FIX.4.2", parsed.BeginString())
	require.False(t, parsed.IsAdmin())

	sym, ok := parsed.Body.GetRaw(tag.Symbol)
	require.True(t, ok)
	require.Equal(t, "IBM", string(sym))
}

func TestIsAdminMsgType(t *testing.T) {
	require.True(t, IsAdminMsgType("A"))
	require.True(t, IsAdminMsgType("0"))
	require.False(t, IsAdminMsgType("D"))
	require.False(t, IsAdminMsgType("R"))
}

func TestParseMessageAcceptsBadChecksum(t *testing.T) {
	m := NewMessage("FIX.4.2", "0")
	raw, err := m.Build()
	require.NoError(t, err)

	raw[len(raw)-4] = '9' // corrupt the first checksum digit in place
	_, err = ParseMessage(raw, nil, nil)
	// ParseMessage itself does not validate the checksum value;
	// it should still parse the corrupted bytes as a structurally valid
	// message rather than error.
	require.NoError(t, err)
}

func TestReverseRouteSwapsCompIDs(t *testing.T) {
	m := NewMessage("FIX.4.2", "D")
	m.Header.Set(fix.NewStringField(tag.SenderCompID, "A"))
	m.Header.Set(fix.NewStringField(tag.TargetCompID, "B"))

	reversed := m.ReverseRoute().Build()
	sender, ok := reversed.Header.GetRaw(tag.SenderCompID)
	require.True(t, ok)
	require.Equal(t, "B", string(sender))

	target, ok := reversed.Header.GetRaw(tag.TargetCompID)
	require.True(t, ok)
	require.Equal(t, "A", string(target))
}

const quoteRequestDictXML = `
<fix type="FIX" major="4" minor="2">
  <fields>
    <field name="QuoteReqID" number="131" type="STRING"/>
    <field name="NoRelatedSym" number="146" type="NUMINGROUP"/>
    <field name="Symbol" number="55" type="STRING"/>
  </fields>
  <header></header>
  <trailer></trailer>
  <messages>
    <message name="QuoteRequest" msgtype="R">
      <field name="QuoteReqID" required="Y"/>
      <group name="NoRelatedSym" required="N">
        <field name="Symbol" required="Y"/>
      </group>
    </message>
  </messages>
</fix>`

func TestDeclaredGroupCountTracksWireValue(t *testing.T) {
	dict, err := datadictionary.Load(strings.NewReader(quoteRequestDictXML))
	require.NoError(t, err)

	m := NewMessage("FIX.4.2", "R")
	m.Body.Set(fix.NewStringField(tag.QuoteReqID, "RQ-1"))
	occ := NewGroupFieldMap([]tag.Tag{tag.Symbol})
	occ.Set(fix.NewStringField(tag.Symbol, "IBM"))
	m.Body.AddGroup(tag.NoRelatedSym, occ)
	raw, err := m.Build()
	require.NoError(t, err)

	parsed, err := ParseMessage(raw, dict, dict)
	require.NoError(t, err)
	n, ok := parsed.DeclaredGroupCount(tag.NoRelatedSym)
	require.True(t, ok)
	require.Equal(t, 1, n)
}

func TestDeclaredGroupCountAbsentWithoutDictionary(t *testing.T) {
	m := NewMessage("FIX.4.2", "R")
	occ := NewGroupFieldMap([]tag.Tag{tag.Symbol})
	occ.Set(fix.NewStringField(tag.Symbol, "IBM"))
	m.Body.AddGroup(tag.NoRelatedSym, occ)
	raw, err := m.Build()
	require.NoError(t, err)

	parsed, err := ParseMessage(raw, nil, nil)
	require.NoError(t, err)
	_, ok := parsed.DeclaredGroupCount(tag.NoRelatedSym)
	require.False(t, ok)
}
