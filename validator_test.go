package quickfix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

func TestValidatorRejectsMissingBeginString(t *testing.T) {
	v := NewValidator(nil, nil)
	msg := &Message{Header: NewHeaderFieldMap(), Body: NewBodyFieldMap(), Trailer: NewTrailerFieldMap()}

	err := v.Validate(msg)
	require.Error(t, err)
	var rej MessageRejectError
	require.ErrorAs(t, err, &rej)
	require.Equal(t, RejectRequiredTagMissing, rej.RejectReason)
}

func TestValidatorRejectsDuplicateTagWithNilDictionaries(t *testing.T) {
	v := NewValidator(nil, nil)
	msg := NewMessage("FIX.4.2", "0")
	msg.Body.Add(fix.NewStringField(tag.Symbol, "IBM"))
	msg.Body.Add(fix.NewStringField(tag.Symbol, "GOOG"))

	err := v.Validate(msg)
	require.Error(t, err)
	var rej MessageRejectError
	require.ErrorAs(t, err, &rej)
	require.Equal(t, RejectTagAppearsMoreThanOnce, rej.RejectReason)
}

func TestValidatorAcceptsWellFormedMessageWithNilDictionaries(t *testing.T) {
	v := NewValidator(nil, nil)
	msg := NewMessage("FIX.4.2", "0")
	msg.Header.Set(fix.NewStringField(tag.SenderCompID, "A"))
	msg.Header.Set(fix.NewStringField(tag.TargetCompID, "B"))

	require.NoError(t, v.Validate(msg))
}

const validatorDictXML = `
<fix type="FIX" major="4" minor="2">
  <fields>
    <field name="QuoteReqID" number="131" type="STRING"/>
    <field name="Symbol" number="55" type="STRING"/>
  </fields>
  <header></header>
  <trailer></trailer>
  <messages>
    <message name="QuoteRequest" msgtype="R">
      <field name="QuoteReqID" required="Y"/>
      <field name="Symbol" required="N"/>
    </message>
  </messages>
</fix>`

func TestValidatorRejectsMissingRequiredBodyField(t *testing.T) {
	dict, err := datadictionary.Load(strings.NewReader(validatorDictXML))
	require.NoError(t, err)
	v := NewValidator(dict, dict)

	msg := NewMessage("FIX.4.2", "R")
	msg.Body.Set(fix.NewStringField(tag.Symbol, "IBM"))

	rejErr := v.Validate(msg)
	require.Error(t, rejErr)
	var rej MessageRejectError
	require.ErrorAs(t, rejErr, &rej)
	require.Equal(t, RejectRequiredTagMissing, rej.RejectReason)
	require.Equal(t, int(tag.QuoteReqID), rej.RefTagID)
}

func TestValidatorRejectsUnknownMessageType(t *testing.T) {
	dict, err := datadictionary.Load(strings.NewReader(validatorDictXML))
	require.NoError(t, err)
	v := NewValidator(dict, dict)

	msg := NewMessage("FIX.4.2", "Z")
	rejErr := v.Validate(msg)
	require.Error(t, rejErr)
	var rej MessageRejectError
	require.ErrorAs(t, rejErr, &rej)
	require.Equal(t, RejectInvalidMsgType, rej.RejectReason)
}

func TestValidatorAcceptsFullyPopulatedMessage(t *testing.T) {
	dict, err := datadictionary.Load(strings.NewReader(validatorDictXML))
	require.NoError(t, err)
	v := NewValidator(dict, dict)

	msg := NewMessage("FIX.4.2", "R")
	msg.Body.Set(fix.NewStringField(tag.QuoteReqID, "RQ-1"))
	msg.Body.Set(fix.NewStringField(tag.Symbol, "IBM"))

	require.NoError(t, v.Validate(msg))
}
