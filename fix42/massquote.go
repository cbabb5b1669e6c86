package fix42

import (
	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// MassQuote wraps a MsgType=i message carrying a dealer's two-sided
// default quote sizes and response-handling level.
type MassQuote struct{ *quickfix.Message }

// NewMassQuote constructs an outgoing MassQuote for quoteID answering quoteReqID.
func NewMassQuote(quoteReqID, quoteID string) *MassQuote {
	m := quickfix.NewMessage(BeginString, MsgTypeMassQuote)
	m.Body.Set(fix.NewStringField(tag.QuoteReqID, quoteReqID))
	m.Body.Set(fix.NewStringField(tag.QuoteID, quoteID))
	return &MassQuote{m}
}

func (m *MassQuote) QuoteReqID() (string, error) { return getString(m.Body, tag.QuoteReqID) }
func (m *MassQuote) QuoteID() (string, error)     { return getString(m.Body, tag.QuoteID) }

func (m *MassQuote) QuoteResponseLevel() (int, error) { return getInt(m.Body, tag.QuoteResponseLevel) }
func (m *MassQuote) SetQuoteResponseLevel(level int) {
	m.Body.Set(fix.NewIntField(tag.QuoteResponseLevel, level))
}

func (m *MassQuote) DefBidSize() (float64, error) { return getDouble(m.Body, tag.DefBidSize) }
func (m *MassQuote) SetDefBidSize(v float64) {
	m.Body.Set(fix.NewDoubleField(tag.DefBidSize, v, 2))
}

func (m *MassQuote) DefOfferSize() (float64, error) { return getDouble(m.Body, tag.DefOfferSize) }
func (m *MassQuote) SetDefOfferSize(v float64) {
	m.Body.Set(fix.NewDoubleField(tag.DefOfferSize, v, 2))
}
