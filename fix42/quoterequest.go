package fix42

import (
	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix"
	"github.com/qyangdu/gofix/fix/tag"
)

// QuoteRequest wraps a MsgType=R message: a request for quotes on one or
// more symbols, carried as the NoRelatedSym repeating group.
type QuoteRequest struct{ *quickfix.Message }

// NewQuoteRequest constructs an outgoing QuoteRequest with the given
// QuoteReqID and no symbols yet; call AddSymbol to populate NoRelatedSym.
func NewQuoteRequest(quoteReqID string) *QuoteRequest {
	m := quickfix.NewMessage(BeginString, MsgTypeQuoteRequest)
	m.Body.Set(fix.NewStringField(tag.QuoteReqID, quoteReqID))
	return &QuoteRequest{m}
}

// QuoteReqID returns the request's identifier.
func (m *QuoteRequest) QuoteReqID() (string, error) { return getString(m.Body, tag.QuoteReqID) }

// AddSymbol appends one occurrence to the NoRelatedSym group.
func (m *QuoteRequest) AddSymbol(symbol string) {
	occ := quickfix.NewGroupFieldMap([]tag.Tag{tag.Symbol})
	occ.Set(fix.NewStringField(tag.Symbol, symbol))
	m.Body.AddGroup(tag.NoRelatedSym, occ)
}

// Symbols returns every symbol named across the NoRelatedSym group's
// occurrences, in order.
func (m *QuoteRequest) Symbols() []string {
	count := m.Body.GroupCount(tag.NoRelatedSym)
	out := make([]string, 0, count)
	for i := 1; i <= int(count); i++ {
		occ, ok := m.Body.Group(i, tag.NoRelatedSym)
		if !ok {
			continue
		}
		if sym, err := getString(occ, tag.Symbol); err == nil {
			out = append(out, sym)
		}
	}
	return out
}
