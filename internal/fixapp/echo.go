// Package fixapp provides a demonstration quickfix.Application: it logs
// session creation, logon and logout and every application message other
// than a QuoteRequest, and answers a QuoteRequest with a MassQuote
// carrying fixed default sizes,
// exercising the fix42 message wrappers end to end.
package fixapp

import (
	"fmt"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix42"
)

// EchoApplication implements quickfix.Application by logging OnCreate,
// OnLogon, OnLogout and non-QuoteRequest application messages through Log
// and answering a QuoteRequest with a canned MassQuote reply. ToAdmin,
// ToApp and FromAdmin do nothing.
type EchoApplication struct {
	Registry *quickfix.Registry
	Log      quickfix.Logger
}

var _ quickfix.Application = (*EchoApplication)(nil)

func (a *EchoApplication) OnCreate(id quickfix.SessionID) {
	a.Log.OnEvent(id, "session created")
}

func (a *EchoApplication) OnLogon(id quickfix.SessionID) {
	a.Log.OnEvent(id, "logon complete")
}

func (a *EchoApplication) OnLogout(id quickfix.SessionID) {
	a.Log.OnEvent(id, "session logged out")
}

func (a *EchoApplication) ToAdmin(msg *quickfix.Message, id quickfix.SessionID) error {
	return nil
}

func (a *EchoApplication) ToApp(msg *quickfix.Message, id quickfix.SessionID) error {
	return nil
}

func (a *EchoApplication) FromAdmin(msg *quickfix.Message, id quickfix.SessionID) error {
	return nil
}

// FromApp answers a QuoteRequest with a MassQuote of fixed default sizes
// and logs every other application message type it receives.
func (a *EchoApplication) FromApp(msg *quickfix.Message, id quickfix.SessionID) error {
	if msg.MsgType() != fix42.MsgTypeQuoteRequest {
		a.Log.OnEvent(id, fmt.Sprintf("received application message type %s", msg.MsgType()))
		return nil
	}

	qr := &fix42.QuoteRequest{Message: msg}
	reqID, err := qr.QuoteReqID()
	if err != nil {
		return nil
	}

	reply := fix42.NewMassQuote(reqID, reqID+"-Q1")
	reply.SetDefBidSize(100)
	reply.SetDefOfferSize(100)
	reply.SetQuoteResponseLevel(0)
	if _, err := a.Registry.SendToTarget(reply.Message, id); err != nil {
		a.Log.OnEvent(id, fmt.Sprintf("failed to send MassQuote reply: %s", err))
	}
	return nil
}
