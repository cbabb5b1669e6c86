package fixapp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/fix42"
	"github.com/qyangdu/gofix/internal/fixnet"
	"github.com/qyangdu/gofix/store"
)

// capturingApp records every application message FromApp receives, so the
// test can assert on the MassQuote EchoApplication sends back.
type capturingApp struct {
	received chan *quickfix.Message
}

func (capturingApp) OnCreate(quickfix.SessionID)                   {}
func (capturingApp) OnLogon(quickfix.SessionID)                    {}
func (capturingApp) OnLogout(quickfix.SessionID)                   {}
func (capturingApp) ToAdmin(*quickfix.Message, quickfix.SessionID) error { return nil }
func (capturingApp) ToApp(*quickfix.Message, quickfix.SessionID) error { return nil }
func (capturingApp) FromAdmin(*quickfix.Message, quickfix.SessionID) error {
	return nil
}
func (a capturingApp) FromApp(msg *quickfix.Message, id quickfix.SessionID) error {
	a.received <- msg
	return nil
}

func newSettings(connType string) quickfix.SessionSettings {
	return quickfix.SessionSettings{
		ConnectionType: connType,
		HeartBtInt:     30 * time.Second,
		LogonTimeout:   2 * time.Second,
		LogoutTimeout:  2 * time.Second,
		MaxMessageSize: 1 << 16,
	}
}

func TestEchoApplicationAnswersQuoteRequest(t *testing.T) {
	acceptorID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "ACCEPTOR", TargetCompID: "INITIATOR"}
	initiatorID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "INITIATOR", TargetCompID: "ACCEPTOR"}

	reg := quickfix.NewRegistry()
	echoApp := &EchoApplication{Registry: reg, Log: quickfix.NopLogger{}}
	acceptorSess := quickfix.NewSession(acceptorID, echoApp, store.NewMemoryStore(), nil, nil, newSettings("acceptor"), nil)
	reg.Register(acceptorSess)

	received := make(chan *quickfix.Message, 1)
	initiatorSess := quickfix.NewSession(initiatorID, capturingApp{received: received}, store.NewMemoryStore(), nil, nil, newSettings("initiator"), nil)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() { _ = fixnet.AcceptAndRoute(reg, serverConn, 1<<16) }()
	go fixnet.RunConnection(initiatorSess, clientConn, 1<<16, fixnet.NewConnResponder(clientConn))

	require.Eventually(t, func() bool {
		return acceptorSess.IsLoggedOn() && initiatorSess.IsLoggedOn()
	}, 2*time.Second, 10*time.Millisecond)

	qr := fix42.NewQuoteRequest("RQ-1")
	qr.AddSymbol("IBM")
	ok, err := initiatorSess.Send(qr.Message)
	require.NoError(t, err)
	require.True(t, ok)

	select {
	case reply := <-received:
		mq := &fix42.MassQuote{Message: reply}
		reqID, err := mq.QuoteReqID()
		require.NoError(t, err)
		require.Equal(t, "RQ-1", reqID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for MassQuote reply")
	}

	initiatorSess.Disconnect()
	acceptorSess.Disconnect()
}
