package fixnet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/store"
)

type nopApp struct{}

func (nopApp) OnCreate(quickfix.SessionID)                          {}
func (nopApp) OnLogon(quickfix.SessionID)                           {}
func (nopApp) OnLogout(quickfix.SessionID)                          {}
func (nopApp) ToAdmin(*quickfix.Message, quickfix.SessionID) error  { return nil }
func (nopApp) ToApp(*quickfix.Message, quickfix.SessionID) error    { return nil }
func (nopApp) FromAdmin(*quickfix.Message, quickfix.SessionID) error { return nil }
func (nopApp) FromApp(*quickfix.Message, quickfix.SessionID) error   { return nil }

func newTestSession(t *testing.T, connectionType string, id quickfix.SessionID) *quickfix.Session {
	t.Helper()
	settings := quickfix.SessionSettings{
		ConnectionType: connectionType,
		HeartBtInt:     30 * time.Second,
		LogonTimeout:   2 * time.Second,
		LogoutTimeout:  2 * time.Second,
		MaxMessageSize: 1 << 16,
	}
	return quickfix.NewSession(id, nopApp{}, store.NewMemoryStore(), nil, nil, settings, nil)
}

func TestRunConnectionLogsOn(t *testing.T) {
	acceptorID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "ACCEPTOR", TargetCompID: "INITIATOR"}
	initiatorID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "INITIATOR", TargetCompID: "ACCEPTOR"}

	acceptorSess := newTestSession(t, "acceptor", acceptorID)
	initiatorSess := newTestSession(t, "initiator", initiatorID)

	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	reg := quickfix.NewRegistry()
	reg.Register(acceptorSess)

	done := make(chan struct{})
	go func() {
		_ = AcceptAndRoute(reg, serverConn, 1<<16)
		close(done)
	}()

	go RunConnection(initiatorSess, clientConn, 1<<16, NewConnResponder(clientConn))

	require.Eventually(t, func() bool {
		return acceptorSess.IsLoggedOn() && initiatorSess.IsLoggedOn()
	}, 2*time.Second, 10*time.Millisecond)

	initiatorSess.Disconnect()
	acceptorSess.Disconnect()
	<-done
}

func TestAcceptAndRouteUnknownSession(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	reg := quickfix.NewRegistry() // empty: nothing registered

	errCh := make(chan error, 1)
	go func() { errCh <- AcceptAndRoute(reg, serverConn, 1<<16) }()

	initiatorID := quickfix.SessionID{BeginString: "FIX.4.2", SenderCompID: "INITIATOR", TargetCompID: "ACCEPTOR"}
	initiatorSess := newTestSession(t, "initiator", initiatorID)
	go RunConnection(initiatorSess, clientConn, 1<<16, NewConnResponder(clientConn))

	err := <-errCh
	require.Error(t, err)
}

func TestConnResponderSendAfterDisconnect(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	r := NewConnResponder(clientConn)
	r.Disconnect()
	require.False(t, r.Send([]byte("8=FIX.4.2\x01")))
}
